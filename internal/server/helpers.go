package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"devcentral/internal/middleware"
	"devcentral/internal/models"
	"devcentral/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	flashCookieName = "flash"
	maxFlashes      = 5
)

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 404 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Page", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parsePage reads ?page=. Anything that is not a number means page 1; range
// clamping is left to the listing.
func parsePage(c *fiber.Ctx) int {
	return c.QueryInt("page", 1)
}

// statusForError maps AppError codes to HTTP status codes.
func statusForError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes a service error. Errors that are not AppErrors are
// logged and reported as internal errors without their detail.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// bindForm decodes a urlencoded, multipart or JSON body into dst. An empty
// body leaves dst untouched.
func bindForm(c *fiber.Ctx, dst any) error {
	contentType := c.Get(fiber.HeaderContentType)
	if len(c.Body()) == 0 && !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// formUpload reads an optional file field. A missing field or an unnamed
// part, which browsers send when no file was chosen, yields nil.
func formUpload(c *fiber.Ctx, field string) (*service.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Filename == "" {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// safeNext accepts only site-relative paths.
func safeNext(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return ""
	}
	return raw
}

// sameSiteReferer returns the path of the Referer when it points at this host.
func sameSiteReferer(c *fiber.Ctx) string {
	ref := c.Get(fiber.HeaderReferer)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.Host != "" && u.Host != c.Hostname() {
		return ""
	}
	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return safeNext(target)
}

func nextParam(c *fiber.Ctx) string {
	if next := safeNext(c.FormValue("next")); next != "" {
		return next
	}
	return safeNext(c.Query("next"))
}

// redirectBack sends the client to ?next=, then the Referer, then fallback.
func redirectBack(c *fiber.Ctx, fallback string) error {
	target := nextParam(c)
	if target == "" {
		target = sameSiteReferer(c)
	}
	if target == "" {
		target = fallback
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

// redirectNext sends the client to ?next= or fallback.
func redirectNext(c *fiber.Ctx, fallback string) error {
	target := nextParam(c)
	if target == "" {
		target = fallback
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

func profilePath(username string) string {
	return "/u/" + url.PathEscape(username) + "/"
}

func readFlashes(c *fiber.Ctx) []string {
	raw := c.Cookies(flashCookieName)
	if raw == "" {
		return nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var msgs []string
	if err := json.Unmarshal(decoded, &msgs); err != nil {
		return nil
	}
	return msgs
}

func writeFlashes(c *fiber.Ctx, msgs []string) {
	cookie := &fiber.Cookie{
		Name:     flashCookieName,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if len(msgs) == 0 {
		cookie.Expires = time.Unix(0, 0)
	} else {
		data, _ := json.Marshal(msgs)
		cookie.Value = base64.RawURLEncoding.EncodeToString(data)
	}
	c.Cookie(cookie)
}

// addFlash queues msg for the next page the client loads.
func addFlash(c *fiber.Ctx, msg string) {
	if msg == "" {
		return
	}
	msgs := append(readFlashes(c), msg)
	if len(msgs) > maxFlashes {
		msgs = msgs[len(msgs)-maxFlashes:]
	}
	writeFlashes(c, msgs)
}

// popFlashes returns the queued messages and clears them.
func popFlashes(c *fiber.Ctx) []string {
	msgs := readFlashes(c)
	if len(msgs) == 0 {
		return []string{}
	}
	writeFlashes(c, nil)
	return msgs
}
