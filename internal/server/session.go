package server

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"devcentral/internal/cache"
	"devcentral/internal/middleware"
	"devcentral/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "session"
	tokenIssuer       = "devcentral-api"
	tokenAudience     = "devcentral-client"
	loginPath         = "/accounts/login/"
	defaultSessionTTL = 14 * 24 * time.Hour
)

var errNoSession = errors.New("no session token")

// session is a validated token.
type session struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

func (s *Server) sessionTTL() time.Duration {
	if s.config.SessionTTLHours <= 0 {
		return defaultSessionTTL
	}
	return time.Duration(s.config.SessionTTLHours) * time.Hour
}

// generateToken signs a session token for the user.
func (s *Server) generateToken(userID uint, username string) (string, time.Time, error) {
	if s.config.JWTSecret == "" {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	exp := now.Add(s.sessionTTL())
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// parseToken validates signature, issuer, audience, subject and revocation.
func (s *Server) parseToken(c *fiber.Ctx, tokenString string) (*session, error) {
	if tokenString == "" {
		return nil, errNoSession
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	jti, _ := claims["jti"].(string)
	if cache.IsRevoked(c.UserContext(), jti) {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}

	sess := &session{UserID: uint(userID), JTI: jti}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time
	}
	return sess, nil
}

// tokenFromRequest prefers a Bearer header over the session cookie.
func tokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Cookies(sessionCookieName)
}

// AuthRequired returns the authentication middleware. Browser page loads
// without a session are sent to the login page; everything else gets 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.parseToken(c, tokenFromRequest(c))
		if err != nil {
			return s.unauthenticated(c, err)
		}

		// Tokens outlive deleted accounts; refuse them.
		if _, err := s.userRepo.GetByID(c.UserContext(), sess.UserID); err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				s.clearSessionCookie(c)
				return s.unauthenticated(c, models.NewUnauthorizedError("Account no longer exists"))
			}
			return s.respondError(c, err)
		}

		c.Locals("userID", sess.UserID)
		c.Locals("session", sess)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), sess.UserID))
		return c.Next()
	}
}

func (s *Server) unauthenticated(c *fiber.Ctx, err error) error {
	browserPage := c.Method() == fiber.MethodGet &&
		c.Get(fiber.HeaderAuthorization) == "" &&
		!websocket.IsWebSocketUpgrade(c)
	if browserPage {
		return c.Redirect(loginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}

	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewUnauthorizedError("Authorization required")
	}
	return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
}

// currentSession returns the session validated by AuthRequired, or parses
// the request token on public routes.
func (s *Server) currentSession(c *fiber.Ctx) (*session, bool) {
	if sess, ok := c.Locals("session").(*session); ok {
		return sess, true
	}
	sess, err := s.parseToken(c, tokenFromRequest(c))
	if err != nil {
		return nil, false
	}
	return sess, true
}

// actorID returns the authenticated user. Only valid behind AuthRequired.
func actorID(c *fiber.Ctx) uint {
	uid, _ := c.Locals("userID").(uint)
	return uid
}

func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	token, exp, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// endSession revokes the current token until it would have expired.
func (s *Server) endSession(c *fiber.Ctx) {
	if sess, ok := s.currentSession(c); ok && sess.JTI != "" {
		ttl := time.Until(sess.ExpiresAt)
		if err := cache.Revoke(c.UserContext(), sess.JTI, ttl); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "revoke session token", "error", err.Error())
		}
	}
	s.clearSessionCookie(c)
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
