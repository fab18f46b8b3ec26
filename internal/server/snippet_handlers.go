package server

import (
	"fmt"

	"devcentral/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListSnippets handles GET /snippets/
func (s *Server) ListSnippets(c *fiber.Ctx) error {
	snippets, err := s.snippetService.List(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"snippets": snippets,
		"messages": popFlashes(c),
	})
}

// CreateSnippetForm handles GET /snippets/create/
func (s *Server) CreateSnippetForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"form":      "snippet",
		"languages": s.snippetService.Languages(),
		"messages":  popFlashes(c),
	})
}

// CreateSnippet handles POST /snippets/create/
// @Summary Share a code snippet
// @Tags snippets
// @Accept x-www-form-urlencoded
// @Param title formData string true "Title"
// @Param language formData string false "Language, python by default"
// @Param code formData string true "Source code"
// @Success 303
// @Failure 400 {object} models.ErrorResponse
// @Router /snippets/create/ [post]
func (s *Server) CreateSnippet(c *fiber.Ctx) error {
	var req struct {
		Title    string `json:"title" form:"title"`
		Language string `json:"language" form:"language"`
		Code     string `json:"code" form:"code"`
	}
	if err := bindForm(c, &req); err != nil {
		return s.respondError(c, err)
	}

	snippet, err := s.snippetService.Create(c.UserContext(), actorID(c), service.SnippetInput{
		Title:    req.Title,
		Language: req.Language,
		Code:     req.Code,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(fmt.Sprintf("/snippets/%d/", snippet.ID), fiber.StatusSeeOther)
}

// GetSnippet handles GET /snippets/:id/
func (s *Server) GetSnippet(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	snippet, err := s.snippetService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"snippet":  snippet,
		"messages": popFlashes(c),
	})
}

// DeleteSnippet handles POST /snippets/:id/delete/
func (s *Server) DeleteSnippet(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.snippetService.Delete(c.UserContext(), actorID(c), id); err != nil {
		return s.respondError(c, err)
	}
	addFlash(c, "Snippet deleted.")
	return c.Redirect("/snippets/", fiber.StatusSeeOther)
}
