package server

import (
	"devcentral/internal/models"
	"devcentral/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Body       string `json:"body" form:"body"`
	ClearImage bool   `json:"clear_image" form:"clear_image"`
}

type exploreResponse struct {
	*service.ExplorePage
	Messages []string `json:"messages"`
}

// Timeline handles GET /
// @Summary Home timeline
// @Description Posts by the viewer and everyone they follow, newest first, with replies attached
// @Tags posts
// @Produce json
// @Success 200 {object} object{posts=[]service.TimelinePost,messages=[]string}
// @Router / [get]
func (s *Server) Timeline(c *fiber.Ctx) error {
	posts, err := s.timelineService.Feed(c.UserContext(), actorID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts":    posts,
		"messages": popFlashes(c),
	})
}

// Explore handles GET /explore/?page=
// @Summary Every post, 25 per page
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} service.ExplorePage
// @Router /explore/ [get]
func (s *Server) Explore(c *fiber.Ctx) error {
	page, err := s.timelineService.Explore(c.UserContext(), actorID(c), parsePage(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(exploreResponse{ExplorePage: page, Messages: popFlashes(c)})
}

// CreatePostForm handles GET /post/create/
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"form":            "post",
		"max_body_length": models.MaxPostBodyLength,
		"messages":        popFlashes(c),
	})
}

// CreatePost handles POST /post/create/
// @Summary Publish a post
// @Tags posts
// @Accept x-www-form-urlencoded,mpfd
// @Param body formData string false "Markdown body"
// @Param image formData file false "Image"
// @Success 303
// @Failure 400 {object} models.ErrorResponse
// @Router /post/create/ [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := bindForm(c, &req); err != nil {
		return s.respondError(c, err)
	}
	image, err := formUpload(c, "image")
	if err != nil {
		return s.respondError(c, err)
	}

	if _, err := s.postService.Create(c.UserContext(), actorID(c), service.PostInput{Body: req.Body, Image: image}); err != nil {
		return s.respondError(c, err)
	}
	addFlash(c, "Your post was published.")
	return redirectNext(c, "/")
}

// EditPostForm handles GET /post/:id/edit/
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Get(c.UserContext(), actorID(c), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"form":     "post",
		"post":     post,
		"messages": popFlashes(c),
	})
}

// UpdatePost handles POST /post/:id/edit/
// @Summary Edit a post
// @Description Only the author may edit. A new image replaces the old one; clear_image removes it.
// @Tags posts
// @Accept x-www-form-urlencoded,mpfd
// @Param id path int true "Post ID"
// @Param body formData string false "Markdown body"
// @Param image formData file false "Image"
// @Param clear_image formData bool false "Remove the current image"
// @Success 303
// @Failure 403 {object} models.ErrorResponse
// @Router /post/{id}/edit/ [post]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := bindForm(c, &req); err != nil {
		return s.respondError(c, err)
	}
	image, err := formUpload(c, "image")
	if err != nil {
		return s.respondError(c, err)
	}

	in := service.PostInput{Body: req.Body, Image: image, ClearImage: req.ClearImage}
	if _, err := s.postService.Update(c.UserContext(), actorID(c), postID, in); err != nil {
		return s.respondError(c, err)
	}
	addFlash(c, "Your post was updated.")
	return redirectNext(c, "/")
}

// DeletePost handles POST /post/:id/delete/
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Delete(c.UserContext(), actorID(c), postID); err != nil {
		return s.respondError(c, err)
	}
	addFlash(c, "Your post was deleted.")
	return redirectNext(c, "/")
}

// PostAction handles POST /post/:id/:action/
// @Summary Like, dislike or share a post
// @Description like and dislike toggle the viewer's reaction; share records a share. Other actions are ignored.
// @Tags posts
// @Param id path int true "Post ID"
// @Param action path string true "like, dislike or share"
// @Success 303
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/{action}/ [post]
func (s *Server) PostAction(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.reactionService.Apply(c.UserContext(), actorID(c), postID, c.Params("action")); err != nil {
		return s.respondError(c, err)
	}
	return redirectBack(c, "/")
}

// SharePost handles POST /post/:id/share/
func (s *Server) SharePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.reactionService.Apply(c.UserContext(), actorID(c), postID, service.ActionShare); err != nil {
		return s.respondError(c, err)
	}
	addFlash(c, "Post shared.")
	return redirectBack(c, "/")
}

// CreateReply handles POST /post/:id/reply/
// @Summary Reply to a post
// @Tags posts
// @Accept x-www-form-urlencoded
// @Param id path int true "Post ID"
// @Param body formData string true "Reply text"
// @Success 303
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/reply/ [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Body string `json:"body" form:"body"`
	}
	if err := bindForm(c, &req); err != nil {
		return s.respondError(c, err)
	}
	if _, err := s.replyService.Create(c.UserContext(), actorID(c), postID, req.Body); err != nil {
		return s.respondError(c, err)
	}
	return redirectBack(c, "/")
}
