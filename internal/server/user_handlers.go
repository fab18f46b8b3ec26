package server

import (
	"devcentral/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /u/:username/
// @Summary View a profile
// @Description Profile, follower counts, whether the viewer follows the user, and the user's posts
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{profile=models.ProfileView,posts=[]service.TimelinePost,messages=[]string}
// @Failure 404 {object} models.ErrorResponse
// @Router /u/{username}/ [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewerID := actorID(c)

	view, err := s.accountService.Profile(ctx, viewerID, c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	posts, err := s.timelineService.ProfileTimeline(ctx, viewerID, view.User.ID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"profile":  view,
		"posts":    posts,
		"messages": popFlashes(c),
	})
}

// UpdateProfile handles POST /u/:username/
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Bio string `json:"bio" form:"bio"`
	}
	if err := bindForm(c, &req); err != nil {
		return s.respondError(c, err)
	}
	avatar, err := formUpload(c, "avatar")
	if err != nil {
		return s.respondError(c, err)
	}

	user, err := s.accountService.UpdateProfile(c.UserContext(), actorID(c), c.Params("username"), service.UpdateProfileInput{
		Bio:    req.Bio,
		Avatar: avatar,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	addFlash(c, "Your profile was updated.")
	return c.Redirect(profilePath(user.Username), fiber.StatusSeeOther)
}

// Follow handles POST /u/:username/follow/
// @Summary Follow a user
// @Description Idempotent. Following yourself changes nothing and reports a message.
// @Tags users
// @Param username path string true "Username"
// @Param next query string false "Path to continue to"
// @Success 303
// @Failure 404 {object} models.ErrorResponse
// @Router /u/{username}/follow/ [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	res, err := s.followService.Follow(c.UserContext(), actorID(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	addFlash(c, res.Message())
	return redirectBack(c, profilePath(res.Target.Username))
}

// Unfollow handles POST /u/:username/unfollow/
func (s *Server) Unfollow(c *fiber.Ctx) error {
	res, err := s.followService.Unfollow(c.UserContext(), actorID(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	addFlash(c, res.Message())
	return redirectBack(c, profilePath(res.Target.Username))
}

// ListUsers handles GET /users/
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.accountService.ListUsers(c.UserContext(), actorID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"users":    users,
		"messages": popFlashes(c),
	})
}
