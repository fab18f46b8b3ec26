package server

import (
	"devcentral/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Username  string `json:"username" form:"username"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email"`
	Password1 string `json:"password1" form:"password1"`
	Password2 string `json:"password2" form:"password2"`
	Bio       string `json:"bio" form:"bio"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// SignupForm handles GET /signup/
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"form":     "signup",
		"fields":   []string{"username", "first_name", "last_name", "email", "password1", "password2", "bio", "avatar"},
		"messages": popFlashes(c),
	})
}

// Signup handles POST /signup/
// @Summary Create an account
// @Description Registers a user and their profile, signs them in and redirects to the timeline
// @Tags auth
// @Accept x-www-form-urlencoded,mpfd
// @Produce json
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password1 formData string true "Password"
// @Param password2 formData string true "Password confirmation"
// @Param bio formData string false "Bio"
// @Param avatar formData file false "Avatar image"
// @Success 303
// @Failure 400 {object} models.ErrorResponse
// @Router /signup/ [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := bindForm(c, &req); err != nil {
		return s.respondError(c, err)
	}
	avatar, err := formUpload(c, "avatar")
	if err != nil {
		return s.respondError(c, err)
	}

	user, err := s.accountService.Register(c.UserContext(), service.RegisterInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password1: req.Password1,
		Password2: req.Password2,
		Bio:       req.Bio,
		Avatar:    avatar,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.startSession(c, user); err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// LoginForm handles GET /accounts/login/
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"form":     "login",
		"next":     nextParam(c),
		"messages": popFlashes(c),
	})
}

// Login handles POST /accounts/login/
// @Summary Sign in
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param next query string false "Path to continue to"
// @Success 303
// @Failure 401 {object} models.ErrorResponse
// @Router /accounts/login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindForm(c, &req); err != nil {
		return s.respondError(c, err)
	}

	user, err := s.accountService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.startSession(c, user); err != nil {
		return s.respondError(c, err)
	}
	return redirectNext(c, "/")
}

// Logout handles POST /accounts/logout/
func (s *Server) Logout(c *fiber.Ctx) error {
	s.endSession(c)
	addFlash(c, "You have been logged out.")
	return c.Redirect(loginPath, fiber.StatusSeeOther)
}

// DeleteAccountForm handles GET /account/delete/
func (s *Server) DeleteAccountForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"form":     "delete_account",
		"fields":   []string{"password"},
		"messages": popFlashes(c),
	})
}

// DeleteAccount handles POST /account/delete/
// @Summary Permanently delete the signed-in account
// @Description Checks the password, removes the user and everything they own, and ends the session
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param password formData string true "Current password"
// @Success 303
// @Failure 400 {object} models.ErrorResponse
// @Router /account/delete/ [post]
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password" form:"password"`
	}
	if err := bindForm(c, &req); err != nil {
		return s.respondError(c, err)
	}

	if err := s.accountService.DeleteAccount(c.UserContext(), actorID(c), req.Password); err != nil {
		return s.respondError(c, err)
	}

	s.endSession(c)
	addFlash(c, "Your account has been deleted.")
	return c.Redirect(loginPath, fiber.StatusSeeOther)
}
