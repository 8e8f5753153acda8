package handlers

import (
	"taskapi/internal/middleware"
	"taskapi/internal/models"
	"taskapi/internal/services"
	"taskapi/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Routes returns the authentication rows of the routing table.
func (h *AuthHandler) Routes() []Route {
	return []Route{
		{Method: fiber.MethodPost, Path: "/register", Auth: Public, Handler: h.HandleRegister},
		{Method: fiber.MethodPost, Path: "/login", Auth: Public, Handler: h.HandleLogin},
		{Method: fiber.MethodGet, Path: "/logout", Auth: Authenticated, Handler: h.HandleLogout},
		{Method: fiber.MethodGet, Path: "/refresh", Auth: Authenticated, Handler: h.HandleRefresh},
		{Method: fiber.MethodGet, Path: "/user", Auth: Authenticated, Handler: h.HandleCurrentUser},
	}
}

type authorisation struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

type authData struct {
	User          *models.User   `json:"user"`
	Authorisation *authorisation `json:"authorisation,omitempty"`
}

func newAuthData(res *services.AuthResult) authData {
	return authData{
		User:          res.User,
		Authorisation: &authorisation{Token: res.Token, Type: services.TokenType},
	}
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req validation.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusCreated, "User created successfully", newAuthData(res))
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req validation.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Login successful", newAuthData(res))
}

// HandleLogout revokes the token the request was made with.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.Claims(c)); err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Successfully logged out", nil)
}

// HandleRefresh exchanges the current token for a new one.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	res, err := h.authService.Refresh(c.UserContext(), middleware.Claims(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Token refreshed", newAuthData(res))
}

// HandleCurrentUser returns the authenticated user.
func (h *AuthHandler) HandleCurrentUser(c *fiber.Ctx) error {
	user, err := h.authService.CurrentUser(c.UserContext(), actingUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "", authData{User: user})
}
