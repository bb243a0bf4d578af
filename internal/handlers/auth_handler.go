package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskxp/internal/middleware"
	"taskxp/internal/models"
	"taskxp/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
	userService services.UserService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// AuthPayload is returned by register and login.
type AuthPayload struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// ProfilePayload is a user with their gamification progress.
type ProfilePayload struct {
	User     *models.User    `json:"user"`
	Progress models.Progress `json:"progress"`
}

// @Summary      Register
// @Description  Creates an account and returns an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "Account data"
// @Success      201   {object}  Response{data=AuthPayload}
// @Failure      400   {object}  Response
// @Failure      409   {object}  Response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, "[auth][register]", &req) {
		return
	}
	user, token, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, "[auth][register]", err)
		return
	}
	respondOK(c, http.StatusCreated, "User registered successfully", AuthPayload{User: user, Token: token})
}

// @Summary      Login
// @Description  Authenticates an active user and returns an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  Response{data=AuthPayload}
// @Failure      400   {object}  Response
// @Failure      401   {object}  Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, "[auth][login]", &req) {
		return
	}
	user, token, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		slog.Info("[auth][login] rejected", "error", err)
		respondError(c, "[auth][login]", err)
		return
	}
	slog.Info("[auth][login] ok", "user_id", user.ID)
	respondOK(c, http.StatusOK, "Login successful", AuthPayload{User: user, Token: token})
}

// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=ProfilePayload}
// @Failure      401  {object}  Response
// @Router       /api/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, progress, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "[auth][profile]", err)
		return
	}
	respondOK(c, http.StatusOK, "", ProfilePayload{User: user, Progress: progress})
}

// Logout is stateless; clients drop the token.
//
// @Summary      Logout
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if userID, found := getInt64FromCtx(c, middleware.UserIDKey); found {
		slog.Info("[auth][logout]", "user_id", userID)
	}
	respondOK(c, http.StatusOK, "Logout successful", nil)
}
