package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskxp/internal/models"
	"taskxp/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary      Get profile
// @Description  Returns the caller with xp, level, streak and xp needed for the next level
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=ProfilePayload}
// @Failure      401  {object}  Response
// @Router       /api/users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, progress, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "[user][profile]", err)
		return
	}
	respondOK(c, http.StatusOK, "", ProfilePayload{User: user, Progress: progress})
}

// @Summary      Update profile
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.ProfileUpdate  true  "Fields to change"
// @Success      200   {object}  Response{data=models.User}
// @Failure      400   {object}  Response
// @Router       /api/users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var upd models.ProfileUpdate
	if !bindJSON(c, "[user][update]", &upd) {
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), userID, upd)
	if err != nil {
		respondError(c, "[user][update]", err)
		return
	}
	slog.Info("[user][update] profile updated", "user_id", userID)
	respondOK(c, http.StatusOK, "Profile updated successfully", user)
}

// @Summary      Delete account
// @Description  Removes the caller together with all their tasks and categories
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response
// @Router       /api/users/profile [delete]
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(c.Request.Context(), userID); err != nil {
		respondError(c, "[user][delete]", err)
		return
	}
	respondOK(c, http.StatusOK, "Account deleted successfully", nil)
}
