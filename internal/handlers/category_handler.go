package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskxp/internal/models"
	"taskxp/internal/services"
)

type CategoryHandler struct {
	service services.CategoryService
}

func NewCategoryHandler(service services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// GET /api/categories
//
// @Summary      List categories
// @Tags         Categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=[]models.Category}
// @Router       /api/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "[category][list]", err)
		return
	}
	if list == nil {
		list = []models.Category{}
	}
	respondOK(c, http.StatusOK, "", list)
}

// POST /api/categories
//
// @Summary      Create category
// @Tags         Categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.CategoryInput  true  "Category"
// @Success      201   {object}  Response{data=models.Category}
// @Failure      400   {object}  Response
// @Router       /api/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in models.CategoryInput
	if !bindJSON(c, "[category][create]", &in) {
		return
	}
	cat, err := h.service.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, "[category][create]", err)
		return
	}
	slog.Info("[category][create] ok", "category_id", cat.ID, "user_id", userID)
	respondOK(c, http.StatusCreated, "Category created successfully", cat)
}

// GET /api/categories/:id
//
// @Summary      Get category
// @Tags         Categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Category ID"
// @Success      200  {object}  Response{data=models.Category}
// @Failure      404  {object}  Response
// @Router       /api/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	cat, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, "[category][get]", err)
		return
	}
	respondOK(c, http.StatusOK, "", cat)
}

// PUT /api/categories/:id
//
// @Summary      Update category
// @Tags         Categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "Category ID"
// @Param        body  body      models.CategoryPatch  true  "Fields to change"
// @Success      200   {object}  Response{data=models.Category}
// @Failure      400   {object}  Response
// @Failure      404   {object}  Response
// @Router       /api/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch models.CategoryPatch
	if !bindJSON(c, "[category][update]", &patch) {
		return
	}
	cat, err := h.service.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, "[category][update]", err)
		return
	}
	respondOK(c, http.StatusOK, "Category updated successfully", cat)
}

// DELETE /api/categories/:id
//
// @Summary      Delete category
// @Description  Tasks of the category are kept and become uncategorized
// @Tags         Categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Category ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  Response
// @Router       /api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, "[category][delete]", err)
		return
	}
	slog.Info("[category][delete] ok", "category_id", id, "user_id", userID)
	respondOK(c, http.StatusOK, "Category deleted successfully", nil)
}
