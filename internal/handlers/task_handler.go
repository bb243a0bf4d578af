package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskxp/internal/export"
	"taskxp/internal/models"
	"taskxp/internal/pdf"
	"taskxp/internal/services"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type TaskHandler struct {
	service services.TaskService
	users   services.UserService
	reports pdf.Generator
}

func NewTaskHandler(service services.TaskService, users services.UserService, reports pdf.Generator) *TaskHandler {
	return &TaskHandler{service: service, users: users, reports: reports}
}

// TaskListPayload is one page of tasks.
type TaskListPayload struct {
	Tasks      []models.TaskView `json:"tasks"`
	Pagination models.Page       `json:"pagination"`
}

// TaskResultPayload is a task write; progress is present when it awarded XP.
type TaskResultPayload struct {
	Task     models.TaskView  `json:"task"`
	Progress *models.Progress `json:"progress,omitempty"`
}

func (h *TaskHandler) views(tasks []models.Task) []models.TaskView {
	now := h.service.Now()
	out := make([]models.TaskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, tasks[i].View(now))
	}
	return out
}

// parseFilter reads status, priority and categoryId from the query string.
func parseFilter(c *gin.Context, userID int64) (models.TaskFilter, error) {
	f := models.TaskFilter{UserID: userID}
	v := &models.ValidationError{}

	if s := c.Query("status"); s != "" {
		st := models.TaskStatus(s)
		if st.Valid() {
			f.Status = &st
		} else {
			v.Add("status", "must be one of pending, in_progress, completed, cancelled")
		}
	}
	if s := c.Query("priority"); s != "" {
		p := models.TaskPriority(s)
		if p.Valid() {
			f.Priority = &p
		} else {
			v.Add("priority", "must be one of low, medium, high, urgent")
		}
	}
	if s := c.Query("categoryId"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			v.Add("categoryId", "must be a positive integer")
		} else {
			f.CategoryID = &id
		}
	}
	return f, v.OrNil()
}

// parsePage reads page (>= 1) and limit (1..100).
func parsePage(c *gin.Context) (page, limit int, err error) {
	v := &models.ValidationError{}
	page, limit = 1, defaultPageLimit
	if s := c.Query("page"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 1 {
			v.Add("page", "must be at least 1")
		} else {
			page = n
		}
	}
	if s := c.Query("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 1 || n > maxPageLimit {
			v.Add("limit", fmt.Sprintf("must be between 1 and %d", maxPageLimit))
		} else {
			limit = n
		}
	}
	return page, limit, v.OrNil()
}

// GET /api/tasks
//
// @Summary      List tasks
// @Description  Ordered by priority, then due date (undated last), then newest first
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status      query     string  false  "pending|in_progress|completed|cancelled"
// @Param        priority    query     string  false  "low|medium|high|urgent"
// @Param        categoryId  query     int     false  "Category ID"
// @Param        page        query     int     false  "Page, default 1"
// @Param        limit       query     int     false  "Page size 1..100, default 20"
// @Success      200         {object}  Response{data=TaskListPayload}
// @Failure      400         {object}  Response
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	filter, err := parseFilter(c, userID)
	if err != nil {
		respondError(c, "[task][list]", err)
		return
	}
	page, limit, err := parsePage(c)
	if err != nil {
		respondError(c, "[task][list]", err)
		return
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	tasks, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "[task][list]", err)
		return
	}
	respondOK(c, http.StatusOK, "", TaskListPayload{
		Tasks:      h.views(tasks),
		Pagination: models.NewPage(total, page, limit),
	})
}

// GET /api/tasks/:id
//
// @Summary      Get task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  Response{data=models.TaskView}
// @Failure      404  {object}  Response
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, "[task][get]", err)
		return
	}
	respondOK(c, http.StatusOK, "", task.View(h.service.Now()))
}

// POST /api/tasks
//
// @Summary      Create task
// @Description  The XP reward is computed from priority, due date and estimate
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.TaskInput  true  "Task"
// @Success      201   {object}  Response{data=models.TaskView}
// @Failure      400   {object}  Response
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in models.TaskInput
	if !bindJSON(c, "[task][create]", &in) {
		return
	}
	task, err := h.service.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, "[task][create]", err)
		return
	}
	respondOK(c, http.StatusCreated, "Task created successfully", task.View(h.service.Now()))
}

// PUT /api/tasks/:id
//
// @Summary      Update task
// @Description  Moving a task to completed awards its XP and updates the streak
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int               true  "Task ID"
// @Param        body  body      models.TaskPatch  true  "Fields to change"
// @Success      200   {object}  Response{data=TaskResultPayload}
// @Failure      400   {object}  Response
// @Failure      404   {object}  Response
// @Router       /api/tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch models.TaskPatch
	if !bindJSON(c, "[task][update]", &patch) {
		return
	}
	res, err := h.service.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, "[task][update]", err)
		return
	}
	respondOK(c, http.StatusOK, "Task updated successfully", h.result(res))
}

// POST /api/tasks/:id/complete
//
// @Summary      Complete task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  Response{data=TaskResultPayload}
// @Failure      404  {object}  Response
// @Router       /api/tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.service.Complete(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, "[task][complete]", err)
		return
	}
	msg := "Task completed"
	if res.Progress != nil {
		msg = fmt.Sprintf("Task completed, +%d XP", res.Task.XPReward)
	}
	respondOK(c, http.StatusOK, msg, h.result(res))
}

// POST /api/tasks/:id/recalculate-xp
//
// @Summary      Recalculate XP reward
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  Response{data=models.TaskView}
// @Failure      404  {object}  Response
// @Router       /api/tasks/{id}/recalculate-xp [post]
func (h *TaskHandler) RecalculateXP(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := h.service.RecalculateXP(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, "[task][recalculate]", err)
		return
	}
	respondOK(c, http.StatusOK, "", task.View(h.service.Now()))
}

// DELETE /api/tasks/:id
//
// @Summary      Delete task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  Response
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, "[task][delete]", err)
		return
	}
	respondOK(c, http.StatusOK, "Task deleted successfully", nil)
}

// GET /api/tasks/stats/overview
//
// @Summary      Task counts by status
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=models.StatusOverview}
// @Router       /api/tasks/stats/overview [get]
func (h *TaskHandler) Overview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	overview, err := h.service.Overview(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "[task][overview]", err)
		return
	}
	respondOK(c, http.StatusOK, "", overview)
}

// GET /api/tasks/export?format=csv|pdf
//
// @Summary      Export tasks
// @Description  Every matching task as CSV or as a PDF report; times use the caller's timezone
// @Tags         Tasks
// @Produce      text/csv
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        format    query  string  false  "csv (default) or pdf"
// @Param        status    query  string  false  "Status filter"
// @Param        priority  query  string  false  "Priority filter"
// @Success      200
// @Failure      400  {object}  Response
// @Router       /api/tasks/export [get]
func (h *TaskHandler) Export(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "pdf" {
		respondError(c, "[task][export]", models.NewValidationError("format", "must be csv or pdf"))
		return
	}
	filter, err := parseFilter(c, userID)
	if err != nil {
		respondError(c, "[task][export]", err)
		return
	}

	ctx := c.Request.Context()
	user, progress, err := h.users.GetProfile(ctx, userID)
	if err != nil {
		respondError(c, "[task][export]", err)
		return
	}
	tasks, _, err := h.service.List(ctx, filter)
	if err != nil {
		respondError(c, "[task][export]", err)
		return
	}

	now := h.service.Now()
	loc := user.Location()
	filename := fmt.Sprintf("tasks-%s.%s", now.In(loc).Format("20060102"), format)

	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	switch format {
	case "csv":
		err = export.TasksCSV(&buf, tasks, loc)
	case "pdf":
		contentType = "application/pdf"
		var overview models.StatusOverview
		overview, err = h.service.Overview(ctx, userID)
		if err != nil {
			break
		}
		owner := user.FullName()
		if owner == "" {
			owner = user.Username
		}
		err = h.reports.TaskReport(&buf, pdf.ReportData{
			Owner:       owner,
			GeneratedAt: now.In(loc),
			Overview:    overview,
			Progress:    progress,
			Tasks:       tasks,
		})
	}
	if err != nil {
		respondError(c, "[task][export]", err)
		return
	}

	slog.Info("[task][export] ok", "user_id", userID, "format", format, "tasks", len(tasks))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *TaskHandler) result(res *services.TaskResult) TaskResultPayload {
	return TaskResultPayload{Task: res.Task.View(h.service.Now()), Progress: res.Progress}
}
