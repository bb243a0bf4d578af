package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"taskxp/internal/middleware"
	"taskxp/internal/models"
	"taskxp/internal/services"
)

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []models.FieldError `json:"errors,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func respondFail(c *gin.Context, status int, message string, fields []models.FieldError) {
	c.JSON(status, Response{Success: false, Message: message, Errors: fields})
}

// respondError maps service errors onto HTTP statuses. Unknown errors are
// logged with the request id and reported as a generic 500.
func respondError(c *gin.Context, op string, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respondFail(c, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, models.ErrValidation):
		respondFail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, models.ErrUnauthorized):
		respondFail(c, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, models.ErrNotFound):
		respondFail(c, http.StatusNotFound, "Resource not found", nil)
	case errors.Is(err, models.ErrConflict):
		respondFail(c, http.StatusConflict, "Resource already exists", nil)
	default:
		slog.Error(op+" internal error", "error", err, "request_id", c.GetString(middleware.RequestIDKey))
		respondFail(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// bindJSON decodes the body and answers 400 with field details when it is rejected.
func bindJSON(c *gin.Context, op string, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	slog.Debug(op+"[bind] rejected", "error", err)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]models.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, models.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		respondFail(c, http.StatusBadRequest, "Validation failed", fields)
		return false
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		respondFail(c, http.StatusBadRequest, "Validation failed", []models.FieldError{{Field: typeErr.Field, Message: "has the wrong type"}})
		return false
	}
	if errors.Is(err, io.EOF) {
		respondFail(c, http.StatusBadRequest, "Request body is required", nil)
		return false
	}
	respondFail(c, http.StatusBadRequest, "Malformed request body", nil)
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "alphanum":
		return "must contain only letters and digits"
	case "hexcolor6":
		return "must be a hex color like #3B82F6"
	}
	return "is invalid"
}

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags and reports fields by
// their JSON names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
			return services.IsHexColor(fl.Field().String())
		})
	})
}

// accepts int / int64 / float64 / string
func getInt64FromCtx(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// currentUser returns the authenticated caller or answers 401.
func currentUser(c *gin.Context) (int64, bool) {
	id, ok := getInt64FromCtx(c, middleware.UserIDKey)
	if !ok || id <= 0 {
		respondFail(c, http.StatusUnauthorized, "Authentication required", nil)
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondFail(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}
