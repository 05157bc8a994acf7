// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
)

type Envelope struct {
	Success    bool     `json:"success"`
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message,omitempty"`
	Code       string   `json:"code,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Stack      string   `json:"stack,omitempty"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type PaginatedData struct {
	Items any      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

var exposeErrorDetail atomic.Bool

// SetDebug controls whether error responses carry the wrapped error chain.
func SetDebug(enabled bool) {
	exposeErrorDetail.Store(enabled)
}

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if body == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func Success(w http.ResponseWriter, status int, data any, message string) {
	JSON(w, status, Envelope{
		Success:    true,
		StatusCode: status,
		Data:       data,
		Message:    message,
	})
}

func OK(w http.ResponseWriter, data any) {
	Success(w, http.StatusOK, data, "")
}

func Created(w http.ResponseWriter, data any) {
	Success(w, http.StatusCreated, data, "")
}

func Message(w http.ResponseWriter, status int, message string) {
	Success(w, status, nil, message)
}

func Paginated(w http.ResponseWriter, items any, page, pageSize int, total int64) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	OK(w, PaginatedData{
		Items: items,
		Meta: PageMeta{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func JSONError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.Error("request failed",
			"status", appErr.StatusCode,
			"code", appErr.Code,
			"error", err,
		)
	}

	env := Envelope{
		Success:    false,
		StatusCode: appErr.StatusCode,
		Message:    appErr.Message,
		Code:       appErr.Code,
		Errors:     appErr.Errors,
	}

	if exposeErrorDetail.Load() && err != nil {
		env.Stack = err.Error()
	}

	JSON(w, appErr.StatusCode, env)
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, ValidationError(message))
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	JSONError(w, ForbiddenError(message))
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

func InternalServerError(w http.ResponseWriter, err error) {
	JSONError(w, NewAppError(err, "internal server error", http.StatusInternalServerError, "INTERNAL_ERROR"))
}
