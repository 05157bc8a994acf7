// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrSignature     = errors.New("invalid signature")
	ErrConfiguration = errors.New("missing configuration")
	ErrUpstream      = errors.New("upstream service failure")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrTokenRevoked  = errors.New("token revoked")
)

type AppError struct {
	Err        error    `json:"-"`
	Message    string   `json:"message"`
	StatusCode int      `json:"-"`
	Code       string   `json:"code"`
	Errors     []string `json:"errors,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func ValidationError(message string, details ...string) *AppError {
	e := NewAppError(ErrInvalidInput, message, http.StatusBadRequest, "VALIDATION_ERROR")
	e.Errors = details
	return e
}

func PayloadTooLargeError() *AppError {
	return NewAppError(ErrInvalidInput, "request body too large",
		http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE")
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("%s already exists", field),
		http.StatusConflict,
		"CONFLICT",
	)
}

func SignatureError(message string) *AppError {
	return NewAppError(ErrSignature, message, http.StatusBadRequest, "INVALID_SIGNATURE")
}

func ConfigurationError(setting string) *AppError {
	return NewAppError(
		ErrConfiguration,
		fmt.Sprintf("%s is not configured", setting),
		http.StatusInternalServerError,
		"CONFIGURATION_ERROR",
	)
}

func UpstreamError(service string, err error) *AppError {
	return NewAppError(
		fmt.Errorf("%w: %w", ErrUpstream, err),
		fmt.Sprintf("%s request failed", service),
		http.StatusBadGateway,
		"UPSTREAM_ERROR",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "token has expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "token is invalid", http.StatusUnauthorized, "TOKEN_INVALID")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "token has been revoked", http.StatusUnauthorized, "TOKEN_REVOKED")
}

// FromError maps any error returned by a service onto the response taxonomy.
// Errors without a known sentinel become a generic 500.
func FromError(err error) *AppError {
	if appErr, ok := IsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return ValidationError("invalid input")
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("authentication required")
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("insufficient permissions")
	case errors.Is(err, ErrNotFound):
		return NotFoundError("resource")
	case errors.Is(err, ErrDuplicateKey):
		return DuplicateError("resource")
	case errors.Is(err, ErrSignature):
		return SignatureError("invalid signature")
	case errors.Is(err, ErrConfiguration):
		return ConfigurationError("service")
	case errors.Is(err, ErrUpstream):
		return NewAppError(err, "upstream request failed", http.StatusBadGateway, "UPSTREAM_ERROR")
	}

	return NewAppError(err, "internal server error", http.StatusInternalServerError, "INTERNAL_ERROR")
}
