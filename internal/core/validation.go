// AngelaMos | 2026
// validation.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func NewID() string {
	return uuid.NewString()
}

func ValidateID(id, field string) error {
	if !IsValidID(id) {
		return ValidationError(fmt.Sprintf("invalid %s", field))
	}
	return nil
}

func FormatValidationError(err error) *AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationError("invalid request")
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describeField(fe))
	}

	return ValidationError("validation failed", details...)
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "uuid", "uuid4":
		return field + " must be a valid id"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return field + " must be a valid url"
	}

	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// DecodeJSON reads a JSON body into dst and runs struct validation on it.
func DecodeJSON(r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ValidationError("request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return PayloadTooLargeError()
		}
		return ValidationError("invalid request body")
	}

	if v == nil {
		return nil
	}

	if err := v.Struct(dst); err != nil {
		return FormatValidationError(err)
	}

	return nil
}

type PageParams struct {
	Page     int
	PageSize int
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ParsePageParams(r *http.Request) PageParams {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(r.URL.Query().Get("page_size"))
	if err != nil || size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	return PageParams{Page: page, PageSize: size}
}
