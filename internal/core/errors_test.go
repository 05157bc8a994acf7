// AngelaMos | 2026
// errors_test.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", ValidationError("bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"wrapped invalid input", fmt.Errorf("op: %w", ErrInvalidInput), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unauthorized", fmt.Errorf("op: %w", ErrUnauthorized), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"duplicate", ErrDuplicateKey, http.StatusConflict, "CONFLICT"},
		{"signature", SignatureError("nope"), http.StatusBadRequest, "INVALID_SIGNATURE"},
		{"configuration", ConfigurationError("stripe"), http.StatusInternalServerError, "CONFIGURATION_ERROR"},
		{"upstream", UpstreamError("stripe", errors.New("timeout")), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"token expired", ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromError(tt.err)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFoundError("cart"))

	assert.ErrorIs(t, err, ErrNotFound)
	appErr, ok := IsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, "cart not found", appErr.Message)

	upstream := UpstreamError("mail", errors.New("dial tcp"))
	assert.ErrorIs(t, upstream, ErrUpstream)
}

func TestAuthorize(t *testing.T) {
	user := Principal{UserID: NewID(), Role: RoleUser}
	admin := Principal{UserID: NewID(), Role: RoleAdmin}

	assert.ErrorIs(t, Authorize(Principal{}), ErrUnauthorized)
	assert.NoError(t, Authorize(user))
	assert.ErrorIs(t, Authorize(user, RoleAdmin), ErrForbidden)
	assert.NoError(t, Authorize(admin, RoleAdmin))
	assert.NoError(t, Authorize(admin, RoleUser, RoleAdmin))
}
