package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("product", "p-123")

	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Error(), "product not found: p-123")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAlreadyExists_MapsToBadRequest(t *testing.T) {
	err := AlreadyExists("user", "email", "a@b.com")

	// Duplicate unique fields are a client error on this API, not a 409.
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Contains(t, err.Message, `duplicate user email "a@b.com"`)
	assert.True(t, errors.Is(err, ErrAlreadyExists))
}

func TestUnauthorizedAndForbidden(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("no token").Status)
	assert.Equal(t, http.StatusForbidden, Forbidden("role user not allowed").Status)
}

func TestInternal_WrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Internal(cause)

	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "internal server error", err.Message)
}

func TestHTTPStatus_AppError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("user", "u-1")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("bad")))
}

func TestHTTPStatus_WrappedSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get user: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("create user: %w", ErrAlreadyExists), http.StatusBadRequest},
		{fmt.Errorf("decode: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("auth: %w", ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("role: %w", ErrForbidden), http.StatusForbidden},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "error: %v", tt.err)
	}
}

func TestWrap(t *testing.T) {
	base := ErrNotFound
	wrapped := Wrap(base, "load product")

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Contains(t, wrapped.Error(), "load product")
}
