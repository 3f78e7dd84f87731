package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{NotFound("donor", nil), http.StatusNotFound},
		{BadRequest("bad", nil), http.StatusBadRequest},
		{Conflict("donor is not eligible"), http.StatusBadRequest},
		{InsufficientStock("insufficient blood stock"), http.StatusBadRequest},
		{Unauthorized("invalid token", nil), http.StatusUnauthorized},
		{TokenExpired(nil), http.StatusUnauthorized},
		{Forbidden("access denied", nil), http.StatusForbidden},
		{Internal(errors.New("pq: syntax error")), http.StatusInternalServerError},
		{Internal(context.DeadlineExceeded), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New(`pq: relation "donors" does not exist`)
	err := Internal(cause)

	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestInternalDeadline(t *testing.T) {
	err := Internal(fmt.Errorf("failed to get donor: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrUnavailable, err.Code)
}

func TestAsAndIs(t *testing.T) {
	wrapped := fmt.Errorf("fulfill: %w", InsufficientStock("insufficient blood stock"))

	assert.True(t, Is(wrapped, ErrInsufficientStock))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.Equal(t, ErrInsufficientStock, As(wrapped).Code)
	assert.Equal(t, ErrInternal, As(errors.New("plain")).Code)
}
