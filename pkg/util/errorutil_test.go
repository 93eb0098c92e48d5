package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThroughWrapped(t *testing.T) {
	original := NewNotFound("ticket", map[string]any{"id": 7})
	wrapped := fmt.Errorf("handler: %w", original)

	got := ToDomainError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
	assert.Equal(t, "ticket not found", got.Message)
}

func TestToDomainErrorMapsFiberErrors(t *testing.T) {
	got := ToDomainError(fiber.ErrMethodNotAllowed)
	assert.Equal(t, http.StatusMethodNotAllowed, got.HTTPStatus)

	got = ToDomainError(fiber.NewError(http.StatusNotFound, "Cannot GET /nope"))
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, "Cannot GET /nope", got.Message)
}

func TestToDomainErrorHidesUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset by peer")
	got := ToDomainError(cause)

	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	assert.Equal(t, "internal server error", got.Message)
	assert.ErrorIs(t, got, cause)
}

func TestConflictKeepsCause(t *testing.T) {
	cause := errors.New("version mismatch")
	err := NewConflict("ticket was modified concurrently", cause)

	got := ToDomainError(err)
	assert.Equal(t, CodeConflict, got.Code)
	assert.Equal(t, http.StatusConflict, got.HTTPStatus)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ToDomainError(nil))
}
