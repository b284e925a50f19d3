package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", ValidationError("invalid input"), TypeValidation, http.StatusBadRequest},
		{"not found", NotFoundError("missing"), TypeNotFound, http.StatusNotFound},
		{"rate limited", RateLimitedError("slow down"), TypeRateLimited, http.StatusTooManyRequests},
		{"internal", InternalError("boom", nil), TypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus())
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.wantType))
		})
	}
}

func TestInternalError_WithCause(t *testing.T) {
	cause := fmt.Errorf("database connection failed")
	err := InternalError("failed to save settings", cause)

	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "database connection failed")
	assert.ErrorIs(t, err, cause)
}

func TestInternalError_WithoutCause(t *testing.T) {
	err := InternalError("something went wrong", nil)
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestWithField(t *testing.T) {
	err := InternalError("provisioning failed", nil).
		WithField("content_type", "article").
		WithField("operation", "create")

	resp := err.ToResponse()
	assert.Equal(t, "provisioning failed", resp.Error)
	assert.Equal(t, TypeInternal, resp.Type)
	assert.Equal(t, map[string]any{"content_type": "article", "operation": "create"}, resp.Context)
}

func TestWithField_NilContext(t *testing.T) {
	err := &Error{Type: TypeValidation, Message: "x"}
	err.WithField("field", "threshold")
	assert.Equal(t, "threshold", err.Context["field"])
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	validation := ValidationError("bad")
	wrapped := fmt.Errorf("handler: %w", validation)
	assert.Same(t, validation, AsStructuredError(wrapped))

	plain := errors.New("plain")
	structured := AsStructuredError(plain)
	require.NotNil(t, structured)
	assert.Equal(t, TypeInternal, structured.Type)
	assert.Equal(t, "internal server error", structured.Message)
	assert.ErrorIs(t, structured, plain)
}
