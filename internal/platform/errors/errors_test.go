package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/pscheid92/sportz/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_StatusMapping(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name   string
		err    *Error
		typ    ErrorType
		status int
	}{
		{"validation", ValidationError("bad"), TypeValidation, http.StatusBadRequest},
		{"not found", NotFoundError("gone"), TypeNotFound, http.StatusNotFound},
		{"conflict", ConflictError("dup"), TypeConflict, http.StatusConflict},
		{"internal", InternalError("oops", cause), TypeInternal, http.StatusInternalServerError},
		{"external", ExternalError("redis", cause), TypeExternal, http.StatusBadGateway},
		{"rate limit", RateLimitError("slow down"), TypeRateLimit, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.typ))
		})
	}
}

func TestInternalError_IncludesCause(t *testing.T) {
	err := InternalError("failed to create match", fmt.Errorf("connection refused"))

	assert.Contains(t, err.Error(), "failed to create match")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInternalErrorWithoutCause(t *testing.T) {
	err := InternalError("something went wrong", nil)
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestFieldError(t *testing.T) {
	err := FieldError("endTime", "endTime must be after startTime")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "endTime", err.Context["field"])

	resp := err.ToResponse()
	assert.Equal(t, "endTime must be after startTime", resp.Error)
	assert.Equal(t, "endTime", resp.Context["field"])
}

func TestWithField_NilMap(t *testing.T) {
	err := &Error{Type: TypeValidation, Message: "test"}
	err = err.WithField("key", "value")
	assert.Equal(t, "value", err.Context["key"])
}

func TestUnwrap_ErrorsIs(t *testing.T) {
	root := fmt.Errorf("root")
	wrapped := InternalError("wrapped", root)

	assert.True(t, errors.Is(wrapped, root))

	var target *Error
	require.True(t, errors.As(fmt.Errorf("ctx: %w", wrapped), &target))
	assert.Equal(t, TypeInternal, target.Type)
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	original := ValidationError("original")
	assert.Same(t, original, AsStructuredError(original))

	notFound := AsStructuredError(fmt.Errorf("insert commentary: %w", domain.ErrMatchNotFound))
	assert.Equal(t, TypeNotFound, notFound.Type)

	plain := AsStructuredError(errors.New("disk full"))
	assert.Equal(t, TypeInternal, plain.Type)
	assert.Equal(t, "internal server error", plain.Message)
}
