package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Chat", nil), "NOT_FOUND", http.StatusNotFound},
		{"invalid argument", InvalidArgument("bad input", nil), "INVALID_ARGUMENT", http.StatusBadRequest},
		{"unauthorized", Unauthorized("no", nil), "UNAUTHORIZED", http.StatusUnauthorized},
		{"forbidden", Forbidden("no", nil), "FORBIDDEN", http.StatusForbidden},
		{"conflict", Conflict("taken"), "CONFLICT", http.StatusConflict},
		{"internal", Internal("boom", nil), "INTERNAL_ERROR", http.StatusInternalServerError},
		{"upstream", Upstream("backend down", nil), "UPSTREAM_FAILURE", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, Is(tt.err, tt.code))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("Chat", nil)
	assert.Equal(t, "Chat not found", err.Message)
	assert.Equal(t, "NOT_FOUND: Chat not found", err.Error())
}

func TestIsUnwrapsWrappedErrors(t *testing.T) {
	inner := NotFound("Message", nil)
	wrapped := fmt.Errorf("listing messages: %w", inner)

	assert.True(t, Is(wrapped, "NOT_FOUND"))
	assert.False(t, Is(wrapped, "CONFLICT"))
	assert.False(t, Is(fmt.Errorf("plain"), "NOT_FOUND"))
	assert.False(t, Is(nil, "NOT_FOUND"))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("rpc deadline exceeded")
	err := Upstream("Document store unavailable", cause)
	assert.Equal(t, cause, err.Unwrap())
}
