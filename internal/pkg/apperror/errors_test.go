package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		code int
	}{
		{"validation", Validation("bad %s", "field"), KindValidation, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("lookup: %w", NotFound("record not found")), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("already exists"), KindConflict, http.StatusConflict},
		{"forbidden", Forbidden("nope"), KindForbidden, http.StatusForbidden},
		{"unauthorized", Unauthorized("login"), KindUnauthorized, http.StatusUnauthorized},
		{"plain error", errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.code, KindOf(tt.err).HTTPStatus())
		})
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "failed to load %s", "users")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load users: connection reset", err.Error())
	assert.True(t, Is(err, KindInternal))
	assert.False(t, Is(nil, KindInternal))
}
