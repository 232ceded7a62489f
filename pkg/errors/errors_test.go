package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("Student not found"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Student not found", appErr.PublicMessage())
}

func TestFromErrorNormalisesUnknownErrors(t *testing.T) {
	appErr := FromError(stderrors.New("disk full"))

	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "Internal server error", appErr.PublicMessage())
	assert.ErrorContains(t, appErr, "disk full")
}

func TestInternalNeverLeaksMessage(t *testing.T) {
	appErr := Internal(stderrors.New("open /data/x: permission denied"), "failed to load course")

	assert.Equal(t, "Internal server error", appErr.PublicMessage())
	assert.Contains(t, appErr.Error(), "permission denied")
}

func TestIsMatchesByKind(t *testing.T) {
	assert.True(t, stderrors.Is(BadRequest("Email already exists"), ErrBadRequest))
	assert.False(t, stderrors.Is(BadRequest("x"), ErrNotFound))
	assert.Nil(t, FromError(nil))
}
