package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/familyrecipes/family-recipes-api/core"
)

func TestError_Message(t *testing.T) {
	err := core.Forbidden(core.CodeNotAdmin, "not an admin of this family")
	assert.Equal(t, "not an admin of this family", err.Error())

	wrapped := core.Unavailable("failed to update family", errors.New("connection reset"))
	assert.Equal(t, "failed to update family: connection reset", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := core.Unavailable("entity store unavailable", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, core.KindNotFound, core.KindOf(core.NotFound(core.CodeUserNotFound, "user not found")))
	assert.Equal(t, core.KindConflict, core.KindOf(core.Conflict(core.CodeLastAdmin, "cannot remove last admin")))
	assert.Equal(t, core.Kind(0), core.KindOf(errors.New("plain")))
	assert.Equal(t, core.Kind(0), core.KindOf(nil))
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handling request: %w", core.InvalidInput(core.CodeInvalidID, "malformed id"))
	assert.Equal(t, core.KindInvalidInput, core.KindOf(err))
	assert.Equal(t, core.CodeInvalidID, core.CodeOf(err))
}
