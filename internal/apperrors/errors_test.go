package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("booking %s not found", "b-1")
	wrapped := fmt.Errorf("load booking: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "booking b-1 not found", MessageOf(wrapped))
}

func TestConflictKeepsCause(t *testing.T) {
	sentinel := errors.New("slot taken")
	err := Conflict(sentinel, "slot already booked")

	assert.True(t, IsConflict(err))
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "conflict: slot already booked: slot taken", err.Error())
}

func TestUnclassifiedErrorsAreInternal(t *testing.T) {
	err := errors.New("connection reset")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "connection reset", MessageOf(err))
	assert.False(t, IsValidation(err))
}
