package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	err := NewUserError("Cannot access SMS messages", ErrPermissionDenied)

	assert.Equal(t, "Cannot access SMS messages: permission denied", err.Error())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "Cannot access SMS messages", UserMessage(err))

	wrapped := fmt.Errorf("start: %w", err)
	assert.Equal(t, "Cannot access SMS messages", UserMessage(wrapped))
}

func TestUserMessage_PlainError(t *testing.T) {
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Empty(t, UserMessage(nil))
}

func TestIsReconciliationFailure(t *testing.T) {
	assert.True(t, IsReconciliationFailure(fmt.Errorf("x: %w", ErrReconciliationRejected)))
	assert.True(t, IsReconciliationFailure(fmt.Errorf("x: %w", ErrReconciliationTransport)))
	assert.False(t, IsReconciliationFailure(ErrPruneFailed))
	assert.False(t, IsReconciliationFailure(nil))
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "error", "INFO"} {
		_, err := ParseLevel(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(nil, 0, "json")
	assert.NoError(t, err)
	_, err = NewHandler(nil, 0, "xml")
	assert.Error(t, err)
}
