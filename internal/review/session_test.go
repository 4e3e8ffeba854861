package review

import (
	"testing"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_OpenAndClose(t *testing.T) {
	s := NewSession()
	assert.False(t, s.IsOpen())

	c := testCandidates("a")[0]
	c.Tag = "stale"
	require.NoError(t, s.Open(c))

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "a", active.ID)
	assert.Equal(t, model.StatusAnnotating, active.Status)
	assert.Empty(t, active.Tag)
	assert.Empty(t, s.Tag())

	s.Close()
	assert.False(t, s.IsOpen())
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestSession_SingleActive(t *testing.T) {
	s := NewSession()
	cs := testCandidates("a", "b")

	require.NoError(t, s.Open(cs[0]))
	assert.ErrorIs(t, s.Open(cs[1]), ErrSessionActive)

	active, _ := s.Active()
	assert.Equal(t, "a", active.ID)
}

func TestSession_UpdateTag(t *testing.T) {
	s := NewSession()
	assert.ErrorIs(t, s.UpdateTag("rent"), ErrNoSession)

	require.NoError(t, s.Open(testCandidates("a")[0]))
	require.NoError(t, s.UpdateTag("re"))
	require.NoError(t, s.UpdateTag("rent"))
	assert.Equal(t, "rent", s.Tag())

	active, _ := s.Active()
	assert.Equal(t, "rent", active.Tag)
	assert.Equal(t, "100", active.Amount)
}

func TestSession_OpenClearsPreviousTag(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Open(testCandidates("a")[0]))
	require.NoError(t, s.UpdateTag("rent"))
	s.Close()

	require.NoError(t, s.Open(testCandidates("b")[0]))
	assert.Empty(t, s.Tag())
}

func TestSession_BeginSubmit(t *testing.T) {
	s := NewSession()
	_, _, err := s.BeginSubmit()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Open(testCandidates("a")[0]))
	require.NoError(t, s.UpdateTag("rent"))

	c, tag, err := s.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, "rent", tag)
	assert.Equal(t, model.StatusSubmitting, c.Status)
	assert.Equal(t, "rent", c.Tag)

	// frozen while submitting
	assert.ErrorIs(t, s.UpdateTag("other"), ErrSubmitting)
	_, _, err = s.BeginSubmit()
	assert.ErrorIs(t, err, ErrSubmitting)
	assert.ErrorIs(t, s.Open(testCandidates("b")[0]), ErrSessionActive)
}
