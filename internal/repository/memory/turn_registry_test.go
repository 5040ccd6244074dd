package memory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginRejectsSecondTurn(t *testing.T) {
	r := NewTurnRegistry()
	sessionId := uuid.New()

	require.NoError(t, r.Begin(sessionId, func() {}))
	assert.ErrorIs(t, r.Begin(sessionId, func() {}), ErrTurnInFlight)

	// Another session is unaffected.
	assert.NoError(t, r.Begin(uuid.New(), func() {}))
}

func TestEndReleasesTheFlag(t *testing.T) {
	r := NewTurnRegistry()
	sessionId := uuid.New()

	require.NoError(t, r.Begin(sessionId, func() {}))
	assert.True(t, r.Busy(sessionId))

	r.End(sessionId)
	assert.False(t, r.Busy(sessionId))
	assert.NoError(t, r.Begin(sessionId, func() {}))
}

func TestCancelFiresTheCancelFunc(t *testing.T) {
	r := NewTurnRegistry()
	sessionId := uuid.New()

	canceled := false
	require.NoError(t, r.Begin(sessionId, func() { canceled = true }))

	r.Cancel(sessionId)
	assert.True(t, canceled)
	assert.False(t, r.Busy(sessionId))
}

func TestCancelIdleIsNoOp(t *testing.T) {
	r := NewTurnRegistry()

	r.Cancel(uuid.New())
}
