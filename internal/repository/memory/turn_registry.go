package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrTurnInFlight is returned when a session already has a streaming turn
// outstanding. The reducer enforces this itself instead of trusting the UI to
// keep the input disabled.
var ErrTurnInFlight = errors.New("a turn is already in flight for this session")

type activeTurn struct {
	cancel context.CancelFunc
}

// TurnRegistry tracks the one in-flight turn a session may have. Entries carry
// the turn's cancel func so a stale stream can be torn down when its session
// is deleted. The expiration is a safety net against leaked turns.
type TurnRegistry struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewTurnRegistry() *TurnRegistry {
	// Turns never legitimately outlive the gateway timeout; expired entries
	// are purged every few minutes.
	c := cache.New(10*time.Minute, 5*time.Minute)
	return &TurnRegistry{
		cache: c,
	}
}

// Begin marks the session busy. Returns ErrTurnInFlight when a turn is
// already outstanding.
func (r *TurnRegistry) Begin(sessionId uuid.UUID, cancel context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cache.Add(sessionId.String(), &activeTurn{cancel: cancel}, cache.DefaultExpiration); err != nil {
		return ErrTurnInFlight
	}
	return nil
}

// End clears the busy flag once the turn finalized (success or error).
func (r *TurnRegistry) End(sessionId uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(sessionId.String())
}

// Cancel tears down the in-flight turn, if any, and clears the flag.
func (r *TurnRegistry) Cancel(sessionId uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionId.String()); found {
		x.(*activeTurn).cancel()
		r.cache.Delete(sessionId.String())
	}
}

// Busy reports whether the session has an outstanding turn.
func (r *TurnRegistry) Busy(sessionId uuid.UUID) bool {
	_, found := r.cache.Get(sessionId.String())
	return found
}
