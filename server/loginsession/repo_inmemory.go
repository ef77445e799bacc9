package loginsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
)

// InMemoryLoginSessionRepo is an in-memory implementation of Repo. Tokens
// do not survive a process restart.
type InMemoryLoginSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session // sessionID -> Session
	now      func() time.Time
}

var _ Repo = (*InMemoryLoginSessionRepo)(nil)

// NewInMemoryLoginSessionRepo creates a new in-memory login session repository
func NewInMemoryLoginSessionRepo() *InMemoryLoginSessionRepo {
	return &InMemoryLoginSessionRepo{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Upsert creates or updates a login session
func (r *InMemoryLoginSessionRepo) Upsert(_ context.Context, sessionID string, session Session) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = session
	return nil
}

// Get retrieves a login session, dropping it if it has expired
func (r *InMemoryLoginSessionRepo) Get(_ context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return Session{}, errors.ErrSlotEmpty
	}
	if session.Expired(r.now()) {
		r.mu.Lock()
		delete(r.sessions, sessionID)
		r.mu.Unlock()
		return Session{}, errors.ErrSlotEmpty
	}
	return session, nil
}

// Delete removes a login session
func (r *InMemoryLoginSessionRepo) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID) // Already gone is not an error
	return nil
}

// DeleteExpired removes every expired session and returns how many were dropped
func (r *InMemoryLoginSessionRepo) DeleteExpired() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
