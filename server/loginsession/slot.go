package loginsession

import (
	"context"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/jrsteele09/go-matchmaking-backoffice/sessions"
)

// Slot is the token slot of one browser session, backed by a Repo
type Slot struct {
	repo      Repo
	sessionID string
	maxAge    time.Duration
	now       func() time.Time
}

var _ sessions.TokenSlot = (*Slot)(nil)

// NewSlot binds repo to sessionID. Tokens are kept until their own expiry,
// capped at maxAge.
func NewSlot(repo Repo, sessionID string, maxAge time.Duration) *Slot {
	return &Slot{repo: repo, sessionID: sessionID, maxAge: maxAge, now: time.Now}
}

func (s *Slot) Load(ctx context.Context) (string, error) {
	session, err := s.repo.Get(ctx, s.sessionID)
	if err != nil {
		return "", err
	}
	if session.Token == "" {
		return "", errors.ErrSlotEmpty
	}
	return session.Token, nil
}

func (s *Slot) Save(ctx context.Context, token string, expiresAt time.Time) error {
	now := s.now()
	limit := now.Add(s.maxAge)
	if expiresAt.IsZero() || expiresAt.After(limit) {
		expiresAt = limit
	}
	return s.repo.Upsert(ctx, s.sessionID, Session{Token: token, ExpiresAt: expiresAt, CreatedAt: now})
}

func (s *Slot) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, s.sessionID)
}
