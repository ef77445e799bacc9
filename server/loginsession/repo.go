package loginsession

import (
	"context"
	"time"
)

// Session is what the back office keeps per browser session: the bearer
// token issued by the matchmaking API and when it stops being usable.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Repo stores sessions by browser session ID. Get returns
// errors.ErrSlotEmpty for unknown or expired sessions.
type Repo interface {
	Upsert(ctx context.Context, sessionID string, session Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
}
