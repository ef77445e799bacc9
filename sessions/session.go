package sessions

import (
	"context"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/users"
)

// ResolutionState tracks whether the stored token has been turned into an identity
type ResolutionState string

const (
	StateAbsent   ResolutionState = "absent"   // No token, nobody logged in
	StatePending  ResolutionState = "pending"  // Token loaded, /me call in flight
	StateResolved ResolutionState = "resolved" // Token and admin identity known
)

// Snapshot is a consistent copy of the session at one instant
type Snapshot struct {
	State    ResolutionState
	Token    string
	Identity *users.Identity
}

// Contract is the reduced view handed to pages and scripts
type Contract struct {
	IsAuthenticated bool            `json:"isAuthenticated"`
	IsAdmin         bool            `json:"isAdmin"`
	Loading         bool            `json:"loading"`
	User            *users.Identity `json:"user"`
}

func (s Snapshot) Contract() Contract {
	authenticated := s.State == StateResolved && s.Identity != nil
	return Contract{
		IsAuthenticated: authenticated,
		IsAdmin:         authenticated && s.Identity.IsAdmin(),
		Loading:         s.State == StatePending,
		User:            s.Identity,
	}
}

// TokenSlot is the durable storage for one browser's bearer token.
// Load returns errors.ErrSlotEmpty when nothing is stored.
type TokenSlot interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string, expiresAt time.Time) error
	Clear(ctx context.Context) error
}

// Event names a store operation reported to an Observer
type Event string

const (
	EventLogin      Event = "login"
	EventLogout     Event = "logout"
	EventResolution Event = "resolution"
	EventDiscarded  Event = "discarded" // a stale login or resolution result was dropped
)

// Observer is told about every finished operation; err is nil on success
type Observer func(event Event, err error)
