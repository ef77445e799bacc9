// Package guard decides what a protected page may do given a session snapshot.
package guard

import "github.com/jrsteele09/go-matchmaking-backoffice/sessions"

// Decision is the outcome of evaluating a snapshot
type Decision int

const (
	Loading         Decision = iota // Resolution in flight: show a neutral loading page
	Unauthenticated                 // Nobody logged in: redirect to login
	ForbiddenRole                   // Identity missing or not admin: handled like Unauthenticated
	Authorized                      // Render the requested view
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case ForbiddenRole:
		return "forbidden_role"
	case Authorized:
		return "authorized"
	}
	return "unknown"
}

// RedirectsToLogin is true for both Unauthenticated and ForbiddenRole
func (d Decision) RedirectsToLogin() bool {
	return d == Unauthenticated || d == ForbiddenRole
}

// Evaluate is a pure function of the snapshot. The role is checked again
// here even though the store never keeps a non-admin identity.
func Evaluate(snap sessions.Snapshot) Decision {
	switch snap.State {
	case sessions.StatePending:
		return Loading
	case sessions.StateResolved:
		if !snap.Identity.IsAdmin() {
			return ForbiddenRole
		}
		return Authorized
	default:
		return Unauthenticated
	}
}
