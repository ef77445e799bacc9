package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-matchmaking-backoffice/guard"
	"github.com/jrsteele09/go-matchmaking-backoffice/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyStore stores the browser's *sessions.Store
	ContextKeyStore ContextKey = "session_store"
	// ContextKeyBrowserSession stores the browser session ID the store was found under
	ContextKeyBrowserSession ContextKey = "browser_session"
	// ContextKeySnapshot stores the snapshot the guard authorised the request with
	ContextKeySnapshot ContextKey = "session_snapshot"
	// ContextKeyCSRF stores the CSRF token for templates
	ContextKeyCSRF ContextKey = "csrf_token"
)

// WithBrowserSession attaches the browser's session store, issuing a
// session cookie on the first visit
func (s *Server) WithBrowserSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := browserSessionID(r)
		if !ok {
			sessionID = uuid.NewString()
			s.setBrowserSessionCookie(w, r, sessionID)
		}

		store, err := s.registry.Get(r.Context(), sessionID)
		if err != nil {
			// The store starts logged out; the admin is simply asked to log in
			s.logger.Warn().Err(err).Msg("session store started without its token")
		}

		csrfToken := s.ensureCSRFToken(w, r)
		ctx := context.WithValue(r.Context(), ContextKeyStore, store)
		ctx = context.WithValue(ctx, ContextKeyBrowserSession, sessionID)
		ctx = context.WithValue(ctx, ContextKeyCSRF, csrfToken)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is the route guard. It must run after WithBrowserSession.
//   - Loading renders the loading page (htmx requests get a full refresh)
//   - Unauthenticated and ForbiddenRole redirect to the login page
//   - Authorized passes the snapshot on to the handler
func (s *Server) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := storeFrom(r.Context()).Snapshot()
		decision := guard.Evaluate(snap)
		s.metrics.ObserveDecision(decision)

		switch {
		case decision == guard.Authorized:
			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeySnapshot, snap)))
		case decision == guard.Loading:
			if isHTMXRequest(r) {
				w.Header().Set("HX-Refresh", "true")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			s.renderLoadingPage(w, r, r.URL.RequestURI())
		case decision.RedirectsToLogin():
			redirectSuccess(w, r, RouteLogin)
		}
	}
}

// RequireCSRF rejects state changing requests without a matching CSRF token
func (s *Server) RequireCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !validateCSRF(r) {
			s.logger.Warn().Str("path", r.URL.Path).Msg("CSRF validation failed")
			http.Error(w, msgInvalidForm, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func storeFrom(ctx context.Context) *sessions.Store {
	store, _ := ctx.Value(ContextKeyStore).(*sessions.Store)
	return store
}

func browserSessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyBrowserSession).(string)
	return id
}

func snapshotFrom(ctx context.Context) sessions.Snapshot {
	snap, _ := ctx.Value(ContextKeySnapshot).(sessions.Snapshot)
	return snap
}

func csrfFrom(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyCSRF).(string)
	return token
}
