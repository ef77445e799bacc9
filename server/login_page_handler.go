package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-matchmaking-backoffice/guard"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/jrsteele09/go-matchmaking-backoffice/sessions"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
)

// LoginView is the login form state
type LoginView struct {
	Email string // Preserved on error
	Error string
}

// LoadingView drives the loading page poll
type LoadingView struct {
	Next    string
	WaitURL string
}

func newLoadingView(next string) LoadingView {
	return LoadingView{Next: next, WaitURL: RouteSessionWait + "?next=" + url.QueryEscape(next)}
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch guard.Evaluate(storeFrom(r.Context()).Snapshot()) {
		case guard.Authorized, guard.Loading:
			// Already logged in, or about to know: the dashboard guard takes over
			http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
			return
		}
		s.renderLogin(w, r, http.StatusOK, LoginView{Email: r.URL.Query().Get("email")})
	}
}

// LoginSubmissionHandler processes the login form (POST /login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := users.Credentials{
			Email:    strings.TrimSpace(r.FormValue("email")),
			Password: r.FormValue("password"),
		}

		store := storeFrom(r.Context())
		identity, err := store.Login(r.Context(), creds)
		if err == nil {
			err = s.rotateBrowserSession(w, r, store)
		}
		switch {
		case err == nil:
			s.logger.Info().Str("email", identity.Email).Msg("admin logged in")
			redirectSuccess(w, r, RouteDashboard)
		case errors.Is(err, errors.ErrSuperseded):
			// A newer login or a logout won; let the guard show the outcome
			redirectSuccess(w, r, RouteDashboard)
		default:
			message, status := loginErrorMessage(err)
			s.logger.Info().Err(err).Str("email", creds.Email).Msg("login failed")
			if isHTMXRequest(r) {
				// htmx only swaps 2xx responses
				status = http.StatusOK
			}
			s.renderLogin(w, r, status, LoginView{Email: creds.Email, Error: message})
		}
	}
}

// rotateBrowserSession moves a freshly logged in store to a new browser
// session ID, so an ID planted before login is worthless after it. A store
// that cannot be moved is logged out rather than left under the old ID.
func (s *Server) rotateBrowserSession(w http.ResponseWriter, r *http.Request, store *sessions.Store) error {
	sessionID, err := s.registry.Rotate(r.Context(), browserSessionFrom(r.Context()), store)
	switch {
	case err == nil:
		s.setBrowserSessionCookie(w, r, sessionID)
	case !errors.Is(err, errors.ErrSuperseded):
		store.Logout(r.Context())
	}
	return err
}

// LogoutHandler clears the session and expires the browser session cookie
// (POST /logout). It never fails.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeFrom(r.Context()).Logout(r.Context())
		s.registry.Forget(browserSessionFrom(r.Context()))
		s.clearBrowserSessionCookie(w, r)
		redirectSuccess(w, r, RouteLogin)
	}
}

// SessionContractHandler exposes {isAuthenticated, isAdmin, loading, user} (GET /session)
func (s *Server) SessionContractHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := storeFrom(r.Context())
		if store == nil {
			// Preflight without an Origin header
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, store.Contract())
	}
}

// SessionWaitHandler blocks until the pending resolution settles, bounded by
// the configured wait (GET /session/wait?next=/path). htmx callers are sent
// on to next or to the login page; a still pending session re-renders the poll.
func (s *Server) SessionWaitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := localPath(r.URL.Query().Get("next"), RouteDashboard)

		ctx, cancel := context.WithTimeout(r.Context(), s.config.GetSessionWait())
		defer cancel()
		snap, _ := storeFrom(r.Context()).Wait(ctx)

		if !isHTMXRequest(r) {
			writeJSON(w, http.StatusOK, snap.Contract())
			return
		}

		switch decision := guard.Evaluate(snap); {
		case decision == guard.Loading:
			s.renderPartial(w, http.StatusOK, "session_poll", pageData{View: newLoadingView(next)})
		case decision == guard.Authorized:
			redirectSuccess(w, r, next)
		default:
			redirectSuccess(w, r, RouteLogin)
		}
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, view LoginView) {
	data := s.basePage(r, "Connexion", "")
	data.View = view
	if isHTMXRequest(r) {
		s.renderPartial(w, status, "login_form", data)
		return
	}
	s.renderPage(w, status, "login.html", data)
}

func (s *Server) renderLoadingPage(w http.ResponseWriter, r *http.Request, next string) {
	data := s.basePage(r, "Chargement", "")
	data.View = newLoadingView(localPath(next, RouteDashboard))
	s.renderPage(w, http.StatusOK, "loading.html", data)
}
