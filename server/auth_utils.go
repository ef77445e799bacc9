package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"

	// browserSessionCookie identifies the browser; its value keys the token slot
	browserSessionCookie = "bo_session"
	// csrfCookieName holds the double-submit CSRF token
	csrfCookieName = "bo_csrf"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
)

// generateSecureToken creates a random hex string
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// browserSessionID returns the cookie value when it is a well formed session ID
func browserSessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(browserSessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}

func (s *Server) setBrowserSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     browserSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetMaxSessionAge().Seconds()),
	})
}

func (s *Server) clearBrowserSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     browserSessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// ensureCSRFToken returns the browser's CSRF token, issuing one if missing
func (s *Server) ensureCSRFToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := generateSecureToken(32)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate CSRF token")
		return "" // Will fail validation, but won't crash
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		SameSite: http.SameSiteStrictMode,
	})
	// Make the fresh token visible to the rest of this request
	r.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	return token
}

// validateCSRF checks the form field (or htmx header) against the cookie
func validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	formToken := r.FormValue(csrfFormField)
	if formToken == "" {
		formToken = r.Header.Get(csrfHeader)
	}
	return formToken != "" && subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) == 1
}

// redirectSuccess helper for htmx-aware redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// localPath accepts only same-site absolute paths, falling back otherwise
func localPath(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return u.RequestURI()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
