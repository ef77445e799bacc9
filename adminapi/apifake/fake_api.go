// Package apifake is an in-memory stand-in for the matchmaking REST API,
// served with httptest in tests.
package apifake

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
)

type account struct {
	password string
	payload  adminapi.UserPayload
}

// FakeAPI implements the login, /me and admin endpoints over maps
type FakeAPI struct {
	lock          sync.RWMutex
	accounts      map[string]account // email -> account
	tokens        map[string]string  // token -> email
	users         map[users.ID]*users.User
	verifications map[users.ID]*adminapi.Verification
	matchRequests map[users.ID]*adminapi.MatchRequest
	matches       map[users.ID]*adminapi.Match
	failures      map[string]int // route pattern -> forced status
	calls         map[string]int // route pattern -> count
	gate          map[string]chan struct{}
	mux           *http.ServeMux
}

var _ http.Handler = (*FakeAPI)(nil)

func New() *FakeAPI {
	f := &FakeAPI{
		accounts:      make(map[string]account),
		tokens:        make(map[string]string),
		users:         make(map[users.ID]*users.User),
		verifications: make(map[users.ID]*adminapi.Verification),
		matchRequests: make(map[users.ID]*adminapi.MatchRequest),
		matches:       make(map[users.ID]*adminapi.Match),
		failures:      make(map[string]int),
		calls:         make(map[string]int),
		gate:          make(map[string]chan struct{}),
		mux:           http.NewServeMux(),
	}
	f.route("POST "+adminapi.PathLogin, f.login)
	f.route("GET "+adminapi.PathMe, f.authed(f.me))
	f.route("GET "+adminapi.PathStats, f.authed(f.stats))
	f.route("GET "+adminapi.PathVerifications, f.authed(f.listVerifications))
	f.route("POST "+adminapi.PathVerifications+"/{id}/{action}", f.authed(f.reviewVerification))
	f.route("GET "+adminapi.PathMatchRequests, f.authed(f.listMatchRequests))
	f.route("POST "+adminapi.PathMatchRequests+"/{id}/{action}", f.authed(f.reviewMatchRequest))
	f.route("GET "+adminapi.PathMatches, f.authed(f.listMatches))
	f.route("POST "+adminapi.PathMatches+"/{id}/{action}", f.authed(f.reviewMatch))
	f.route("GET "+adminapi.PathUsers, f.authed(f.listUsers))
	f.route("PATCH "+adminapi.PathUsers+"/{id}/{action}", f.authed(f.updateUser))
	return f
}

func (f *FakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mux.ServeHTTP(w, r)
}

// AddAccount registers a login. A nil role produces payloads without a role field.
func (f *FakeAPI) AddAccount(email, password string, role *string, firstName, lastName string) {
	f.lock.Lock()
	defer f.lock.Unlock()

	id := users.ID(uuid.New().String())
	f.accounts[email] = account{
		password: password,
		payload: adminapi.UserPayload{
			ID:        id,
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			Role:      role,
		},
	}
}

// IssueToken returns a token valid for /me as the given account
func (f *FakeAPI) IssueToken(email string) string {
	f.lock.Lock()
	defer f.lock.Unlock()

	token := uuid.New().String()
	f.tokens[token] = email
	return token
}

// RevokeTokens invalidates every issued token
func (f *FakeAPI) RevokeTokens() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.tokens = make(map[string]string)
}

// Fail forces the route pattern (e.g., "GET /api/auth/me") to answer with status
func (f *FakeAPI) Fail(pattern string, status int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if status == 0 {
		delete(f.failures, pattern)
		return
	}
	f.failures[pattern] = status
}

// Hold makes requests on pattern block until the returned release func is called
func (f *FakeAPI) Hold(pattern string) (release func()) {
	ch := make(chan struct{})
	f.lock.Lock()
	f.gate[pattern] = ch
	f.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.lock.Lock()
			delete(f.gate, pattern)
			f.lock.Unlock()
			close(ch)
		})
	}
}

// Calls counts requests received on pattern
func (f *FakeAPI) Calls(pattern string) int {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.calls[pattern]
}

func (f *FakeAPI) UpsertUser(u users.User) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if u.ID == "" {
		u.ID = users.ID(uuid.New().String())
	}
	f.users[u.ID] = &u
}

func (f *FakeAPI) User(id users.ID) (users.User, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	u, ok := f.users[id]
	if !ok {
		return users.User{}, false
	}
	return *u, true
}

func (f *FakeAPI) UpsertVerification(v adminapi.Verification) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if v.ID == "" {
		v.ID = users.ID(uuid.New().String())
	}
	f.verifications[v.ID] = &v
}

func (f *FakeAPI) Verification(id users.ID) (adminapi.Verification, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	v, ok := f.verifications[id]
	if !ok {
		return adminapi.Verification{}, false
	}
	return *v, true
}

func (f *FakeAPI) UpsertMatchRequest(m adminapi.MatchRequest) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if m.ID == "" {
		m.ID = users.ID(uuid.New().String())
	}
	f.matchRequests[m.ID] = &m
}

func (f *FakeAPI) MatchRequest(id users.ID) (adminapi.MatchRequest, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	m, ok := f.matchRequests[id]
	if !ok {
		return adminapi.MatchRequest{}, false
	}
	return *m, true
}

func (f *FakeAPI) UpsertMatch(m adminapi.Match) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if m.ID == "" {
		m.ID = users.ID(uuid.New().String())
	}
	f.matches[m.ID] = &m
}

func (f *FakeAPI) Match(id users.ID) (adminapi.Match, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	m, ok := f.matches[id]
	if !ok {
		return adminapi.Match{}, false
	}
	return *m, true
}

func (f *FakeAPI) route(pattern string, h http.HandlerFunc) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		f.lock.Lock()
		f.calls[pattern]++
		status := f.failures[pattern]
		gate := f.gate[pattern]
		f.lock.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		h(w, r)
	})
}

func (f *FakeAPI) authed(h func(w http.ResponseWriter, r *http.Request, caller adminapi.UserPayload)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.lock.RLock()
		email, known := f.tokens[token]
		acc := f.accounts[email]
		f.lock.RUnlock()

		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			return
		}
		h(w, r, acc.payload)
	}
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var creds users.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed body"})
		return
	}

	f.lock.Lock()
	acc, ok := f.accounts[creds.Email]
	if !ok || acc.password != creds.Password {
		f.lock.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
		return
	}
	token := uuid.New().String()
	f.tokens[token] = creds.Email
	f.lock.Unlock()

	writeJSON(w, http.StatusOK, adminapi.LoginResponse{Token: token, User: &acc.payload})
}

func (f *FakeAPI) me(w http.ResponseWriter, _ *http.Request, caller adminapi.UserPayload) {
	writeJSON(w, http.StatusOK, adminapi.MeResponse{User: &caller})
}

func (f *FakeAPI) stats(w http.ResponseWriter, _ *http.Request, _ adminapi.UserPayload) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	var s adminapi.Stats
	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	for _, u := range f.users {
		s.TotalUsers++
		if u.Active {
			s.ActiveUsers++
		}
		if u.IdentityVerified {
			s.VerifiedUsers++
		}
		if u.DateJoined.After(weekAgo) {
			s.NewUsersThisWeek++
		}
	}
	for _, v := range f.verifications {
		if v.Status == adminapi.StatusPending {
			s.PendingVerifications++
		}
	}
	for _, m := range f.matchRequests {
		if m.Status == adminapi.StatusPending {
			s.PendingMatchRequests++
		}
	}
	for _, m := range f.matches {
		s.TotalMatches++
		if m.Status == adminapi.StatusPending {
			s.PendingMatches++
		}
	}
	writeJSON(w, http.StatusOK, s)
}

func (f *FakeAPI) listVerifications(w http.ResponseWriter, r *http.Request, _ adminapi.UserPayload) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	status := adminapi.ReviewStatus(r.URL.Query().Get("status"))
	out := []adminapi.Verification{}
	for _, v := range f.verifications {
		if status == "" || v.Status == status {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) listMatchRequests(w http.ResponseWriter, r *http.Request, _ adminapi.UserPayload) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	status := adminapi.ReviewStatus(r.URL.Query().Get("status"))
	out := []adminapi.MatchRequest{}
	for _, m := range f.matchRequests {
		if status == "" || m.Status == status {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	// The real API wraps this list; the client must accept both shapes.
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (f *FakeAPI) listMatches(w http.ResponseWriter, r *http.Request, _ adminapi.UserPayload) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	status := adminapi.ReviewStatus(r.URL.Query().Get("status"))
	out := []adminapi.Match{}
	for _, m := range f.matches {
		if status == "" || m.Status == status {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchedAt.Before(out[j].MatchedAt) })
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func reviewOutcome(action string, approve string) (adminapi.ReviewStatus, bool) {
	switch action {
	case approve:
		return adminapi.StatusApproved, true
	case "reject":
		return adminapi.StatusRejected, true
	}
	return "", false
}

func decodeReason(r *http.Request) string {
	var body adminapi.RejectRequest
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Reason == nil {
		return ""
	}
	return *body.Reason
}

func (f *FakeAPI) reviewVerification(w http.ResponseWriter, r *http.Request, _ adminapi.UserPayload) {
	status, ok := reviewOutcome(r.PathValue("action"), "approve")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown action"})
		return
	}
	reason := decodeReason(r)

	f.lock.Lock()
	defer f.lock.Unlock()
	v, ok := f.verifications[users.ID(r.PathValue("id"))]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "verification not found"})
		return
	}
	v.Status = status
	v.RejectionReason = reason
	if status == adminapi.StatusApproved {
		if u, ok := f.users[v.User.ID]; ok {
			u.IdentityVerified = true
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) reviewMatchRequest(w http.ResponseWriter, r *http.Request, _ adminapi.UserPayload) {
	status, ok := reviewOutcome(r.PathValue("action"), "validate")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown action"})
		return
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	m, ok := f.matchRequests[users.ID(r.PathValue("id"))]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "match request not found"})
		return
	}
	m.Status = status
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) reviewMatch(w http.ResponseWriter, r *http.Request, _ adminapi.UserPayload) {
	status, ok := reviewOutcome(r.PathValue("action"), "validate")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown action"})
		return
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	m, ok := f.matches[users.ID(r.PathValue("id"))]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "match not found"})
		return
	}
	m.Status = status
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) listUsers(w http.ResponseWriter, r *http.Request, _ adminapi.UserPayload) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	status := q.Get("status")
	page, _ := strconv.Atoi(q.Get("page"))
	page = max(page, 1)
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if pageSize <= 0 {
		pageSize = 20
	}

	f.lock.RLock()
	matched := []users.User{}
	for _, u := range f.users {
		if search != "" && !strings.Contains(strings.ToLower(u.Email+" "+u.FirstName+" "+u.LastName), search) {
			continue
		}
		switch status {
		case "active":
			if !u.Active {
				continue
			}
		case "inactive":
			if u.Active {
				continue
			}
		case "unverified":
			if u.IdentityVerified {
				continue
			}
		}
		matched = append(matched, *u)
	}
	f.lock.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].Email < matched[j].Email })
	start := min((page-1)*pageSize, len(matched))
	end := min(start+pageSize, len(matched))
	writeJSON(w, http.StatusOK, adminapi.UserPage{
		Users:    matched[start:end],
		Total:    len(matched),
		Page:     page,
		PageSize: pageSize,
	})
}

func (f *FakeAPI) updateUser(w http.ResponseWriter, r *http.Request, _ adminapi.UserPayload) {
	f.lock.Lock()
	defer f.lock.Unlock()

	u, ok := f.users[users.ID(r.PathValue("id"))]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "user not found"})
		return
	}
	switch r.PathValue("action") {
	case "toggle-active":
		u.Active = !u.Active
	case "verify":
		u.IdentityVerified = true
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown action"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
