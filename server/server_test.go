package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi"
	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi/apifake"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/config"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/utils"
	"github.com/jrsteele09/go-matchmaking-backoffice/server/loginsession"
	"github.com/jrsteele09/go-matchmaking-backoffice/sessions"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail  = "admin@site.com"
	memberEmail = "member@site.com"
	password    = "s3cret!"
)

type harness struct {
	t      *testing.T
	api    *apifake.FakeAPI
	repo   *loginsession.InMemoryLoginSessionRepo
	site   *httptest.Server
	server *Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("APP_NAME", "Back Office Test")
	t.Setenv("SESSION_WAIT", "2s")

	api := apifake.New()
	api.AddAccount(adminEmail, password, utils.Ptr("admin"), "Ada", "Lovelace")
	api.AddAccount(memberEmail, password, utils.Ptr("user"), "Bob", "Martin")
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	repo := loginsession.NewInMemoryLoginSessionRepo()
	s, err := New(config.New(), adminapi.New(apiServer.URL, adminapi.WithTimeout(5*time.Second)), repo)
	require.NoError(t, err)

	site := httptest.NewServer(s)
	t.Cleanup(site.Close)
	return &harness{t: t, api: api, repo: repo, site: site, server: s}
}

// browser is one cookie jar that never follows redirects
type browser struct {
	h      *harness
	client *http.Client
}

func (h *harness) browser() *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(h.t, err)
	return &browser{
		h: h,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) cookie(name string) string {
	u, _ := url.Parse(b.h.site.URL)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// adopt gives the browser a known session cookie
func (b *browser) adopt(sessionID string) {
	u, _ := url.Parse(b.h.site.URL)
	b.client.Jar.SetCookies(u, []*http.Cookie{{Name: browserSessionCookie, Value: sessionID, Path: "/"}})
}

func (b *browser) do(method, path string, form url.Values, htmx bool) (*http.Response, string) {
	b.h.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, b.h.site.URL+path, body)
	require.NoError(b.h.t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
		req.Header.Set(csrfHeader, b.cookie(csrfCookieName))
	}

	resp, err := b.client.Do(req)
	require.NoError(b.h.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(b.h.t, err)
	return resp, string(data)
}

func (b *browser) get(path string) (*http.Response, string) {
	return b.do(http.MethodGet, path, nil, false)
}

// post submits a form carrying the browser's CSRF token
func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	if form == nil {
		form = url.Values{}
	}
	form.Set(csrfFormField, b.cookie(csrfCookieName))
	return b.do(http.MethodPost, path, form, false)
}

func (b *browser) contract() sessions.Contract {
	b.h.t.Helper()
	resp, body := b.get(RouteSession)
	require.Equal(b.h.t, http.StatusOK, resp.StatusCode)
	var c sessions.Contract
	require.NoError(b.h.t, json.Unmarshal([]byte(body), &c))
	return c
}

func (b *browser) login(email string) *http.Response {
	b.h.t.Helper()
	b.get(RouteLogin) // Issues the session and CSRF cookies
	resp, _ := b.post(RouteLogin, url.Values{"email": {email}, "password": {password}})
	return resp
}

func requireRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, location, resp.Header.Get("Location"))
}

func TestLogin_AdminReachesDashboard(t *testing.T) {
	h := newHarness(t)
	b := h.browser()

	resp, body := b.get(RouteLogin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Se connecter")
	require.NotEmpty(t, b.cookie(browserSessionCookie))
	require.NotEmpty(t, b.cookie(csrfCookieName))

	resp, _ = b.post(RouteLogin, url.Values{"email": {"  " + adminEmail + " "}, "password": {password}})
	requireRedirect(t, resp, RouteDashboard)

	resp, body = b.get(RouteDashboard)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Tableau de bord")
	require.Contains(t, body, "Ada Lovelace")
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	c := b.contract()
	require.True(t, c.IsAuthenticated)
	require.True(t, c.IsAdmin)
	require.False(t, c.Loading)
	require.NotNil(t, c.User)
	require.Equal(t, adminEmail, c.User.Email)

	// The token is persisted in the browser's slot
	stored, err := h.repo.Get(context.Background(), b.cookie(browserSessionCookie))
	require.NoError(t, err)
	require.NotEmpty(t, stored.Token)

	// Logged in admins skip the login page
	resp, _ = b.get(RouteLogin)
	requireRedirect(t, resp, RouteDashboard)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		apiFail  int
		status   int
		message  string
	}{
		{name: "wrong password", email: adminEmail, password: "nope", status: http.StatusUnauthorized, message: msgInvalidCredentials},
		{name: "unknown account", email: "ghost@site.com", password: password, status: http.StatusUnauthorized, message: msgInvalidCredentials},
		{name: "blank password", email: adminEmail, password: "", status: http.StatusUnauthorized, message: msgInvalidCredentials},
		{name: "member account", email: memberEmail, password: password, status: http.StatusForbidden, message: msgForbidden},
		{name: "api down", email: adminEmail, password: password, apiFail: http.StatusInternalServerError, status: http.StatusBadGateway, message: msgNetworkOrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.apiFail != 0 {
				h.api.Fail("POST "+adminapi.PathLogin, tt.apiFail)
			}
			b := h.browser()
			b.get(RouteLogin)

			resp, body := b.post(RouteLogin, url.Values{"email": {tt.email}, "password": {tt.password}})
			require.Equal(t, tt.status, resp.StatusCode)
			require.Contains(t, body, tt.message)
			require.Contains(t, body, `value="`+tt.email+`"`)

			c := b.contract()
			require.False(t, c.IsAuthenticated)
			require.False(t, c.Loading)

			resp, _ = b.get(RouteDashboard)
			requireRedirect(t, resp, RouteLogin)
		})
	}
}

func TestLogin_HTMXRendersFormFragment(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	b.get(RouteLogin)

	resp, body := b.do(http.MethodPost, RouteLogin, url.Values{"email": {adminEmail}, "password": {"nope"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, msgInvalidCredentials)
	require.Contains(t, body, `id="login-form"`)
	require.NotContains(t, body, "<html")

	resp, _ = b.do(http.MethodPost, RouteLogin, url.Values{"email": {adminEmail}, "password": {password}}, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, RouteDashboard, resp.Header.Get("HX-Redirect"))
}

func TestLogin_RequiresCSRF(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	b.get(RouteLogin)

	form := url.Values{"email": {adminEmail}, "password": {password}, csrfFormField: {"forged"}}
	resp, _ := b.do(http.MethodPost, RouteLogin, form, false)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, h.api.Calls("POST "+adminapi.PathLogin))
}

func TestGuard_AnonymousIsSentToLogin(t *testing.T) {
	h := newHarness(t)
	b := h.browser()

	for _, path := range []string{RouteIndex, RouteDashboard, RouteVerifications, RouteMatchRequests, RouteMatches, RouteUsers} {
		resp, _ := b.get(path)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
	}

	resp, _ := b.get(RouteDashboard)
	requireRedirect(t, resp, RouteLogin)

	resp, _ = b.do(http.MethodGet, RouteVerificationsList, nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, RouteLogin, resp.Header.Get("HX-Redirect"))
}

func TestGuard_StoredTokenShowsLoadingUntilResolved(t *testing.T) {
	h := newHarness(t)
	sessionID := uuid.NewString()
	token := h.api.IssueToken(adminEmail)
	require.NoError(t, h.repo.Upsert(context.Background(), sessionID, loginsession.Session{Token: token, ExpiresAt: time.Now().Add(time.Hour)}))

	release := h.api.Hold("GET " + adminapi.PathMe)
	t.Cleanup(release)

	b := h.browser()
	b.adopt(sessionID)

	resp, body := b.get(RouteVerifications + "?status=all")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Chargement de la session")
	require.Contains(t, body, url.QueryEscape(RouteVerifications+"?status=all"))
	require.NotContains(t, body, "Déconnexion")

	c := b.contract()
	require.True(t, c.Loading)
	require.False(t, c.IsAuthenticated)

	// htmx fragments ask for a full reload while loading
	resp, _ = b.do(http.MethodGet, RouteVerificationsList, nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get("HX-Refresh"))

	release()
	resp, _ = b.do(http.MethodGet, RouteSessionWait+"?next="+url.QueryEscape(RouteVerifications), nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, RouteVerifications, resp.Header.Get("HX-Redirect"))

	resp, body = b.get(RouteVerifications)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Vérifications de profil")
	require.Equal(t, 1, h.api.Calls("GET "+adminapi.PathMe))
}

func TestGuard_RejectedStoredTokens(t *testing.T) {
	tests := []struct {
		name  string
		token func(h *harness) string
	}{
		{name: "unknown token", token: func(*harness) string { return "expired-token" }},
		{name: "member token", token: func(h *harness) string { return h.api.IssueToken(memberEmail) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			sessionID := uuid.NewString()
			require.NoError(t, h.repo.Upsert(context.Background(), sessionID, loginsession.Session{Token: tt.token(h), ExpiresAt: time.Now().Add(time.Hour)}))

			b := h.browser()
			b.adopt(sessionID)

			resp, body := b.get(RouteSessionWait)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var c sessions.Contract
			require.NoError(t, json.Unmarshal([]byte(body), &c))
			require.False(t, c.IsAuthenticated)
			require.False(t, c.Loading)
			require.Nil(t, c.User)

			resp, _ = b.get(RouteDashboard)
			requireRedirect(t, resp, RouteLogin)

			_, err := h.repo.Get(context.Background(), sessionID)
			require.ErrorIs(t, err, errors.ErrSlotEmpty)
		})
	}
}

func TestSessionWait_OnlyRedirectsLocally(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	require.Equal(t, http.StatusSeeOther, b.login(adminEmail).StatusCode)

	resp, _ := b.do(http.MethodGet, RouteSessionWait+"?next="+url.QueryEscape("//evil.example.com/x"), nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, RouteDashboard, resp.Header.Get("HX-Redirect"))
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	requireRedirect(t, b.login(adminEmail), RouteDashboard)
	sessionID := b.cookie(browserSessionCookie)

	resp, _ := b.do(http.MethodPost, RouteLogout, url.Values{}, false)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.True(t, b.contract().IsAuthenticated)

	resp, _ = b.post(RouteLogout, nil)
	requireRedirect(t, resp, RouteLogin)

	c := b.contract()
	require.False(t, c.IsAuthenticated)
	require.False(t, c.IsAdmin)
	require.Nil(t, c.User)

	resp, _ = b.get(RouteDashboard)
	requireRedirect(t, resp, RouteLogin)

	_, err := h.repo.Get(context.Background(), sessionID)
	require.ErrorIs(t, err, errors.ErrSlotEmpty)
}

func TestLogout_ExpiresBrowserSessionCookie(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	requireRedirect(t, b.login(adminEmail), RouteDashboard)
	sessionID := b.cookie(browserSessionCookie)

	resp, _ := b.post(RouteLogout, nil)
	requireRedirect(t, resp, RouteLogin)

	var expired bool
	for _, c := range resp.Cookies() {
		if c.Name == browserSessionCookie {
			expired = c.MaxAge < 0
		}
	}
	require.True(t, expired)
	require.Empty(t, b.cookie(browserSessionCookie))

	// Replaying the old ID does not bring the session back
	replay := h.browser()
	replay.adopt(sessionID)
	resp, _ = replay.get(RouteDashboard)
	requireRedirect(t, resp, RouteLogin)
}

func TestLogin_RotatesBrowserSession(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	b.get(RouteLogin)
	before := b.cookie(browserSessionCookie)
	require.NotEmpty(t, before)

	resp := b.login(adminEmail)
	requireRedirect(t, resp, RouteDashboard)

	var issued string
	for _, c := range resp.Cookies() {
		if c.Name == browserSessionCookie {
			issued = c.Value
		}
	}
	require.NotEmpty(t, issued)
	require.NotEqual(t, before, issued)
	require.Equal(t, issued, b.cookie(browserSessionCookie))
	require.True(t, b.contract().IsAuthenticated)

	// The token moved with the session
	_, err := h.repo.Get(context.Background(), before)
	require.ErrorIs(t, err, errors.ErrSlotEmpty)
	stored, err := h.repo.Get(context.Background(), issued)
	require.NoError(t, err)
	require.NotEmpty(t, stored.Token)

	// An ID fixed before login is not logged in by it
	planted := h.browser()
	planted.adopt(before)
	resp, _ = planted.get(RouteDashboard)
	requireRedirect(t, resp, RouteLogin)
	require.False(t, planted.contract().IsAuthenticated)
}

func TestLogin_FailureKeepsBrowserSession(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	b.get(RouteLogin)
	before := b.cookie(browserSessionCookie)

	resp, _ := b.post(RouteLogin, url.Values{"email": {adminEmail}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, before, b.cookie(browserSessionCookie))
}

func TestSessionsAreIsolatedPerBrowser(t *testing.T) {
	h := newHarness(t)
	admin := h.browser()
	requireRedirect(t, admin.login(adminEmail), RouteDashboard)

	other := h.browser()
	resp, _ := other.get(RouteDashboard)
	requireRedirect(t, resp, RouteLogin)
	require.True(t, admin.contract().IsAuthenticated)
}

func TestReviewActions(t *testing.T) {
	h := newHarness(t)
	h.api.UpsertUser(users.User{ID: "u1", Email: "claire@site.com", FirstName: "Claire", Active: true})
	h.api.UpsertVerification(adminapi.Verification{ID: "v1", User: users.User{ID: "u1", FirstName: "Claire"}, DocumentType: "passport", Status: adminapi.StatusPending})
	h.api.UpsertVerification(adminapi.Verification{ID: "v2", User: users.User{ID: "u1", FirstName: "Claire"}, DocumentType: "id_card", Status: adminapi.StatusPending})
	h.api.UpsertMatchRequest(adminapi.MatchRequest{ID: "r1", Requester: users.User{FirstName: "Claire"}, Target: users.User{FirstName: "Luc"}, Status: adminapi.StatusPending})
	h.api.UpsertMatch(adminapi.Match{ID: "m1", UserA: users.User{FirstName: "Claire"}, UserB: users.User{FirstName: "Luc"}, CompatibilityScore: 0.87, Status: adminapi.StatusPending})

	b := h.browser()
	requireRedirect(t, b.login(adminEmail), RouteDashboard)

	resp, body := b.get(RouteVerifications)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "/verifications/v1/approve")
	require.Contains(t, body, "/verifications/v2/reject")

	resp, body = b.do(http.MethodPost, "/verifications/v1/approve", url.Values{"status": {"pending"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, actionMessages["verification.approve"])
	require.Contains(t, body, "hx-swap-oob")
	require.NotContains(t, body, "/verifications/v1/approve")
	v, _ := h.api.Verification("v1")
	require.Equal(t, adminapi.StatusApproved, v.Status)
	u, _ := h.api.User("u1")
	require.True(t, u.IdentityVerified)

	resp, body = b.do(http.MethodPost, "/verifications/v2/reject", url.Values{"reason": {"  photo floue "}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, actionMessages["verification.reject"])
	v, _ = h.api.Verification("v2")
	require.Equal(t, adminapi.StatusRejected, v.Status)
	require.Equal(t, "photo floue", v.RejectionReason)

	resp, body = b.do(http.MethodPost, "/match-requests/r1/validate", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, actionMessages["match_request.validate"])
	r, _ := h.api.MatchRequest("r1")
	require.Equal(t, adminapi.StatusApproved, r.Status)

	resp, body = b.do(http.MethodPost, "/matches/m1/reject", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, actionMessages["match.reject"])
	m, _ := h.api.Match("m1")
	require.Equal(t, adminapi.StatusRejected, m.Status)

	resp, _ = b.do(http.MethodPost, "/matches/m1/explode", url.Values{}, true)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviewActions_ErrorsOnlyNotify(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	requireRedirect(t, b.login(adminEmail), RouteDashboard)

	resp, body := b.do(http.MethodPost, "/verifications/missing/approve", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "none", resp.Header.Get("HX-Reswap"))
	require.Contains(t, body, msgNotFound)
	require.Contains(t, body, "toast-error")

	// An API rejection of the token is reported, the session stays as it is
	h.api.Fail("POST "+adminapi.PathMatches+"/{id}/{action}", http.StatusUnauthorized)
	resp, body = b.do(http.MethodPost, "/matches/m1/validate", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, msgForbidden)
	require.True(t, b.contract().IsAuthenticated)

	h.api.Fail("GET "+adminapi.PathStats, http.StatusBadGateway)
	resp, body = b.do(http.MethodGet, RouteDashboardStats, nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, msgNetworkOrServer)
	require.True(t, b.contract().IsAuthenticated)
}

func TestActions_RequireCSRF(t *testing.T) {
	h := newHarness(t)
	h.api.UpsertVerification(adminapi.Verification{ID: "v1", Status: adminapi.StatusPending})
	b := h.browser()
	requireRedirect(t, b.login(adminEmail), RouteDashboard)

	resp, _ := b.do(http.MethodPost, "/verifications/v1/approve", url.Values{}, false)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	v, _ := h.api.Verification("v1")
	require.Equal(t, adminapi.StatusPending, v.Status)
}

func TestUserActions(t *testing.T) {
	h := newHarness(t)
	h.api.UpsertUser(users.User{ID: "u1", Email: "claire@site.com", FirstName: "Claire", Active: true})
	h.api.UpsertUser(users.User{ID: "u2", Email: "luc@site.com", FirstName: "Luc", Active: true, IdentityVerified: true})
	b := h.browser()
	requireRedirect(t, b.login(adminEmail), RouteDashboard)

	resp, body := b.get(RouteUsers + "?search=claire")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "claire@site.com")
	require.NotContains(t, body, "luc@site.com")

	resp, body = b.do(http.MethodPost, "/users/u1/toggle-active", url.Values{"search": {"claire"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, actionMessages["user.toggle-active"])
	require.Contains(t, body, "Réactiver")
	u, _ := h.api.User("u1")
	require.False(t, u.Active)

	resp, body = b.do(http.MethodPost, "/users/u1/verify", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, actionMessages["user.verify"])
	u, _ = h.api.User("u1")
	require.True(t, u.IdentityVerified)

	resp, _ = b.do(http.MethodGet, RouteUsersList+"?user_status=inactive", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestActions_KeepListFilter(t *testing.T) {
	h := newHarness(t)
	h.api.UpsertVerification(adminapi.Verification{ID: "v0", User: users.User{FirstName: "Claire"}, DocumentType: "selfie_video", Status: adminapi.StatusApproved})
	h.api.UpsertVerification(adminapi.Verification{ID: "v1", User: users.User{FirstName: "Luc"}, DocumentType: "passport", Status: adminapi.StatusPending})
	for i := range 22 {
		h.api.UpsertUser(users.User{ID: users.ID(fmt.Sprintf("p%02d", i)), Email: fmt.Sprintf("p%02d@pool.test", i), FirstName: "Pool", Active: true})
	}
	b := h.browser()
	requireRedirect(t, b.login(adminEmail), RouteDashboard)

	t.Run("review queue", func(t *testing.T) {
		_, body := b.get(RouteVerifications + "?status=all")
		require.Contains(t, body, `name="status" value="all"`)

		resp, body := b.do(http.MethodPost, "/verifications/v1/approve", url.Values{"status": {"all"}}, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, "passport")
		require.Contains(t, body, "selfie_video")
	})

	t.Run("users page", func(t *testing.T) {
		_, body := b.get(RouteUsers + "?search=pool&user_status=active&page=2")
		require.Contains(t, body, `name="search" value="pool"`)
		require.Contains(t, body, `name="user_status" value="active"`)
		require.Contains(t, body, `name="page" value="2"`)

		form := url.Values{"search": {"pool"}, "user_status": {"active"}, "page": {"2"}}
		resp, body := b.do(http.MethodPost, "/users/p21/toggle-active", form, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, "Page 2 ·")
		require.Contains(t, body, "p20@pool.test")
		require.NotContains(t, body, "p21@pool.test")
	})
}

func TestDashboardStats(t *testing.T) {
	h := newHarness(t)
	h.api.UpsertUser(users.User{ID: "u1", Email: "claire@site.com", Active: true, DateJoined: time.Now()})
	h.api.UpsertVerification(adminapi.Verification{ID: "v1", Status: adminapi.StatusPending})
	b := h.browser()
	requireRedirect(t, b.login(adminEmail), RouteDashboard)

	resp, body := b.do(http.MethodGet, RouteDashboardStats, nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `id="stats"`)
	require.Contains(t, body, "Vérifications en attente")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	b := h.browser()

	resp, body := b.get(RouteHealth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, body)

	requireRedirect(t, b.login(adminEmail), RouteDashboard)
	b.get(RouteDashboard)

	resp, body = b.get(RouteMetrics)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `backoffice_session_events_total{event="login",outcome="ok"} 1`)
	require.Contains(t, body, `backoffice_guard_decisions_total{decision="authorized"}`)
	require.Contains(t, body, "backoffice_live_session_stores 1")
}

func TestStaticCSS(t *testing.T) {
	h := newHarness(t)
	resp, body := h.browser().get("/css/admin.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	require.Contains(t, body, "#notifications")

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	req, err := http.NewRequest(http.MethodGet, h.site.URL+"/css/admin.css", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	cached, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer cached.Body.Close()
	require.Equal(t, http.StatusNotModified, cached.StatusCode)

	resp, _ = h.browser().get("/css/missing.css")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: RouteDashboard},
		{raw: "/users?page=2", want: "/users?page=2"},
		{raw: "//evil.example.com", want: RouteDashboard},
		{raw: "/\\evil.example.com", want: RouteDashboard},
		{raw: "https://evil.example.com/users", want: RouteDashboard},
		{raw: "users", want: RouteDashboard},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, localPath(tt.raw, RouteDashboard), tt.raw)
	}
}
