package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	PathLogin = "/api/auth/login"
	PathMe    = "/api/auth/me"

	maxErrorBody = 4 << 10
)

// Client talks to the matchmaking REST API. Unauthenticated calls (login)
// go through Client directly; everything else goes through an Authorized
// client obtained with WithToken.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests use httptest clients)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request made by the client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the API rooted at baseURL (e.g., "https://api.example.com")
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// APIError is returned for any non-2xx response
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode extracts the HTTP status of an APIError, or 0 for transport and decode failures
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// LoginResponse is the body of a successful POST /api/auth/login
type LoginResponse struct {
	Token string       `json:"token"`
	User  *UserPayload `json:"user"`
}

// MeResponse is the body of a successful GET /api/auth/me
type MeResponse struct {
	User *UserPayload `json:"user"`
}

// UserPayload mirrors the API user object. Role is a pointer so a missing
// role can be told apart from an empty one.
type UserPayload struct {
	ID        users.ID `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      *string  `json:"role"`
}

// Identity converts the payload; ok is false when the role is missing.
func (p *UserPayload) Identity() (users.Identity, bool) {
	if p == nil || p.Role == nil {
		return users.Identity{}, false
	}
	return users.Identity{
		ID:        p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      users.RoleType(*p.Role),
	}, true
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, creds users.Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, c.httpClient, http.MethodPost, PathLogin, nil, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me resolves a bearer token to the user it belongs to
func (c *Client) Me(ctx context.Context, token string) (*MeResponse, error) {
	var resp MeResponse
	if err := c.WithToken(ctx, token).get(ctx, PathMe, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Authorized is a Client bound to one bearer token
type Authorized struct {
	client     *Client
	httpClient *http.Client
}

// WithToken returns a client sending "Authorization: Bearer <token>" on every call
func (c *Client) WithToken(ctx context.Context, token string) *Authorized {
	base := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &Authorized{
		client:     c,
		httpClient: oauth2.NewClient(base, src),
	}
}

func (a *Authorized) get(ctx context.Context, path string, query url.Values, out any) error {
	return a.client.do(ctx, a.httpClient, http.MethodGet, path, query, nil, out)
}

func (a *Authorized) send(ctx context.Context, method, path string, body, out any) error {
	return a.client.do(ctx, a.httpClient, method, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[adminapi] encode %s %s", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errors.Wrapf(err, "[adminapi] build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("api call failed")
		return errors.Wrapf(err, "[adminapi] %s %s", method, path)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "[adminapi] decode %s %s", method, path)
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	for _, m := range []string{payload.Message, payload.Error, payload.Detail} {
		if m != "" {
			return m
		}
	}
	return ""
}
