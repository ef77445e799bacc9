package sessions_test

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/auth"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
)

// memorySlot is a TokenSlot kept in memory; it survives store restarts
type memorySlot struct {
	lock      sync.Mutex
	token     string
	expiresAt time.Time
	loads     int
	loadErr   error
	saveErr   error
	clears    int
}

func (m *memorySlot) Load(_ context.Context) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.loads++
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if m.token == "" {
		return "", errors.ErrSlotEmpty
	}
	return m.token, nil
}

func (m *memorySlot) Save(_ context.Context, token string, expiresAt time.Time) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = token
	m.expiresAt = expiresAt
	return nil
}

func (m *memorySlot) Clear(_ context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.clears++
	m.token = ""
	return nil
}

func (m *memorySlot) Token() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.token
}

type authnFunc func(ctx context.Context, creds users.Credentials) (auth.Grant, error)

func (f authnFunc) Login(ctx context.Context, creds users.Credentials) (auth.Grant, error) {
	return f(ctx, creds)
}

type resolverFunc func(ctx context.Context, token string) (users.Identity, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (users.Identity, error) {
	return f(ctx, token)
}

var (
	admin  = users.Identity{ID: "1", Email: "admin@site.com", FirstName: "A", Role: users.RoleAdmin}
	member = users.Identity{ID: "2", Email: "member@site.com", FirstName: "M", Role: users.RoleUser}
)

// grantFor returns an authenticator answering every login with token/identity
func grantFor(token string, identity users.Identity) authnFunc {
	return func(context.Context, users.Credentials) (auth.Grant, error) {
		return auth.Grant{Token: token, Identity: identity}, nil
	}
}

func failingLogin(err error) authnFunc {
	return func(context.Context, users.Credentials) (auth.Grant, error) {
		return auth.Grant{}, err
	}
}

// resolveAs returns a resolver accepting every token as identity
func resolveAs(identity users.Identity) resolverFunc {
	return func(context.Context, string) (users.Identity, error) {
		return identity, nil
	}
}

func rejectAll(err error) resolverFunc {
	return func(context.Context, string) (users.Identity, error) {
		return users.Identity{}, err
	}
}

// gated wraps a call so it blocks until release is closed. started is
// signalled once the call is in flight.
type gated struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gated {
	return &gated{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gated) wait() {
	g.started <- struct{}{}
	<-g.release
}

// events records observer callbacks
type events struct {
	lock sync.Mutex
	list []string
}

func (e *events) observe(event string, err error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err != nil {
		event += ":error"
	}
	e.list = append(e.list, event)
}

func (e *events) all() []string {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]string(nil), e.list...)
}
