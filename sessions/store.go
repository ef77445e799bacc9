package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/auth"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
	"github.com/rs/zerolog"
)

type Authenticator interface {
	Login(ctx context.Context, creds users.Credentials) (auth.Grant, error)
}

type Resolver interface {
	Resolve(ctx context.Context, token string) (users.Identity, error)
}

var (
	_ Authenticator = (*auth.Authenticator)(nil)
	_ Resolver      = (*auth.Resolver)(nil)
)

// Store owns the token, identity and resolution state of one browser
// session. All methods are safe for concurrent use.
type Store struct {
	slot     TokenSlot
	authn    Authenticator
	resolver Resolver
	logger   zerolog.Logger
	observer Observer

	// writeMu serialises transitions, including their slot I/O
	writeMu   sync.Mutex
	started   bool
	loginSeq  uint64
	expiresAt time.Time

	mu       sync.RWMutex
	state    ResolutionState
	token    string
	identity *users.Identity
	epoch    uint64
	changed  chan struct{}
}

// Option configures a Store
type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Store) {
		s.observer = observer
	}
}

// NewStore creates an empty store. Call Start to load the token slot.
func NewStore(slot TokenSlot, authn Authenticator, resolver Resolver, options ...Option) *Store {
	s := &Store{
		slot:     slot,
		authn:    authn,
		resolver: resolver,
		logger:   zerolog.Nop(),
		observer: func(Event, error) {},
		state:    StateAbsent,
		changed:  make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Start reads the token slot once. A stored token moves the store to
// pending and starts its resolution in the background. Later calls are
// no-ops; concurrent callers block until the first one has loaded the slot.
func (s *Store) Start(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.started {
		return nil
	}
	s.started = true

	token, err := s.slot.Load(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrSlotEmpty) {
			return nil
		}
		s.logger.Error().Err(err).Msg("token slot unreadable, starting logged out")
		return errors.Join(errors.ErrSessionStorage, err)
	}
	if token == "" {
		return nil
	}

	epoch := s.transition(StatePending, token, nil)
	go s.resolve(context.WithoutCancel(ctx), token, epoch)
	return nil
}

func (s *Store) resolve(ctx context.Context, token string, epoch uint64) {
	identity, err := s.resolver.Resolve(ctx, token)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.current(epoch, token) {
		s.logger.Debug().Msg("stale resolution result discarded")
		s.observer(EventDiscarded, nil)
		return
	}

	if err == nil && !identity.IsAdmin() {
		err = errors.ErrNotAdmin
	}
	if err != nil {
		s.logger.Info().Err(err).Msg("stored token rejected, clearing session")
		if clearErr := s.slot.Clear(ctx); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("failed to clear token slot")
		}
		s.transition(StateAbsent, "", nil)
		s.observer(EventResolution, err)
		return
	}

	s.setIdentity(&identity)
	s.observer(EventResolution, nil)
}

// Login authenticates against the API. Only an admin grant is committed:
// the token is saved to the slot and the store becomes resolved. On any
// error the state is left as it was. errors.ErrSuperseded is returned when a
// later login or a logout happened while the call was in flight. A stored
// token resolving or being rejected meanwhile does not supersede the login.
func (s *Store) Login(ctx context.Context, creds users.Credentials) (users.Identity, error) {
	s.writeMu.Lock()
	s.loginSeq++
	ticket := s.loginSeq
	s.writeMu.Unlock()

	grant, err := s.authn.Login(ctx, creds)
	if err == nil && !grant.Identity.IsAdmin() {
		err = errors.ErrForbidden
	}
	if err != nil {
		s.observer(EventLogin, err)
		return users.Identity{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if ticket != s.loginSeq {
		s.logger.Debug().Msg("superseded login result discarded")
		s.observer(EventDiscarded, nil)
		return users.Identity{}, errors.ErrSuperseded
	}

	if err := s.slot.Save(ctx, grant.Token, grant.ExpiresAt); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist token")
		err = errors.Join(errors.ErrSessionStorage, err)
		s.observer(EventLogin, err)
		return users.Identity{}, err
	}

	s.expiresAt = grant.ExpiresAt
	identity := grant.Identity
	s.transition(StateResolved, grant.Token, &identity)
	s.observer(EventLogin, nil)
	return identity, nil
}

// Rebind moves a resolved session to slot and clears the old one. The
// store keeps its state; only where the token lives changes. It returns
// errors.ErrSuperseded when the session is no longer resolved.
func (s *Store) Rebind(ctx context.Context, slot TokenSlot) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap := s.Snapshot()
	if snap.State != StateResolved {
		return errors.ErrSuperseded
	}
	if err := slot.Save(ctx, snap.Token, s.expiresAt); err != nil {
		s.logger.Error().Err(err).Msg("failed to move token to the new slot")
		return errors.Join(errors.ErrSessionStorage, err)
	}
	if err := s.slot.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear previous token slot")
	}
	s.slot = slot
	return nil
}

// Logout clears the slot and the in-memory session. It always succeeds and
// invalidates any login or resolution still in flight.
func (s *Store) Logout(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.loginSeq++
	s.expiresAt = time.Time{}
	if err := s.slot.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear token slot on logout")
	}
	s.transition(StateAbsent, "", nil)
	s.observer(EventLogout, nil)
}

// Snapshot reads the current state without side effects
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Contract is shorthand for Snapshot().Contract()
func (s *Store) Contract() Contract {
	return s.Snapshot().Contract()
}

// Wait blocks until the store is no longer pending or ctx is done. It
// returns the latest snapshot in both cases.
func (s *Store) Wait(ctx context.Context) (Snapshot, error) {
	for {
		s.mu.RLock()
		snap := s.snapshotLocked()
		changed := s.changed
		s.mu.RUnlock()

		if snap.State != StatePending {
			return snap, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Token: s.token}
	if s.identity != nil {
		identity := *s.identity
		snap.Identity = &identity
	}
	return snap
}

// current reports whether a result started at epoch for token is still relevant
func (s *Store) current(epoch uint64, token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch == epoch && s.token == token && s.state == StatePending
}

// transition replaces the whole session, bumps the epoch and wakes waiters.
// Callers hold writeMu.
func (s *Store) transition(state ResolutionState, token string, identity *users.Identity) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.token = token
	s.identity = identity
	s.epoch++
	s.notifyLocked()
	return s.epoch
}

// setIdentity completes a pending resolution without touching the epoch
func (s *Store) setIdentity(identity *users.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateResolved
	s.identity = identity
	s.notifyLocked()
}

func (s *Store) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
