package server

import (
	"context"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/config"
	"github.com/jrsteele09/go-matchmaking-backoffice/server/loginsession"
	"github.com/jrsteele09/go-matchmaking-backoffice/sessions"
	"github.com/rs/zerolog"
)

// sessionRegistry owns one sessions.Store per browser session. Stores are
// kept in a bounded LRU; an evicted store is rebuilt from its token slot on
// the next request.
type sessionRegistry struct {
	stores   *lru.Cache[string, *sessions.Store]
	newSlot  func(browserSessionID string) sessions.TokenSlot
	newStore func(browserSessionID string) *sessions.Store
	metrics  *Metrics
}

func newSessionRegistry(
	c config.Config,
	repo loginsession.Repo,
	authn sessions.Authenticator,
	resolver sessions.Resolver,
	logger zerolog.Logger,
	metrics *Metrics,
) (*sessionRegistry, error) {
	stores, err := lru.NewWithEvict(c.GetSessionCacheSize(), func(_ string, _ *sessions.Store) {
		metrics.LiveSessions.Dec()
	})
	if err != nil {
		return nil, err
	}

	maxAge := c.GetMaxSessionAge()
	newSlot := func(id string) sessions.TokenSlot {
		return loginsession.NewSlot(repo, id, maxAge)
	}
	return &sessionRegistry{
		stores:  stores,
		metrics: metrics,
		newSlot: newSlot,
		newStore: func(id string) *sessions.Store {
			return sessions.NewStore(
				newSlot(id),
				authn,
				resolver,
				sessions.WithLogger(logger.With().Str("browser_session", shortID(id)).Logger()),
				sessions.WithObserver(metrics.ObserveSession),
			)
		},
	}, nil
}

// Get returns the started store for the browser session, creating it on first use
func (r *sessionRegistry) Get(ctx context.Context, browserSessionID string) (*sessions.Store, error) {
	store, ok := r.stores.Get(browserSessionID)
	if !ok {
		candidate := r.newStore(browserSessionID)
		previous, found, _ := r.stores.PeekOrAdd(browserSessionID, candidate)
		if found {
			store = previous
		} else {
			store = candidate
			r.metrics.LiveSessions.Inc()
		}
	}
	return store, store.Start(ctx)
}

// Rotate moves the logged in store of oldID to a fresh browser session ID
// and returns it. oldID no longer reaches the session afterwards.
func (r *sessionRegistry) Rotate(ctx context.Context, oldID string, store *sessions.Store) (string, error) {
	newID := uuid.NewString()
	if err := store.Rebind(ctx, r.newSlot(newID)); err != nil {
		return "", err
	}
	r.Forget(oldID)
	r.stores.Add(newID, store)
	r.metrics.LiveSessions.Inc()
	return newID, nil
}

// Forget drops the store of a browser session ID. The eviction callback
// keeps the live session gauge in step.
func (r *sessionRegistry) Forget(browserSessionID string) {
	r.stores.Remove(browserSessionID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
