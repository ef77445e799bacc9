package auth

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
	"github.com/rs/zerolog"
)

// Resolver turns a stored token back into an identity. It performs exactly
// one GET /api/auth/me per call and never retries.
type Resolver struct {
	api    API
	logger zerolog.Logger
}

func NewResolver(api API, logger zerolog.Logger) *Resolver {
	return &Resolver{api: api, logger: logger}
}

// Resolve returns errors.ErrNotAdmin if the token belongs to a non-admin and
// errors.ErrResolutionInvalid for every other failure.
func (r *Resolver) Resolve(ctx context.Context, token string) (users.Identity, error) {
	if token == "" {
		return users.Identity{}, errors.ErrResolutionInvalid
	}

	resp, err := r.api.Me(ctx, token)
	if err != nil {
		r.logger.Debug().Err(err).Msg("token resolution failed")
		return users.Identity{}, errors.Join(errors.ErrResolutionInvalid, err)
	}

	identity, ok := resp.User.Identity()
	if !ok {
		return users.Identity{}, errors.Join(errors.ErrResolutionInvalid, fmt.Errorf("me response has no user role"))
	}
	if !identity.IsAdmin() {
		return users.Identity{}, errors.Join(errors.ErrNotAdmin, fmt.Errorf("role %q", identity.Role))
	}
	return identity, nil
}
