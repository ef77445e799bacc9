package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
	"github.com/rs/zerolog"
)

// Grant is the result of a successful admin login
type Grant struct {
	Token     string
	Identity  users.Identity
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Authenticator exchanges credentials for an admin grant
type Authenticator struct {
	api    API
	logger zerolog.Logger
}

func NewAuthenticator(api API, logger zerolog.Logger) *Authenticator {
	return &Authenticator{api: api, logger: logger}
}

// Login calls POST /api/auth/login and accepts the result only for admins.
//
// Errors:
//   - errors.ErrInvalidCredentials when the API rejects the credentials (400, 401, 403, 422)
//   - errors.ErrForbidden when the account is valid but not an admin
//   - errors.ErrNetworkOrServer for transport failures, other statuses and
//     payloads without a token or role
func (a *Authenticator) Login(ctx context.Context, creds users.Credentials) (Grant, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return Grant{}, errors.Join(errors.ErrInvalidCredentials, errors.ErrInvalidRequest)
	}

	resp, err := a.api.Login(ctx, creds)
	if err != nil {
		status := adminapi.StatusCode(err)
		a.logger.Debug().Err(err).Int("status", status).Msg("login rejected by api")
		if isCredentialRejection(status) {
			return Grant{}, errors.Join(errors.ErrInvalidCredentials, err)
		}
		return Grant{}, errors.Join(errors.ErrNetworkOrServer, err)
	}

	if resp.Token == "" {
		return Grant{}, errors.Join(errors.ErrNetworkOrServer, fmt.Errorf("login response has no token"))
	}
	identity, ok := resp.User.Identity()
	if !ok {
		return Grant{}, errors.Join(errors.ErrNetworkOrServer, fmt.Errorf("login response has no user role"))
	}
	if !identity.IsAdmin() {
		a.logger.Info().Str("email", identity.Email).Str("role", string(identity.Role)).Msg("non-admin login refused")
		return Grant{}, errors.Join(errors.ErrForbidden, fmt.Errorf("role %q", identity.Role))
	}

	expiresAt, _ := TokenExpiry(resp.Token)
	return Grant{Token: resp.Token, Identity: identity, ExpiresAt: expiresAt}, nil
}
