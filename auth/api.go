package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
)

// API is the subset of the matchmaking API the auth flows call
type API interface {
	Login(ctx context.Context, creds users.Credentials) (*adminapi.LoginResponse, error)
	Me(ctx context.Context, token string) (*adminapi.MeResponse, error)
}

var _ API = (*adminapi.Client)(nil)

// isCredentialRejection reports whether a login status means "bad email or password"
func isCredentialRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
