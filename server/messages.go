package server

import (
	"net/http"

	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
)

// Messages shown to administrators, in the platform's language
const (
	msgInvalidCredentials = "Email ou mot de passe incorrect"
	msgForbidden          = "Accès réservé aux administrateurs"
	msgNetworkOrServer    = "Erreur réseau ou serveur, veuillez réessayer"
	msgNotFound           = "Élément introuvable, la liste a peut-être changé"
	msgInvalidForm        = "Requête invalide, veuillez recharger la page"
)

// loginErrorMessage maps a Store.Login error to the inline form message
func loginErrorMessage(err error) (string, int) {
	switch {
	case errors.Is(err, errors.ErrInvalidCredentials):
		return msgInvalidCredentials, http.StatusUnauthorized
	case errors.Is(err, errors.ErrForbidden):
		return msgForbidden, http.StatusForbidden
	}
	// Network, server and session storage failures all read the same
	return msgNetworkOrServer, http.StatusBadGateway
}

// actionErrorMessage maps a dashboard call failure to a notification
func actionErrorMessage(err error) string {
	switch adminapi.StatusCode(err) {
	case http.StatusNotFound:
		return msgNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return msgForbidden
	}
	return msgNetworkOrServer
}

var actionMessages = map[string]string{
	"verification.approve":   "Vérification approuvée",
	"verification.reject":    "Vérification rejetée",
	"match_request.validate": "Demande de mise en relation validée",
	"match_request.reject":   "Demande de mise en relation rejetée",
	"match.validate":         "Match validé",
	"match.reject":           "Match rejeté",
	"user.toggle-active":     "Statut du compte mis à jour",
	"user.verify":            "Identité vérifiée",
}
