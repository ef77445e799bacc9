package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// SESSION
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare(s.WithBrowserSession)...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.WithBrowserSession, s.RequireCSRF)...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.WithBrowserSession, s.RequireCSRF)...))
	s.RegisterRouteHandler("GET "+RouteSessionWait, ChainMiddleware(s.SessionWaitHandler(), s.HTMLMiddleWare(s.WithBrowserSession)...))
	s.RegisterRouteHandler("GET "+RouteSession, ChainMiddleware(s.SessionContractHandler(), s.APIMiddleware(s.WithBrowserSession)...))
	s.RegisterRouteHandler("OPTIONS "+RouteSession, ChainMiddleware(s.SessionContractHandler(), s.APIMiddleware()...))

	// Back office pages (admin only)
	s.RegisterRouteHandler("GET "+RouteDashboard, s.protected(s.DashboardHandler()))
	s.RegisterRouteHandler("GET "+RouteVerifications, s.protected(s.VerificationsHandler()))
	s.RegisterRouteHandler("GET "+RouteMatchRequests, s.protected(s.MatchRequestsHandler()))
	s.RegisterRouteHandler("GET "+RouteMatches, s.protected(s.MatchesHandler()))
	s.RegisterRouteHandler("GET "+RouteUsers, s.protected(s.UsersHandler()))

	// Partials and actions
	s.RegisterRouteHandler("GET "+RouteDashboardStats, s.protected(s.DashboardStatsPartial()))
	s.RegisterRouteHandler("GET "+RouteVerificationsList, s.protected(s.VerificationsListPartial()))
	s.RegisterRouteHandler("GET "+RouteMatchRequestsList, s.protected(s.MatchRequestsListPartial()))
	s.RegisterRouteHandler("GET "+RouteMatchesList, s.protected(s.MatchesListPartial()))
	s.RegisterRouteHandler("GET "+RouteUsersList, s.protected(s.UsersListPartial()))
	s.RegisterRouteHandler("POST "+RouteVerificationAction, s.protected(s.VerificationActionHandler(), s.RequireCSRF))
	s.RegisterRouteHandler("POST "+RouteMatchRequestAction, s.protected(s.MatchRequestActionHandler(), s.RequireCSRF))
	s.RegisterRouteHandler("POST "+RouteMatchAction, s.protected(s.MatchActionHandler(), s.RequireCSRF))
	s.RegisterRouteHandler("POST "+RouteUserAction, s.protected(s.UserActionHandler(), s.RequireCSRF))

	// Operations
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

// protected guards an admin page: browser session, then the route guard, then extra middleware
func (s *Server) protected(handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chain := append([]func(http.HandlerFunc) http.HandlerFunc{s.WithBrowserSession, s.RequireAdmin}, mw...)
	return ChainMiddleware(handler, s.HTMLMiddleWare(chain...)...)
}

// IndexHandler sends visitors to the dashboard; the guard decides from there
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
