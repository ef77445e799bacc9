package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Session Routes
	RouteLogin       = "/login"
	RouteLogout      = "/logout"
	RouteSession     = "/session"
	RouteSessionWait = "/session/wait"

	// Back office pages
	RouteDashboard     = "/dashboard"
	RouteVerifications = "/verifications"
	RouteMatchRequests = "/match-requests"
	RouteMatches       = "/matches"
	RouteUsers         = "/users"

	// htmx partials
	RouteDashboardStats     = "/dashboard/stats"
	RouteVerificationsList  = "/verifications/list"
	RouteMatchRequestsList  = "/match-requests/list"
	RouteMatchesList        = "/matches/list"
	RouteUsersList          = "/users/list"
	RouteVerificationAction = "/verifications/{id}/{action}"
	RouteMatchRequestAction = "/match-requests/{id}/{action}"
	RouteMatchAction        = "/matches/{id}/{action}"
	RouteUserAction         = "/users/{id}/{action}"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
