package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi"
	"github.com/jrsteele09/go-matchmaking-backoffice/resource"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
)

const usersPageSize = 20

// pageData is what every page and partial template receives
type pageData struct {
	AppName    string
	Title      string
	ActivePage string
	User       *users.Identity // Set only on guarded pages
	CSRFToken  string
	Notice     *notice
	View       any
}

// notice is a toast rendered into #notifications
type notice struct {
	Kind    string // "success" or "error"
	Message string
}

// DashboardView holds the dashboard counters
type DashboardView struct {
	Stats resource.State[adminapi.Stats]
}

// ReviewQueueView is one moderation queue filtered by status
type ReviewQueueView[T any] struct {
	Status string // Filter value echoed back into the form, "all" for no filter
	Items  resource.State[[]T]
}

// UsersView is one page of the user management list
type UsersView struct {
	Filter adminapi.UserFilter
	Page   resource.State[adminapi.UserPage]
}

func (v UsersView) PrevPage() int { return max(v.Filter.Page-1, 1) }
func (v UsersView) NextPage() int { return v.Filter.Page + 1 }

func (s *Server) basePage(r *http.Request, title, activePage string) pageData {
	return pageData{
		AppName:    s.config.GetAppName(),
		Title:      title,
		ActivePage: activePage,
		User:       snapshotFrom(r.Context()).Identity,
		CSRFToken:  csrfFrom(r.Context()),
	}
}

// authorized returns an API client carrying the guarded request's token
func (s *Server) authorized(r *http.Request) *adminapi.Authorized {
	return s.api.WithToken(r.Context(), snapshotFrom(r.Context()).Token)
}

// PAGES

func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.basePage(r, "Tableau de bord", "dashboard")
		data.View = s.dashboardView(r)
		s.renderPage(w, http.StatusOK, "dashboard.html", data)
	}
}

func (s *Server) VerificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.basePage(r, "Vérifications", "verifications")
		data.View = s.verificationsView(r)
		s.renderPage(w, http.StatusOK, "verifications.html", data)
	}
}

func (s *Server) MatchRequestsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.basePage(r, "Demandes de mise en relation", "match_requests")
		data.View = s.matchRequestsView(r)
		s.renderPage(w, http.StatusOK, "match_requests.html", data)
	}
}

func (s *Server) MatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.basePage(r, "Matchs", "matches")
		data.View = s.matchesView(r)
		s.renderPage(w, http.StatusOK, "matches.html", data)
	}
}

func (s *Server) UsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.basePage(r, "Utilisateurs", "users")
		data.View = s.usersView(r)
		s.renderPage(w, http.StatusOK, "users.html", data)
	}
}

// PARTIALS

func (s *Server) DashboardStatsPartial() http.HandlerFunc {
	return s.partial("stats", s.dashboardView)
}

func (s *Server) VerificationsListPartial() http.HandlerFunc {
	return s.partial("verifications_list", s.verificationsView)
}

func (s *Server) MatchRequestsListPartial() http.HandlerFunc {
	return s.partial("match_requests_list", s.matchRequestsView)
}

func (s *Server) MatchesListPartial() http.HandlerFunc {
	return s.partial("matches_list", s.matchesView)
}

func (s *Server) UsersListPartial() http.HandlerFunc {
	return s.partial("users_list", s.usersView)
}

func (s *Server) partial(name string, view func(*http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.basePage(r, "", "")
		data.View = view(r)
		s.renderPartial(w, http.StatusOK, name, data)
	}
}

// ACTIONS

// reviewActions binds the approve and reject calls of one moderation queue
type reviewActions struct {
	kind    string // Metric label and message prefix
	page    string
	list    string
	approve string // Path action meaning approval; "reject" is always the other
	onOK    func(*adminapi.Authorized, context.Context, users.ID) error
	onNo    func(*adminapi.Authorized, context.Context, users.ID, string) error
	view    func(*http.Request) any
}

func (s *Server) VerificationActionHandler() http.HandlerFunc {
	return s.reviewAction(reviewActions{
		kind:    "verification",
		page:    RouteVerifications,
		list:    "verifications_list",
		approve: "approve",
		onOK:    (*adminapi.Authorized).ApproveVerification,
		onNo:    (*adminapi.Authorized).RejectVerification,
		view:    s.verificationsView,
	})
}

func (s *Server) MatchRequestActionHandler() http.HandlerFunc {
	return s.reviewAction(reviewActions{
		kind:    "match_request",
		page:    RouteMatchRequests,
		list:    "match_requests_list",
		approve: "validate",
		onOK:    (*adminapi.Authorized).ValidateMatchRequest,
		onNo:    (*adminapi.Authorized).RejectMatchRequest,
		view:    s.matchRequestsView,
	})
}

func (s *Server) MatchActionHandler() http.HandlerFunc {
	return s.reviewAction(reviewActions{
		kind:    "match",
		page:    RouteMatches,
		list:    "matches_list",
		approve: "validate",
		onOK:    (*adminapi.Authorized).ValidateMatch,
		onNo:    (*adminapi.Authorized).RejectMatch,
		view:    s.matchesView,
	})
}

func (s *Server) reviewAction(a reviewActions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := users.ID(r.PathValue("id"))
		action := r.PathValue("action")

		var run func(context.Context) error
		switch action {
		case a.approve:
			run = func(ctx context.Context) error { return a.onOK(s.authorized(r), ctx, id) }
		case "reject":
			run = func(ctx context.Context) error { return a.onNo(s.authorized(r), ctx, id, r.FormValue("reason")) }
		default:
			http.NotFound(w, r)
			return
		}
		s.finishAction(w, r, a.kind+"."+action, resource.Run(r.Context(), run).Err, a.page, a.list, a.view)
	}
}

func (s *Server) UserActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := users.ID(r.PathValue("id"))
		action := r.PathValue("action")

		var run func(context.Context) (users.User, error)
		switch action {
		case "toggle-active":
			run = func(ctx context.Context) (users.User, error) { return s.authorized(r).ToggleUserActive(ctx, id) }
		case "verify":
			run = func(ctx context.Context) (users.User, error) { return s.authorized(r).VerifyUserIdentity(ctx, id) }
		default:
			http.NotFound(w, r)
			return
		}
		s.finishAction(w, r, "user."+action, resource.Fetch(r.Context(), run).Err, RouteUsers, "users_list", s.usersView)
	}
}

// finishAction records the outcome and answers the htmx request: on success
// the refreshed list plus a success toast, on failure only an error toast.
// The session is left untouched whatever the API answered.
func (s *Server) finishAction(w http.ResponseWriter, r *http.Request, key string, err error, page, list string, view func(*http.Request) any) {
	s.metrics.ObserveAction(key, err)

	if !isHTMXRequest(r) {
		if err != nil {
			s.logger.Warn().Err(err).Str("action", key).Msg("dashboard action failed")
		}
		http.Redirect(w, r, page, http.StatusSeeOther)
		return
	}

	data := s.basePage(r, "", "")
	if err != nil {
		s.logger.Warn().Err(err).Str("action", key).Str("id", r.PathValue("id")).Msg("dashboard action failed")
		data.Notice = &notice{Kind: "error", Message: actionErrorMessage(err)}
		w.Header().Set("HX-Reswap", "none")
		s.renderPartial(w, http.StatusOK, "notification", data)
		return
	}

	s.logger.Info().Str("action", key).Str("id", r.PathValue("id")).Msg("dashboard action applied")
	data.Notice = &notice{Kind: "success", Message: actionMessages[key]}
	data.View = view(r)
	s.renderPartial(w, http.StatusOK, list, data)
}

// VIEWS

func (s *Server) dashboardView(r *http.Request) any {
	return DashboardView{Stats: resource.Fetch(r.Context(), s.authorized(r).Stats)}
}

func (s *Server) verificationsView(r *http.Request) any {
	status, filter := reviewFilter(r)
	return ReviewQueueView[adminapi.Verification]{
		Status: status,
		Items: resource.Fetch(r.Context(), func(ctx context.Context) ([]adminapi.Verification, error) {
			return s.authorized(r).Verifications(ctx, filter)
		}),
	}
}

func (s *Server) matchRequestsView(r *http.Request) any {
	status, filter := reviewFilter(r)
	return ReviewQueueView[adminapi.MatchRequest]{
		Status: status,
		Items: resource.Fetch(r.Context(), func(ctx context.Context) ([]adminapi.MatchRequest, error) {
			return s.authorized(r).MatchRequests(ctx, filter)
		}),
	}
}

func (s *Server) matchesView(r *http.Request) any {
	status, filter := reviewFilter(r)
	return ReviewQueueView[adminapi.Match]{
		Status: status,
		Items: resource.Fetch(r.Context(), func(ctx context.Context) ([]adminapi.Match, error) {
			return s.authorized(r).Matches(ctx, filter)
		}),
	}
}

func (s *Server) usersView(r *http.Request) any {
	filter := userFilter(r)
	return UsersView{
		Filter: filter,
		Page: resource.Fetch(r.Context(), func(ctx context.Context) (adminapi.UserPage, error) {
			return s.authorized(r).Users(ctx, filter)
		}),
	}
}

// reviewFilter reads ?status=, defaulting to the pending queue
func reviewFilter(r *http.Request) (string, adminapi.ListFilter) {
	switch status := adminapi.ReviewStatus(r.FormValue("status")); status {
	case adminapi.StatusApproved, adminapi.StatusRejected:
		return string(status), adminapi.ListFilter{Status: status}
	case "all":
		return "all", adminapi.ListFilter{}
	}
	return string(adminapi.StatusPending), adminapi.ListFilter{Status: adminapi.StatusPending}
}

func userFilter(r *http.Request) adminapi.UserFilter {
	filter := adminapi.UserFilter{
		Search:   strings.TrimSpace(r.FormValue("search")),
		Page:     1,
		PageSize: usersPageSize,
	}
	switch status := r.FormValue("user_status"); status {
	case "active", "inactive", "unverified":
		filter.Status = status
	}
	if page, err := strconv.Atoi(r.FormValue("page")); err == nil && page > 1 {
		filter.Page = page
	}
	return filter
}
