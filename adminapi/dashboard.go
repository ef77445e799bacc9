package adminapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-matchmaking-backoffice/internal/utils"
	"github.com/jrsteele09/go-matchmaking-backoffice/users"
)

const (
	PathStats         = "/api/admin/stats"
	PathVerifications = "/api/admin/verifications"
	PathMatchRequests = "/api/admin/match-requests"
	PathMatches       = "/api/admin/matches"
	PathUsers         = "/api/admin/users"
)

func (f ListFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	return q
}

func (f UserFilter) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return q
}

func itemPath(collection string, id users.ID, action string) string {
	return collection + "/" + url.PathEscape(id.String()) + "/" + action
}

func rejectBody(reason string) RejectRequest {
	return RejectRequest{Reason: utils.TrimmedPtr(reason)}
}

// Stats fetches the dashboard counters
func (a *Authorized) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := a.get(ctx, PathStats, nil, &stats)
	return stats, err
}

// Verifications lists profile verifications
func (a *Authorized) Verifications(ctx context.Context, filter ListFilter) ([]Verification, error) {
	var items list[Verification]
	err := a.get(ctx, PathVerifications, filter.query(), &items)
	return items, err
}

func (a *Authorized) ApproveVerification(ctx context.Context, id users.ID) error {
	return a.send(ctx, http.MethodPost, itemPath(PathVerifications, id, "approve"), struct{}{}, nil)
}

func (a *Authorized) RejectVerification(ctx context.Context, id users.ID, reason string) error {
	return a.send(ctx, http.MethodPost, itemPath(PathVerifications, id, "reject"), rejectBody(reason), nil)
}

// MatchRequests lists matchmaking requests
func (a *Authorized) MatchRequests(ctx context.Context, filter ListFilter) ([]MatchRequest, error) {
	var items list[MatchRequest]
	err := a.get(ctx, PathMatchRequests, filter.query(), &items)
	return items, err
}

func (a *Authorized) ValidateMatchRequest(ctx context.Context, id users.ID) error {
	return a.send(ctx, http.MethodPost, itemPath(PathMatchRequests, id, "validate"), struct{}{}, nil)
}

func (a *Authorized) RejectMatchRequest(ctx context.Context, id users.ID, reason string) error {
	return a.send(ctx, http.MethodPost, itemPath(PathMatchRequests, id, "reject"), rejectBody(reason), nil)
}

// Matches lists mutual likes
func (a *Authorized) Matches(ctx context.Context, filter ListFilter) ([]Match, error) {
	var items list[Match]
	err := a.get(ctx, PathMatches, filter.query(), &items)
	return items, err
}

func (a *Authorized) ValidateMatch(ctx context.Context, id users.ID) error {
	return a.send(ctx, http.MethodPost, itemPath(PathMatches, id, "validate"), struct{}{}, nil)
}

func (a *Authorized) RejectMatch(ctx context.Context, id users.ID, reason string) error {
	return a.send(ctx, http.MethodPost, itemPath(PathMatches, id, "reject"), rejectBody(reason), nil)
}

// Users lists platform accounts
func (a *Authorized) Users(ctx context.Context, filter UserFilter) (UserPage, error) {
	var page UserPage
	err := a.get(ctx, PathUsers, filter.query(), &page)
	if err == nil && page.Page == 0 {
		page.Page = max(filter.Page, 1)
	}
	return page, err
}

// ToggleUserActive flips the account's active flag and returns the updated user
func (a *Authorized) ToggleUserActive(ctx context.Context, id users.ID) (users.User, error) {
	var resp struct {
		User *users.User `json:"user"`
	}
	if err := a.send(ctx, http.MethodPatch, itemPath(PathUsers, id, "toggle-active"), struct{}{}, &resp); err != nil {
		return users.User{}, err
	}
	return utils.Value(resp.User), nil
}

// VerifyUserIdentity marks the account's identity as verified
func (a *Authorized) VerifyUserIdentity(ctx context.Context, id users.ID) (users.User, error) {
	var resp struct {
		User *users.User `json:"user"`
	}
	if err := a.send(ctx, http.MethodPatch, itemPath(PathUsers, id, "verify"), struct{}{}, &resp); err != nil {
		return users.User{}, err
	}
	return utils.Value(resp.User), nil
}
