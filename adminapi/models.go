package adminapi

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/users"
)

// ReviewStatus is the review state of a verification, match request or match
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// Stats are the aggregate counters shown on the dashboard
type Stats struct {
	TotalUsers           int `json:"total_users"`
	ActiveUsers          int `json:"active_users"`
	VerifiedUsers        int `json:"verified_users"`
	NewUsersThisWeek     int `json:"new_users_this_week"`
	PendingVerifications int `json:"pending_verifications"`
	PendingMatchRequests int `json:"pending_match_requests"`
	PendingMatches       int `json:"pending_matches"`
	TotalMatches         int `json:"total_matches"`
}

// Verification is a profile verification submitted by a user
type Verification struct {
	ID              users.ID     `json:"id"`
	User            users.User   `json:"user"`
	DocumentType    string       `json:"document_type"`
	DocumentURL     string       `json:"document_url"`
	SelfieURL       string       `json:"selfie_url"`
	Status          ReviewStatus `json:"status"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time    `json:"submitted_at"`
}

// MatchRequest is a matchmaking request from one member towards another
type MatchRequest struct {
	ID        users.ID     `json:"id"`
	Requester users.User   `json:"requester"`
	Target    users.User   `json:"target"`
	Message   string       `json:"message,omitempty"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Match is a mutual like awaiting or past review
type Match struct {
	ID                 users.ID     `json:"id"`
	UserA              users.User   `json:"user_a"`
	UserB              users.User   `json:"user_b"`
	CompatibilityScore float64      `json:"compatibility_score"`
	Status             ReviewStatus `json:"status"`
	MatchedAt          time.Time    `json:"matched_at"`
}

// ListFilter narrows the review queues
type ListFilter struct {
	Status ReviewStatus
}

// UserFilter narrows the user management list
type UserFilter struct {
	Search   string
	Status   string // "active", "inactive", "unverified" or empty for all
	Page     int
	PageSize int
}

// UserPage is one page of the user list
type UserPage struct {
	Users    []users.User `json:"users"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// HasNext reports whether a further page exists
func (p UserPage) HasNext() bool {
	return p.PageSize > 0 && p.Page*p.PageSize < p.Total
}

func (p *UserPage) UnmarshalJSON(data []byte) error {
	type plain UserPage
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		var list []users.User
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*p = UserPage{Users: list, Total: len(list), Page: 1, PageSize: len(list)}
		return nil
	}
	var aux struct {
		plain
		Data []users.User `json:"data"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = UserPage(aux.plain)
	if p.Users == nil {
		p.Users = aux.Data
	}
	if p.Total == 0 {
		p.Total = len(p.Users)
	}
	return nil
}

// list accepts either a bare JSON array or an envelope {"data": [...]}
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("[")) {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var envelope struct {
		Data    []T `json:"data"`
		Items   []T `json:"items"`
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	switch {
	case envelope.Data != nil:
		*l = envelope.Data
	case envelope.Items != nil:
		*l = envelope.Items
	default:
		*l = envelope.Results
	}
	return nil
}

// RejectRequest is the optional body of every reject call
type RejectRequest struct {
	Reason *string `json:"reason,omitempty"`
}
