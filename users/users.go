package users

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// ID is an API identifier; the API may send it as a JSON string or number
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// RoleType is the role the matchmaking API assigns to an account
type RoleType string

const (
	RoleAdmin RoleType = "admin" // Only role allowed into the back office
	RoleUser  RoleType = "user"  // Regular member of the platform
)

// Credentials are submitted by the login form and forwarded to the API
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is the resolved user behind a bearer token. It is never persisted;
// it is re-derived from the token on every session start.
type Identity struct {
	ID        ID       `json:"id,omitempty"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Role      RoleType `json:"role"`
}

// IsAdmin returns true if the identity carries the admin role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// DisplayName builds "First Last", falling back to the email
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	fullName := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if fullName != "" {
		return fullName
	}
	return i.Email
}

// User is a platform account as listed by the user management screen
type User struct {
	ID               ID        `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	Role             RoleType  `json:"role,omitempty"`
	Active           bool      `json:"is_active"`
	IdentityVerified bool      `json:"is_verified"`
	DateJoined       time.Time `json:"created_at,omitempty"`
	LastLogin        time.Time `json:"last_login,omitempty"`
}

func (u *User) DisplayName() string {
	fullName := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if fullName != "" {
		return fullName
	}
	return u.Email
}

// Initials returns up to two upper-case initials for avatar placeholders
func (u *User) Initials() string {
	var b strings.Builder
	for _, part := range []string{u.FirstName, u.LastName} {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteString(strings.ToUpper(string([]rune(part)[0])))
		}
	}
	if b.Len() == 0 && u.Email != "" {
		b.WriteString(strings.ToUpper(string([]rune(u.Email)[0])))
	}
	return b.String()
}
