package domain

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleVolunteer Role = "volunteer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleVolunteer
}

// StaffUser is a named back-office account. AuthProviderID links it to an
// identity-provider account once one exists.
type StaffUser struct {
	ID             string     `json:"id"`
	AuthProviderID *string    `json:"auth_user_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           Role       `json:"role"`
	Active         bool       `json:"active"`
	InvitedBy      *string    `json:"invited_by"`
	InvitedAt      *time.Time `json:"invited_at"`
	LastLoginAt    *time.Time `json:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// StaffUserPatch carries the fields of a partial update. Nil means untouched.
type StaffUserPatch struct {
	Name           *string
	Email          *string
	Role           *Role
	Active         *bool
	AuthProviderID *string
}

func (p StaffUserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.Active == nil && p.AuthProviderID == nil
}

// NewStaffUser is the admin invitation form.
type NewStaffUser struct {
	Email      string
	Name       string
	Role       Role
	SendInvite bool
}
