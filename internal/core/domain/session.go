package domain

// AuthKind tags which session scheme resolved a request.
type AuthKind string

const (
	AuthNone     AuthKind = ""
	AuthProvider AuthKind = "provider"
	AuthLegacy   AuthKind = "legacy"
)

// LegacyActor is recorded as the actor for work done under a legacy session,
// which has no StaffUser behind it.
const LegacyActor = "admin"

// AuthResult is the combined outcome of session resolution. Staff is only set
// for provider sessions.
type AuthResult struct {
	Kind  AuthKind
	Role  Role
	Staff *StaffUser
}

func Unauthenticated() AuthResult {
	return AuthResult{Kind: AuthNone}
}

func ProviderSession(staff *StaffUser) AuthResult {
	return AuthResult{Kind: AuthProvider, Role: staff.Role, Staff: staff}
}

func LegacySession() AuthResult {
	return AuthResult{Kind: AuthLegacy, Role: RoleAdmin}
}

func (a AuthResult) Authenticated() bool { return a.Kind != AuthNone }
func (a AuthResult) IsAdmin() bool       { return a.Authenticated() && a.Role == RoleAdmin }
func (a AuthResult) IsVolunteer() bool   { return a.Authenticated() && a.Role == RoleVolunteer }

// ActorID identifies who performed an action, for audit columns such as
// verified_by and invited_by.
func (a AuthResult) ActorID() string {
	switch a.Kind {
	case AuthProvider:
		if a.Staff != nil {
			return a.Staff.ID
		}
	case AuthLegacy:
		return LegacyActor
	}
	return ""
}

// StaffID returns the acting StaffUser id, if the session has one.
func (a AuthResult) StaffID() *string {
	if a.Kind == AuthProvider && a.Staff != nil {
		id := a.Staff.ID
		return &id
	}
	return nil
}

// ProviderUser is what the identity provider reports for a verified session.
type ProviderUser struct {
	ID    string
	Email string
}
