package ports

import (
	"context"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
)

// Invite asks the identity provider to onboard a new staff member.
type Invite struct {
	Email      string
	Name       string
	Role       domain.Role
	RedirectTo string
}

type IdentityProvider interface {
	// VerifySession resolves a provider access token to the provider user.
	VerifySession(ctx context.Context, token string) (*domain.ProviderUser, error)
	// InviteUser returns the provider user id of the invited account.
	InviteUser(ctx context.Context, invite Invite) (string, error)
	DeleteUser(ctx context.Context, providerUserID string) error
}

type BookingNotifier interface {
	NotifyStaff(ctx context.Context, c domain.BookingConfirmation) error
	ConfirmGuest(ctx context.Context, c domain.BookingConfirmation) error
}

type InviteMailer interface {
	SendInvite(ctx context.Context, invite Invite, link string) error
}

// LoginThrottle counts failed legacy logins per client key.
type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
