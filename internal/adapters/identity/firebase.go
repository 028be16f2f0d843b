package identity

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/sony/gobreaker"
	"google.golang.org/api/option"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/config"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

// FirebaseAuthClient is the subset of *auth.Client the adapter uses.
type FirebaseAuthClient interface {
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
	EmailSignInLink(ctx context.Context, email string, settings *auth.ActionCodeSettings) (string, error)
	DeleteUser(ctx context.Context, uid string) error
}

var _ FirebaseAuthClient = (*auth.Client)(nil)

// FirebaseProvider backs staff sessions with Firebase Auth. Firebase has no
// invite email of its own, so the sign-in link goes out through mailer.
type FirebaseProvider struct {
	client FirebaseAuthClient
	mailer ports.InviteMailer
	cb     *gobreaker.CircuitBreaker
}

var _ ports.IdentityProvider = (*FirebaseProvider)(nil)

func NewFirebaseProvider(client FirebaseAuthClient, mailer ports.InviteMailer) *FirebaseProvider {
	return &FirebaseProvider{
		client: client,
		mailer: mailer,
		cb:     config.NewCircuitBreaker(config.BreakerIdentity),
	}
}

// NewFirebaseAuth builds the Firebase Auth client for projectID. credentials
// may be inline JSON, base64-encoded JSON or a file path; empty means
// application default credentials.
func NewFirebaseAuth(ctx context.Context, projectID, credentials string) (*auth.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, firebaseOptions(credentials)...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return client, nil
}

func firebaseOptions(cred string) []option.ClientOption {
	if cred == "" {
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}
	return []option.ClientOption{option.WithCredentialsFile(cred)}
}

// VerifySession accepts a Firebase session cookie or, failing that, an ID
// token sent as a bearer credential.
func (p *FirebaseProvider) VerifySession(ctx context.Context, token string) (*domain.ProviderUser, error) {
	verified, err := p.client.VerifySessionCookie(ctx, token)
	if err != nil {
		var idErr error
		verified, idErr = p.client.VerifyIDToken(ctx, token)
		if idErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSession, idErr)
		}
	}

	user := &domain.ProviderUser{ID: verified.UID}
	if email, ok := verified.Claims["email"].(string); ok {
		user.Email = email
	}
	return user, nil
}

func (p *FirebaseProvider) InviteUser(ctx context.Context, invite ports.Invite) (string, error) {
	if p.mailer == nil {
		return "", fmt.Errorf("invite %s: no mailer configured", invite.Email)
	}

	res, err := p.cb.Execute(func() (interface{}, error) {
		record, err := p.client.CreateUser(ctx, (&auth.UserToCreate{}).
			Email(invite.Email).
			DisplayName(invite.Name))
		if auth.IsEmailAlreadyExists(err) {
			record, err = p.client.GetUserByEmail(ctx, invite.Email)
		}
		if err != nil {
			return nil, err
		}
		if err := p.client.SetCustomUserClaims(ctx, record.UID, map[string]interface{}{"role": string(invite.Role)}); err != nil {
			return nil, err
		}

		link, err := p.client.EmailSignInLink(ctx, invite.Email, &auth.ActionCodeSettings{
			URL:             invite.RedirectTo,
			HandleCodeInApp: true,
		})
		if err != nil {
			return nil, err
		}
		return [2]string{record.UID, link}, nil
	})
	if err != nil {
		return "", fmt.Errorf("invite %s: %w", invite.Email, err)
	}

	out := res.([2]string)
	if err := p.mailer.SendInvite(ctx, invite, out[1]); err != nil {
		return "", fmt.Errorf("send invite link to %s: %w", invite.Email, err)
	}
	return out[0], nil
}

func (p *FirebaseProvider) DeleteUser(ctx context.Context, providerUserID string) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		err := p.client.DeleteUser(ctx, providerUserID)
		if auth.IsUserNotFound(err) {
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("delete provider user %s: %w", providerUserID, err)
	}
	return nil
}
