package identity_test

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/identity"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

type fakeFirebase struct {
	cookies map[string]*auth.Token
	idToks  map[string]*auth.Token

	created     []string
	claims      map[string]map[string]interface{}
	deleted     []string
	createError error
	linkError   error
}

func newFakeFirebase() *fakeFirebase {
	return &fakeFirebase{
		cookies: map[string]*auth.Token{},
		idToks:  map[string]*auth.Token{},
		claims:  map[string]map[string]interface{}{},
	}
}

func (f *fakeFirebase) VerifySessionCookie(_ context.Context, cookie string) (*auth.Token, error) {
	if tok, ok := f.cookies[cookie]; ok {
		return tok, nil
	}
	return nil, errors.New("session cookie has invalid signature")
}

func (f *fakeFirebase) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f.idToks[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("ID token has invalid signature")
}

func (f *fakeFirebase) CreateUser(_ context.Context, _ *auth.UserToCreate) (*auth.UserRecord, error) {
	if f.createError != nil {
		return nil, f.createError
	}
	uid := "fb-uid-1"
	f.created = append(f.created, uid)
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: uid}}, nil
}

func (f *fakeFirebase) GetUserByEmail(_ context.Context, _ string) (*auth.UserRecord, error) {
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: "fb-existing"}}, nil
}

func (f *fakeFirebase) SetCustomUserClaims(_ context.Context, uid string, claims map[string]interface{}) error {
	f.claims[uid] = claims
	return nil
}

func (f *fakeFirebase) EmailSignInLink(_ context.Context, email string, settings *auth.ActionCodeSettings) (string, error) {
	if f.linkError != nil {
		return "", f.linkError
	}
	return settings.URL + "?email=" + email + "&oobCode=abc", nil
}

func (f *fakeFirebase) DeleteUser(_ context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)
	return nil
}

type recordingMailer struct {
	invites []ports.Invite
	links   []string
	err     error
}

func (m *recordingMailer) SendInvite(_ context.Context, invite ports.Invite, link string) error {
	if m.err != nil {
		return m.err
	}
	m.invites = append(m.invites, invite)
	m.links = append(m.links, link)
	return nil
}

func TestFirebase_VerifySession(t *testing.T) {
	fake := newFakeFirebase()
	fake.cookies["cookie"] = &auth.Token{UID: "uid-cookie", Claims: map[string]interface{}{"email": "a@example.com"}}
	fake.idToks["idtoken"] = &auth.Token{UID: "uid-id", Claims: map[string]interface{}{}}
	p := identity.NewFirebaseProvider(fake, nil)

	tests := []struct {
		name      string
		token     string
		wantID    string
		wantEmail string
		wantErr   bool
	}{
		{name: "session cookie", token: "cookie", wantID: "uid-cookie", wantEmail: "a@example.com"},
		{name: "id token fallback", token: "idtoken", wantID: "uid-id"},
		{name: "unknown", token: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := p.VerifySession(context.Background(), tt.token)
			if tt.wantErr {
				if !errors.Is(err, identity.ErrInvalidSession) {
					t.Fatalf("expected ErrInvalidSession, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.ID != tt.wantID || user.Email != tt.wantEmail {
				t.Errorf("unexpected user %+v", user)
			}
		})
	}
}

func TestFirebase_InviteUser(t *testing.T) {
	// ARRANGE
	fake := newFakeFirebase()
	mailer := &recordingMailer{}
	p := identity.NewFirebaseProvider(fake, mailer)
	invite := ports.Invite{
		Email:      "maria@example.com",
		Name:       "Maria",
		Role:       domain.RoleVolunteer,
		RedirectTo: "https://mandiocahostel.com/admin/login",
	}

	// ACT
	uid, err := p.InviteUser(context.Background(), invite)

	// ASSERT
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "fb-uid-1" {
		t.Errorf("expected fb-uid-1, got %q", uid)
	}
	if fake.claims["fb-uid-1"]["role"] != "volunteer" {
		t.Errorf("role claim not set: %v", fake.claims)
	}
	if len(mailer.links) != 1 || mailer.links[0] != "https://mandiocahostel.com/admin/login?email=maria@example.com&oobCode=abc" {
		t.Errorf("unexpected links %v", mailer.links)
	}
	if mailer.invites[0].Name != "Maria" {
		t.Errorf("mailer should receive the invite, got %+v", mailer.invites[0])
	}
}

func TestFirebase_InviteUserFailures(t *testing.T) {
	invite := ports.Invite{Email: "x@example.com", Role: domain.RoleAdmin}

	t.Run("no mailer", func(t *testing.T) {
		fake := newFakeFirebase()
		p := identity.NewFirebaseProvider(fake, nil)
		if _, err := p.InviteUser(context.Background(), invite); err == nil {
			t.Fatal("expected error")
		}
		if len(fake.created) != 0 {
			t.Error("no user should be created without a mailer")
		}
	})

	t.Run("link failure", func(t *testing.T) {
		fake := newFakeFirebase()
		fake.linkError = errors.New("quota exceeded")
		mailer := &recordingMailer{}
		p := identity.NewFirebaseProvider(fake, mailer)
		if _, err := p.InviteUser(context.Background(), invite); err == nil {
			t.Fatal("expected error")
		}
		if len(mailer.links) != 0 {
			t.Error("nothing should be mailed")
		}
	})

	t.Run("mail failure", func(t *testing.T) {
		mailer := &recordingMailer{err: errors.New("resend down")}
		p := identity.NewFirebaseProvider(newFakeFirebase(), mailer)
		if _, err := p.InviteUser(context.Background(), invite); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestFirebase_DeleteUser(t *testing.T) {
	fake := newFakeFirebase()
	p := identity.NewFirebaseProvider(fake, nil)

	if err := p.DeleteUser(context.Background(), "fb-uid-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "fb-uid-9" {
		t.Errorf("unexpected deletes %v", fake.deleted)
	}
}
