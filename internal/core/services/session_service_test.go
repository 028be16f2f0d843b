package services_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/services"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/test/mocks"
)

const providerCookie = "sb-access-token"

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestLegacySessions_IssueAndVerify(t *testing.T) {
	clock := mocks.NewClock(epoch)
	sessions := services.NewLegacySessions(clock.Now)

	token, err := sessions.Issue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parts := strings.Split(token, "_")
	if len(parts) != 2 || len(parts[1]) != 16 {
		t.Fatalf("unexpected token shape %q", token)
	}

	if !sessions.Verify(token) {
		t.Error("fresh token should verify")
	}

	clock.Advance(24 * time.Hour)
	if !sessions.Verify(token) {
		t.Error("token exactly 24h old should still verify")
	}

	clock.Advance(time.Millisecond)
	if sessions.Verify(token) {
		t.Error("token older than 24h should be rejected")
	}
}

func TestLegacySessions_RejectsMalformed(t *testing.T) {
	sessions := services.NewLegacySessions(mocks.NewClock(epoch).Now)

	for _, token := range []string{"", "abc", "zz_0011", "18f_aa_bb", "_"} {
		if sessions.Verify(token) {
			t.Errorf("token %q should be rejected", token)
		}
	}
}

func TestLegacySessions_RejectsFutureIssued(t *testing.T) {
	// ARRANGE
	clock := mocks.NewClock(epoch)
	sessions := services.NewLegacySessions(clock.Now)
	stamp := func(at time.Time) string {
		return strconv.FormatInt(at.UnixMilli(), 16) + "_00112233aabbccdd"
	}
	slightlyAhead := stamp(epoch.Add(30 * time.Second))
	yearAhead := stamp(epoch.AddDate(1, 0, 0))

	// ACT + ASSERT
	if !sessions.Verify(slightlyAhead) {
		t.Error("token within clock skew should verify")
	}
	if sessions.Verify(yearAhead) {
		t.Error("token issued a year ahead should be rejected")
	}
	clock.Advance(200 * 24 * time.Hour)
	if sessions.Verify(yearAhead) {
		t.Error("token still dated in the future should be rejected")
	}
}

func TestLegacyAuthService_Login(t *testing.T) {
	sessions := services.NewLegacySessions(mocks.NewClock(epoch).Now)

	tests := []struct {
		name     string
		password string
		hash     string
		user     string
		pass     string
		wantErr  error
	}{
		{name: "plain password match", password: "secret", user: "acoidnam", pass: "secret"},
		{name: "wrong password", password: "secret", user: "acoidnam", pass: "nope", wantErr: domain.ErrInvalidCredentials},
		{name: "wrong username", password: "secret", user: "root", pass: "secret", wantErr: domain.ErrInvalidCredentials},
		{name: "no password configured", user: "acoidnam", pass: "", wantErr: domain.ErrInvalidCredentials},
		{name: "bcrypt hash match", hash: mustHash(t, "hashed-secret"), user: "acoidnam", pass: "hashed-secret"},
		{name: "bcrypt preferred over plain", password: "plain", hash: mustHash(t, "hashed-secret"), user: "acoidnam", pass: "plain", wantErr: domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := services.NewLegacyAuthService("acoidnam", tt.password, tt.hash, sessions, nil, logging.Discard())

			token, err := svc.Login(context.Background(), "10.0.0.1", tt.user, tt.pass)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !sessions.Verify(token) {
				t.Error("issued token should verify")
			}
		})
	}
}

func TestLegacyAuthService_Throttle(t *testing.T) {
	// ARRANGE
	throttle := mocks.NewMockLoginThrottle(3)
	sessions := services.NewLegacySessions(mocks.NewClock(epoch).Now)
	svc := services.NewLegacyAuthService("acoidnam", "secret", "", sessions, throttle, logging.Discard())
	ctx := context.Background()

	// ACT
	for i := 0; i < 3; i++ {
		if _, err := svc.Login(ctx, "1.2.3.4", "acoidnam", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i+1, err)
		}
	}
	_, err := svc.Login(ctx, "1.2.3.4", "acoidnam", "secret")

	// ASSERT
	if !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected too many attempts, got %v", err)
	}
	if _, err := svc.Login(ctx, "5.6.7.8", "acoidnam", "secret"); err != nil {
		t.Fatalf("other client should not be throttled: %v", err)
	}
	if len(throttle.ResetCalls) != 1 || throttle.ResetCalls[0] != "5.6.7.8" {
		t.Errorf("expected throttle reset for 5.6.7.8, got %v", throttle.ResetCalls)
	}
}

func TestLegacyAuthService_ThrottleUnavailable(t *testing.T) {
	throttle := mocks.NewMockLoginThrottle(3)
	throttle.AllowError = errors.New("redis down")
	sessions := services.NewLegacySessions(mocks.NewClock(epoch).Now)
	svc := services.NewLegacyAuthService("acoidnam", "secret", "", sessions, throttle, logging.Discard())

	if _, err := svc.Login(context.Background(), "1.2.3.4", "acoidnam", "secret"); err != nil {
		t.Fatalf("login should proceed when the throttle store is down: %v", err)
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

type sessionFixture struct {
	clock    *mocks.Clock
	provider *mocks.MockIdentityProvider
	staff    *mocks.MockStaffRepository
	legacy   *services.LegacySessions
	resolver *services.SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		clock:    mocks.NewClock(epoch),
		provider: mocks.NewMockIdentityProvider(),
		staff:    mocks.NewMockStaffRepository(),
	}
	f.legacy = services.NewLegacySessions(f.clock.Now)
	f.resolver = services.NewSessionService(f.provider, f.staff, f.legacy, providerCookie, logging.Discard())
	return f
}

func (f *sessionFixture) legacyCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := f.legacy.Issue()
	if err != nil {
		t.Fatalf("issue legacy token: %v", err)
	}
	return &http.Cookie{Name: services.LegacyCookieName, Value: token}
}

func TestSessionService_ProviderSession(t *testing.T) {
	f := newSessionFixture()
	f.staff.AddUser(mocks.CreateTestStaffUser("staff-1", "prov-1", domain.RoleVolunteer))
	f.provider.AddToken("good-token", domain.ProviderUser{ID: "prov-1", Email: "staff-1@mandiocahostel.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(&http.Cookie{Name: providerCookie, Value: "good-token"})

	got := f.resolver.Resolve(context.Background(), req)

	if got.Kind != domain.AuthProvider {
		t.Fatalf("expected provider session, got %q", got.Kind)
	}
	if got.Role != domain.RoleVolunteer || got.Staff == nil || got.Staff.ID != "staff-1" {
		t.Errorf("unexpected result %+v", got)
	}
	if got.IsAdmin() {
		t.Error("volunteer should not be admin")
	}
}

func TestSessionService_BearerToken(t *testing.T) {
	f := newSessionFixture()
	f.staff.AddUser(mocks.CreateTestStaffUser("staff-1", "prov-1", domain.RoleAdmin))
	f.provider.AddToken("good-token", domain.ProviderUser{ID: "prov-1"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	got := f.resolver.Resolve(context.Background(), req)

	if got.Kind != domain.AuthProvider || !got.IsAdmin() {
		t.Fatalf("expected provider admin, got %+v", got)
	}
}

func TestSessionService_ProviderWinsOverLegacy(t *testing.T) {
	f := newSessionFixture()
	f.staff.AddUser(mocks.CreateTestStaffUser("staff-1", "prov-1", domain.RoleVolunteer))
	f.provider.AddToken("good-token", domain.ProviderUser{ID: "prov-1"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: providerCookie, Value: "good-token"})
	req.AddCookie(f.legacyCookie(t))

	got := f.resolver.Resolve(context.Background(), req)

	if got.Kind != domain.AuthProvider || got.Role != domain.RoleVolunteer {
		t.Fatalf("provider session should win, got %+v", got)
	}
}

func TestSessionService_NoStaffRowIsUnauthenticated(t *testing.T) {
	f := newSessionFixture()
	f.provider.AddToken("orphan-token", domain.ProviderUser{ID: "prov-unknown"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: providerCookie, Value: "orphan-token"})

	got := f.resolver.Resolve(context.Background(), req)

	if got.Authenticated() {
		t.Fatalf("expected unauthenticated, got %+v", got)
	}
}

func TestSessionService_FallsBackToLegacy(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *sessionFixture)
		token string
	}{
		{name: "invalid provider token", token: "bad-token", setup: func(f *sessionFixture) {}},
		{name: "inactive staff user", token: "good-token", setup: func(f *sessionFixture) {
			u := mocks.CreateTestStaffUser("staff-1", "prov-1", domain.RoleVolunteer)
			u.Active = false
			f.staff.AddUser(u)
			f.provider.AddToken("good-token", domain.ProviderUser{ID: "prov-1"})
		}},
		{name: "no provider token", setup: func(f *sessionFixture) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			tt.setup(f)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: providerCookie, Value: tt.token})
			}
			req.AddCookie(f.legacyCookie(t))

			got := f.resolver.Resolve(context.Background(), req)

			if got.Kind != domain.AuthLegacy || !got.IsAdmin() {
				t.Fatalf("expected legacy admin, got %+v", got)
			}
			if got.ActorID() != domain.LegacyActor {
				t.Errorf("expected actor %q, got %q", domain.LegacyActor, got.ActorID())
			}
		})
	}
}

func TestSessionService_ExpiredLegacyCookie(t *testing.T) {
	f := newSessionFixture()
	cookie := f.legacyCookie(t)
	f.clock.Advance(24*time.Hour + time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	if got := f.resolver.Resolve(context.Background(), req); got.Authenticated() {
		t.Fatalf("expired legacy cookie should not authenticate, got %+v", got)
	}
}

func TestSessionService_NoProviderConfigured(t *testing.T) {
	clock := mocks.NewClock(epoch)
	legacy := services.NewLegacySessions(clock.Now)
	resolver := services.NewSessionService(nil, nil, legacy, providerCookie, logging.Discard())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: providerCookie, Value: "anything"})

	if got := resolver.Resolve(context.Background(), req); got.Authenticated() {
		t.Fatalf("expected unauthenticated, got %+v", got)
	}
}
