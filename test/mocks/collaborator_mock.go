package mocks

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

var ErrInvalidToken = errors.New("invalid token")

// MockIdentityProvider implements ports.IdentityProvider. Tokens map to
// provider users; unknown tokens are rejected.
type MockIdentityProvider struct {
	mu     sync.RWMutex
	tokens map[string]domain.ProviderUser

	InviteCalls []ports.Invite
	DeleteCalls []string
	VerifyCount int

	InviteResult string
	InviteError  error
	DeleteError  error
}

var _ ports.IdentityProvider = (*MockIdentityProvider)(nil)

func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		tokens:       make(map[string]domain.ProviderUser),
		InviteResult: "provider-user-new",
	}
}

// AddToken registers a valid session token.
func (m *MockIdentityProvider) AddToken(token string, user domain.ProviderUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = user
}

func (m *MockIdentityProvider) VerifySession(ctx context.Context, token string) (*domain.ProviderUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerifyCount++
	u, ok := m.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &u, nil
}

func (m *MockIdentityProvider) InviteUser(ctx context.Context, invite ports.Invite) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InviteCalls = append(m.InviteCalls, invite)
	if m.InviteError != nil {
		return "", m.InviteError
	}
	return m.InviteResult, nil
}

func (m *MockIdentityProvider) DeleteUser(ctx context.Context, providerUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, providerUserID)
	return m.DeleteError
}

func (m *MockIdentityProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = make(map[string]domain.ProviderUser)
	m.InviteCalls, m.DeleteCalls = nil, nil
	m.VerifyCount = 0
	m.InviteResult = "provider-user-new"
	m.InviteError, m.DeleteError = nil, nil
}

// MockBookingNotifier implements ports.BookingNotifier.
type MockBookingNotifier struct {
	mu sync.Mutex

	StaffNotified  []domain.BookingConfirmation
	GuestConfirmed []domain.BookingConfirmation

	StaffError error
	GuestError error
}

var _ ports.BookingNotifier = (*MockBookingNotifier)(nil)

func NewMockBookingNotifier() *MockBookingNotifier {
	return &MockBookingNotifier{}
}

func (m *MockBookingNotifier) NotifyStaff(ctx context.Context, c domain.BookingConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StaffNotified = append(m.StaffNotified, c)
	return m.StaffError
}

func (m *MockBookingNotifier) ConfirmGuest(ctx context.Context, c domain.BookingConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GuestConfirmed = append(m.GuestConfirmed, c)
	return m.GuestError
}

func (m *MockBookingNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StaffNotified, m.GuestConfirmed = nil, nil
	m.StaffError, m.GuestError = nil, nil
}

// MockLoginThrottle implements ports.LoginThrottle with a plain counter per key.
type MockLoginThrottle struct {
	mu       sync.Mutex
	failures map[string]int

	MaxAttempts int
	AllowError  error
	ResetCalls  []string
}

var _ ports.LoginThrottle = (*MockLoginThrottle)(nil)

func NewMockLoginThrottle(maxAttempts int) *MockLoginThrottle {
	return &MockLoginThrottle{failures: make(map[string]int), MaxAttempts: maxAttempts}
}

func (m *MockLoginThrottle) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AllowError != nil {
		return false, m.AllowError
	}
	return m.failures[key] < m.MaxAttempts, nil
}

func (m *MockLoginThrottle) RecordFailure(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key]++
	return nil
}

func (m *MockLoginThrottle) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls = append(m.ResetCalls, key)
	delete(m.failures, key)
	return nil
}

func (m *MockLoginThrottle) Failures(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[key]
}

// MockSessionResolver returns a fixed AuthResult.
type MockSessionResolver struct {
	mu     sync.Mutex
	Result domain.AuthResult
	Calls  int
}

var _ ports.SessionResolver = (*MockSessionResolver)(nil)

func NewMockSessionResolver(result domain.AuthResult) *MockSessionResolver {
	return &MockSessionResolver{Result: result}
}

func (m *MockSessionResolver) Resolve(ctx context.Context, r *http.Request) domain.AuthResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Result
}

func (m *MockSessionResolver) Set(result domain.AuthResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Result = result
}
