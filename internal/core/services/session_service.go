package services

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
)

// SessionService resolves the combined session: a provider session backed by
// an active StaffUser wins, then the legacy admin cookie, else nothing.
type SessionService struct {
	provider       ports.IdentityProvider
	staffRepo      ports.StaffRepository
	legacy         *LegacySessions
	providerCookie string
	logger         *slog.Logger
}

var _ ports.SessionResolver = (*SessionService)(nil)

// NewSessionService accepts a nil provider or staffRepo; the provider scheme
// then never resolves.
func NewSessionService(
	provider ports.IdentityProvider,
	staffRepo ports.StaffRepository,
	legacy *LegacySessions,
	providerCookie string,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		provider:       provider,
		staffRepo:      staffRepo,
		legacy:         legacy,
		providerCookie: providerCookie,
		logger:         logger,
	}
}

func (s *SessionService) Resolve(ctx context.Context, r *http.Request) domain.AuthResult {
	if staff := s.resolveProvider(ctx, r); staff != nil {
		return domain.ProviderSession(staff)
	}
	if s.resolveLegacy(r) {
		return domain.LegacySession()
	}
	return domain.Unauthenticated()
}

func (s *SessionService) resolveProvider(ctx context.Context, r *http.Request) *domain.StaffUser {
	if s.provider == nil || s.staffRepo == nil {
		return nil
	}
	token := s.providerToken(r)
	if token == "" {
		return nil
	}

	log := logging.FromContext(ctx, s.logger)

	user, err := s.provider.VerifySession(ctx, token)
	if err != nil {
		log.Debug("provider session rejected", "err", err)
		return nil
	}

	staff, err := s.staffRepo.FindByAuthProviderID(ctx, user.ID)
	if err != nil {
		log.Warn("provider session has no staff user", "provider_user_id", user.ID, "err", err)
		return nil
	}
	if !staff.Active {
		log.Warn("provider session for inactive staff user", "staff_id", staff.ID)
		return nil
	}
	return staff
}

func (s *SessionService) providerToken(r *http.Request) string {
	if s.providerCookie != "" {
		if c, err := r.Cookie(s.providerCookie); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func (s *SessionService) resolveLegacy(r *http.Request) bool {
	c, err := r.Cookie(LegacyCookieName)
	if err != nil {
		return false
	}
	return s.legacy.Verify(c.Value)
}
