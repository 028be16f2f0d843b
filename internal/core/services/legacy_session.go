package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
)

const (
	LegacyCookieName = "admin_session"
	LegacySessionTTL = 24 * time.Hour

	// tokens stamped further ahead than this were not issued by this clock
	legacyClockSkew = time.Minute
)

// LegacySessions issues and checks the shared-admin cookie token:
// hex(unix millis) "_" hex(8 random bytes). Nothing is stored server side.
type LegacySessions struct {
	now    func() time.Time
	random io.Reader
}

func NewLegacySessions(now func() time.Time) *LegacySessions {
	if now == nil {
		now = time.Now
	}
	return &LegacySessions{now: now, random: rand.Reader}
}

func (s *LegacySessions) Issue() (string, error) {
	b := make([]byte, 8)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return strconv.FormatInt(s.now().UnixMilli(), 16) + "_" + hex.EncodeToString(b), nil
}

func (s *LegacySessions) Verify(token string) bool {
	parts := strings.Split(token, "_")
	if len(parts) != 2 {
		return false
	}
	issued, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil {
		return false
	}
	age := s.now().UnixMilli() - issued
	return age >= -legacyClockSkew.Milliseconds() && age <= LegacySessionTTL.Milliseconds()
}

// LegacyAuthService checks the single configured admin credential pair.
type LegacyAuthService struct {
	username     string
	password     string
	passwordHash []byte
	sessions     *LegacySessions
	throttle     ports.LoginThrottle
	logger       *slog.Logger
}

var _ ports.LegacyAuthService = (*LegacyAuthService)(nil)

// NewLegacyAuthService prefers passwordHash (bcrypt) over the plain password
// when both are set. throttle may be nil.
func NewLegacyAuthService(
	username, password, passwordHash string,
	sessions *LegacySessions,
	throttle ports.LoginThrottle,
	logger *slog.Logger,
) *LegacyAuthService {
	s := &LegacyAuthService{
		username: username,
		password: password,
		sessions: sessions,
		throttle: throttle,
		logger:   logger,
	}
	if passwordHash != "" {
		s.passwordHash = []byte(passwordHash)
	}
	return s
}

func (s *LegacyAuthService) Login(ctx context.Context, clientKey, username, password string) (string, error) {
	log := logging.FromContext(ctx, s.logger)

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, clientKey)
		if err != nil {
			log.Warn("login throttle unavailable", "err", err)
		} else if !allowed {
			return "", domain.ErrTooManyAttempts
		}
	}

	if !s.checkCredentials(log, username, password) {
		if s.throttle != nil {
			if err := s.throttle.RecordFailure(ctx, clientKey); err != nil {
				log.Warn("failed to record login failure", "err", err)
			}
		}
		return "", domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, clientKey); err != nil {
			log.Warn("failed to reset login throttle", "err", err)
		}
	}
	return s.sessions.Issue()
}

func (s *LegacyAuthService) checkCredentials(log *slog.Logger, username, password string) bool {
	if s.password == "" && len(s.passwordHash) == 0 {
		log.Error("admin password not configured, rejecting legacy login")
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	var passOK bool
	if len(s.passwordHash) > 0 {
		err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
		if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.Error("admin password hash is unusable", "err", err)
		}
		passOK = err == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	}
	return userOK && passOK
}
