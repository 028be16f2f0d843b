package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
)

const (
	msgEmailAndNameRequired = "Email and name are required"
	msgUserExists           = "User with this email already exists"
	msgInvalidRole          = "Invalid role"

	// InviteFailedWarning is returned alongside a created user whose invite
	// could not be sent.
	InviteFailedWarning = "User created but invite email failed to send"
)

type StaffService struct {
	repo     ports.StaffRepository
	provider ports.IdentityProvider
	baseURL  string
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.StaffService = (*StaffService)(nil)

func NewStaffService(
	repo ports.StaffRepository,
	provider ports.IdentityProvider,
	baseURL string,
	now func() time.Time,
	logger *slog.Logger,
) *StaffService {
	if now == nil {
		now = time.Now
	}
	return &StaffService{
		repo:     repo,
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      now,
		logger:   logger,
	}
}

func (s *StaffService) List(ctx context.Context) ([]domain.StaffUser, error) {
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	return s.repo.List(ctx)
}

func (s *StaffService) Get(ctx context.Context, id string) (*domain.StaffUser, error) {
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	return s.repo.FindByID(ctx, id)
}

// Create stores the user and then, if asked, sends the provider invite. An
// invite failure does not undo the row; it is reported as a warning.
func (s *StaffService) Create(ctx context.Context, actor domain.AuthResult, in domain.NewStaffUser) (*domain.StaffUser, string, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return nil, "", domain.NewValidationError(msgEmailAndNameRequired)
	}
	role := in.Role
	if role == "" {
		role = domain.RoleVolunteer
	}
	if !role.Valid() {
		return nil, "", domain.NewValidationError(msgInvalidRole)
	}
	if s.repo == nil {
		return nil, "", domain.ErrNotConfigured
	}

	log := logging.FromContext(ctx, s.logger)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, "", domain.NewValidationError(msgUserExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", fmt.Errorf("check existing staff user: %w", err)
	}

	now := s.now()
	user, err := s.repo.Create(ctx, domain.StaffUser{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      role,
		Active:    true,
		InvitedBy: actor.StaffID(),
		InvitedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, "", domain.NewValidationError(msgUserExists)
	}
	if err != nil {
		return nil, "", fmt.Errorf("create staff user: %w", err)
	}
	log.Info("staff user created", "staff_id", user.ID, "role", user.Role)

	if !in.SendInvite {
		return user, "", nil
	}
	if s.provider == nil {
		log.Error("cannot send invite, identity provider not configured", "staff_id", user.ID)
		return user, InviteFailedWarning, nil
	}

	providerID, err := s.provider.InviteUser(ctx, ports.Invite{
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		RedirectTo: s.baseURL + "/admin/login",
	})
	if err != nil {
		log.Error("invite failed", "staff_id", user.ID, "err", err)
		return user, InviteFailedWarning, nil
	}

	if providerID != "" {
		linked, err := s.repo.Update(ctx, user.ID, domain.StaffUserPatch{AuthProviderID: &providerID})
		if err != nil {
			log.Error("failed to link provider account", "staff_id", user.ID, "provider_user_id", providerID, "err", err)
		} else {
			user = linked
		}
	}
	return user, "", nil
}

func (s *StaffService) Update(ctx context.Context, id string, patch domain.StaffUserPatch) (*domain.StaffUser, error) {
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email == "" {
			return nil, domain.NewValidationError(msgEmailAndNameRequired)
		}
		patch.Email = &email
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.NewValidationError(msgEmailAndNameRequired)
		}
		patch.Name = &name
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, domain.NewValidationError(msgInvalidRole)
	}
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	if patch.Empty() {
		return s.repo.FindByID(ctx, id)
	}

	user, err := s.repo.Update(ctx, id, patch)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, domain.NewValidationError(msgUserExists)
	}
	return user, err
}

// Delete removes the local row first. The provider account is removed only
// after that succeeds, and a provider failure is logged, not returned.
func (s *StaffService) Delete(ctx context.Context, id string) error {
	if s.repo == nil {
		return domain.ErrNotConfigured
	}
	log := logging.FromContext(ctx, s.logger)

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete staff user: %w", err)
	}
	log.Info("staff user deleted", "staff_id", id)

	if user.AuthProviderID == nil || *user.AuthProviderID == "" {
		return nil
	}
	if s.provider == nil {
		log.Warn("provider account left behind, identity provider not configured", "provider_user_id", *user.AuthProviderID)
		return nil
	}
	if err := s.provider.DeleteUser(ctx, *user.AuthProviderID); err != nil {
		log.Error("failed to delete provider account", "provider_user_id", *user.AuthProviderID, "err", err)
	}
	return nil
}

// RecordLogin stamps last_login_at. Failures are only logged.
func (s *StaffService) RecordLogin(ctx context.Context, id string) {
	if s.repo == nil {
		return
	}
	if err := s.repo.TouchLastLogin(ctx, id, s.now()); err != nil {
		logging.FromContext(ctx, s.logger).Warn("failed to record staff login", "staff_id", id, "err", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
