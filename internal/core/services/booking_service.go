package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type BookingConfig struct {
	HostelID          string
	Location          *time.Location
	RequirePhone      bool
	StrictTransitions bool
}

type BookingService struct {
	repo     ports.BookingRepository
	rooms    ports.RoomRepository
	notifier ports.BookingNotifier
	cfg      BookingConfig
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.BookingService = (*BookingService)(nil)

// NewBookingService accepts nil collaborators; operations that need one
// then fail with ErrNotConfigured or ErrEmailNotConfigured.
func NewBookingService(
	repo ports.BookingRepository,
	rooms ports.RoomRepository,
	notifier ports.BookingNotifier,
	cfg BookingConfig,
	now func() time.Time,
	logger *slog.Logger,
) *BookingService {
	if now == nil {
		now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &BookingService{
		repo:     repo,
		rooms:    rooms,
		notifier: notifier,
		cfg:      cfg,
		now:      now,
		logger:   logger,
	}
}

// Create validates a public booking request, sends the staff notification
// (required), stores the booking as pending and then sends the guest
// confirmation (best effort). Staff are notified before the insert so a failed
// notification leaves no row behind for a retry to duplicate.
func (s *BookingService) Create(ctx context.Context, req domain.BookingRequest) (*domain.BookingConfirmation, error) {
	booking, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	if s.notifier == nil {
		return nil, domain.ErrEmailNotConfigured
	}

	log := logging.FromContext(ctx, s.logger)

	payload, err := json.Marshal(ports.BookingEvent{
		BookingID:  booking.ID,
		RoomID:     booking.RoomID,
		GuestEmail: booking.GuestEmail,
		CheckIn:    booking.CheckIn.String(),
		CheckOut:   booking.CheckOut.String(),
		Status:     string(booking.Status),
	})
	if err != nil {
		return nil, err
	}

	conf := &domain.BookingConfirmation{
		Booking:   booking,
		Nights:    booking.Nights(),
		RoomLabel: booking.RoomID,
	}
	s.describeRoom(ctx, log, conf)

	if err := s.notifier.NotifyStaff(ctx, *conf); err != nil {
		log.Error("staff booking notification failed", "booking_id", booking.ID, "err", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}

	saved, err := s.repo.Create(ctx, *booking, ports.OutboxEvent{
		ID:        uuid.NewString(),
		EventType: ports.EventBookingCreated,
		Payload:   payload,
	})
	if err != nil {
		log.Error("booking insert failed after staff notification", "booking_id", booking.ID, "err", err)
		return nil, fmt.Errorf("create booking: %w", err)
	}
	conf.Booking = saved

	if err := s.notifier.ConfirmGuest(ctx, *conf); err != nil {
		log.Warn("guest confirmation email failed", "booking_id", saved.ID, "err", err)
	}

	log.Info("booking request received", "booking_id", saved.ID, "room_id", saved.RoomID, "nights", conf.Nights)
	return conf, nil
}

// describeRoom fills the room label and the price the catalogue would charge.
// The submitted total is kept as is; a mismatch is only logged.
func (s *BookingService) describeRoom(ctx context.Context, log *slog.Logger, conf *domain.BookingConfirmation) {
	if s.rooms == nil {
		return
	}
	room, err := s.rooms.FindByID(ctx, conf.Booking.RoomID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("room lookup failed", "room_id", conf.Booking.RoomID, "err", err)
		}
		return
	}
	conf.RoomLabel = room.Label()

	quoted := room.PricePerNight * float64(conf.Nights)
	conf.QuotedPrice = &quoted
	if math.Abs(quoted-conf.Booking.TotalPrice) > 0.005 {
		log.Warn("submitted total differs from room rate",
			"booking_id", conf.Booking.ID,
			"submitted", conf.Booking.TotalPrice,
			"quoted", quoted,
		)
	}
}

func (s *BookingService) validate(req domain.BookingRequest) (*domain.Booking, error) {
	if strings.TrimSpace(req.HostelID) == "" {
		req.HostelID = s.cfg.HostelID
	}

	required := []struct {
		name  string
		value string
	}{
		{"hostel_id", req.HostelID},
		{"room_id", req.RoomID},
		{"guest_name", req.GuestName},
		{"guest_email", req.GuestEmail},
		{"guest_phone", req.GuestPhone},
		{"check_in", req.CheckIn},
		{"check_out", req.CheckOut},
	}
	for _, f := range required {
		if f.name == "guest_phone" && !s.cfg.RequirePhone {
			continue
		}
		if strings.TrimSpace(f.value) == "" {
			return nil, domain.NewValidationError("Missing required field: " + f.name)
		}
	}

	email := strings.TrimSpace(req.GuestEmail)
	if !emailPattern.MatchString(email) {
		return nil, domain.NewValidationError("Invalid email format")
	}

	checkIn, err := domain.ParseDate(req.CheckIn)
	if err != nil {
		return nil, domain.NewValidationError("Invalid date format: check_in")
	}
	checkOut, err := domain.ParseDate(req.CheckOut)
	if err != nil {
		return nil, domain.NewValidationError("Invalid date format: check_out")
	}

	today := domain.DateOf(s.now().In(s.cfg.Location))
	if checkIn.Before(today) {
		return nil, domain.NewValidationError("Check-in date cannot be in the past")
	}
	if !checkOut.After(checkIn) {
		return nil, domain.NewValidationError("Check-out date must be after check-in date")
	}

	guests := req.GuestCount
	if guests <= 0 {
		guests = 1
	}
	var total float64
	if req.TotalPrice != nil {
		total = *req.TotalPrice
	}
	if total < 0 {
		return nil, domain.NewValidationError("total_price cannot be negative")
	}

	var phone *string
	if p := strings.TrimSpace(req.GuestPhone); p != "" {
		phone = &p
	}

	now := s.now()
	return &domain.Booking{
		ID:            uuid.NewString(),
		HostelID:      strings.TrimSpace(req.HostelID),
		RoomID:        strings.TrimSpace(req.RoomID),
		GuestName:     strings.TrimSpace(req.GuestName),
		GuestEmail:    email,
		GuestPhone:    phone,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		GuestCount:    guests,
		TotalPrice:    total,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *BookingService) ListForGuest(ctx context.Context, hostelID, email string) ([]domain.Booking, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}
	return s.List(ctx, domain.BookingFilter{HostelID: hostelID, GuestEmail: email})
}

func (s *BookingService) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	return s.repo.List(ctx, filter)
}

// UpdateStatus applies a staff status change. With strict transitions only
// the edges of the booking state machine are accepted.
func (s *BookingService) UpdateStatus(ctx context.Context, actor domain.AuthResult, id string, status domain.BookingStatus) (*domain.Booking, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}

	booking, err := s.repo.Update(ctx, id, func(b *domain.Booking) (*ports.OutboxEvent, error) {
		prev := b.Status
		if s.cfg.StrictTransitions && !prev.CanTransitionTo(status) {
			return nil, &domain.TransitionError{From: string(prev), To: string(status)}
		}
		if prev == status {
			return nil, nil
		}
		b.Status = status
		b.UpdatedAt = s.now()

		payload, err := json.Marshal(ports.BookingEvent{
			BookingID:  b.ID,
			RoomID:     b.RoomID,
			GuestEmail: b.GuestEmail,
			CheckIn:    b.CheckIn.String(),
			CheckOut:   b.CheckOut.String(),
			Status:     string(status),
			PrevStatus: string(prev),
			ChangedBy:  actor.ActorID(),
		})
		if err != nil {
			return nil, err
		}
		return &ports.OutboxEvent{
			ID:        uuid.NewString(),
			EventType: ports.EventBookingStatusChanged,
			Payload:   payload,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Info("booking status updated", "booking_id", id, "status", status, "by", actor.ActorID())
	return booking, nil
}
