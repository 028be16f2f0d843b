package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

type RoomService struct {
	repo ports.RoomRepository
	now  func() time.Time
}

var _ ports.RoomService = (*RoomService)(nil)

func NewRoomService(repo ports.RoomRepository, now func() time.Time) *RoomService {
	if now == nil {
		now = time.Now
	}
	return &RoomService{repo: repo, now: now}
}

func (s *RoomService) List(ctx context.Context, availableOnly bool) ([]domain.Room, error) {
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	return s.repo.List(ctx, availableOnly)
}

func (s *RoomService) Create(ctx context.Context, room domain.Room) (*domain.Room, error) {
	room.Name = strings.TrimSpace(room.Name)
	if room.Name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if room.RoomType == "" {
		room.RoomType = domain.RoomDorm
	}
	if err := validateRoom(room.RoomType, room.PricePerNight, room.BedCount, room.MaxGuests); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}

	now := s.now()
	room.ID = uuid.NewString()
	if room.Features == nil {
		room.Features = []string{}
	}
	room.CreatedAt = now
	room.UpdatedAt = now

	created, err := s.repo.Create(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return created, nil
}

func (s *RoomService) Update(ctx context.Context, id string, patch domain.RoomPatch) (*domain.Room, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.NewValidationError("name is required")
	}
	roomType := domain.RoomDorm
	if patch.RoomType != nil {
		roomType = *patch.RoomType
	}
	var price float64
	if patch.PricePerNight != nil {
		price = *patch.PricePerNight
	}
	var beds, guests int
	if patch.BedCount != nil {
		beds = *patch.BedCount
	}
	if patch.MaxGuests != nil {
		guests = *patch.MaxGuests
	}
	if err := validateRoom(roomType, price, beds, guests); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *RoomService) Delete(ctx context.Context, id string) error {
	if s.repo == nil {
		return domain.ErrNotConfigured
	}
	return s.repo.Delete(ctx, id)
}

func validateRoom(roomType domain.RoomType, price float64, beds, guests int) error {
	switch {
	case !roomType.Valid():
		return domain.NewValidationError("Invalid room_type")
	case price < 0:
		return domain.NewValidationError("price_per_night cannot be negative")
	case beds < 0 || guests < 0:
		return domain.NewValidationError("bed_count and max_guests cannot be negative")
	}
	return nil
}
