package ports

import (
	"context"
	"time"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
)

type StaffRepository interface {
	List(ctx context.Context) ([]domain.StaffUser, error)
	FindByID(ctx context.Context, id string) (*domain.StaffUser, error)
	FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error)
	FindByAuthProviderID(ctx context.Context, providerID string) (*domain.StaffUser, error)
	Create(ctx context.Context, user domain.StaffUser) (*domain.StaffUser, error)
	Update(ctx context.Context, id string, patch domain.StaffUserPatch) (*domain.StaffUser, error)
	Delete(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// BookingMutation edits a row-locked booking in place and returns the outbox
// event to record with the change, or nil for none.
type BookingMutation func(b *domain.Booking) (*OutboxEvent, error)

type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking, event OutboxEvent) (*domain.Booking, error)
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	Update(ctx context.Context, id string, mutate BookingMutation) (*domain.Booking, error)
}

// TaskMutation edits a row-locked cleaning task in place.
type TaskMutation func(t *domain.CleaningTask) (*OutboxEvent, error)

type CleaningRepository interface {
	ListTasks(ctx context.Context, span domain.DateRange) ([]domain.CleaningTask, error)
	FindTask(ctx context.Context, id string) (*domain.CleaningTask, error)
	CreateTask(ctx context.Context, task domain.CleaningTask) (*domain.CleaningTask, error)
	UpdateTask(ctx context.Context, id string, mutate TaskMutation) (*domain.CleaningTask, error)
	DeleteTask(ctx context.Context, id string) error
	ListActiveTemplates(ctx context.Context) ([]domain.CleaningTemplate, error)
	UpsertTemplate(ctx context.Context, tpl domain.CleaningTemplate) error
}

type RoomRepository interface {
	List(ctx context.Context, availableOnly bool) ([]domain.Room, error)
	FindByID(ctx context.Context, id string) (*domain.Room, error)
	Create(ctx context.Context, room domain.Room) (*domain.Room, error)
	Update(ctx context.Context, id string, patch domain.RoomPatch) (*domain.Room, error)
	Delete(ctx context.Context, id string) error
}
