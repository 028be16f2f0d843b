package ports

import (
	"context"
	"net/http"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
)

type SessionResolver interface {
	Resolve(ctx context.Context, r *http.Request) domain.AuthResult
}

type LegacyAuthService interface {
	Login(ctx context.Context, clientKey, username, password string) (string, error)
}

type StaffService interface {
	List(ctx context.Context) ([]domain.StaffUser, error)
	Get(ctx context.Context, id string) (*domain.StaffUser, error)
	Create(ctx context.Context, actor domain.AuthResult, in domain.NewStaffUser) (*domain.StaffUser, string, error)
	Update(ctx context.Context, id string, patch domain.StaffUserPatch) (*domain.StaffUser, error)
	Delete(ctx context.Context, id string) error
	RecordLogin(ctx context.Context, id string)
}

type BookingService interface {
	Create(ctx context.Context, req domain.BookingRequest) (*domain.BookingConfirmation, error)
	ListForGuest(ctx context.Context, hostelID, email string) ([]domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, actor domain.AuthResult, id string, status domain.BookingStatus) (*domain.Booking, error)
}

type CleaningService interface {
	ListTasks(ctx context.Context, date, view string) ([]domain.CleaningTask, error)
	CreateTask(ctx context.Context, in domain.NewCleaningTask) (*domain.CleaningTask, error)
	UpdateTask(ctx context.Context, actor domain.AuthResult, id string, patch domain.CleaningTaskPatch) (*domain.CleaningTask, error)
	SetChecklistItem(ctx context.Context, id, itemID string, completed bool) (*domain.CleaningTask, error)
	DeleteTask(ctx context.Context, id string) error
	ListTemplates(ctx context.Context) ([]domain.CleaningTemplate, error)
}

type RoomService interface {
	List(ctx context.Context, availableOnly bool) ([]domain.Room, error)
	Create(ctx context.Context, room domain.Room) (*domain.Room, error)
	Update(ctx context.Context, id string, patch domain.RoomPatch) (*domain.Room, error)
	Delete(ctx context.Context, id string) error
}
