package mocks

import (
	"sync"
	"time"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
)

// Clock is a settable time source for services that take a now func.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func StrPtr(s string) *string { return &s }

func FloatPtr(f float64) *float64 { return &f }

// CreateTestStaffUser returns an active staff user linked to providerID.
func CreateTestStaffUser(id, providerID string, role domain.Role) domain.StaffUser {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	u := domain.StaffUser{
		ID:        id,
		Email:     id + "@mandiocahostel.com",
		Name:      "Staff " + id,
		Role:      role,
		Active:    true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if providerID != "" {
		u.AuthProviderID = StrPtr(providerID)
	}
	return u
}

// CreateTestBookingRequest is a valid intake form for the 2099-01-10..12 stay.
func CreateTestBookingRequest() domain.BookingRequest {
	return domain.BookingRequest{
		HostelID:   "1",
		RoomID:     "dorm-6",
		GuestName:  "Ana Gomez",
		GuestEmail: "ana@example.com",
		GuestPhone: "+595 981 123456",
		CheckIn:    "2099-01-10",
		CheckOut:   "2099-01-12",
		GuestCount: 2,
		TotalPrice: FloatPtr(48),
	}
}

// CreateTestRoom returns an available dorm priced at 12 per night.
func CreateTestRoom(id string) domain.Room {
	return domain.Room{
		ID:            id,
		Name:          "Dorm " + id,
		BedCount:      6,
		RoomType:      domain.RoomDorm,
		PricePerNight: 12,
		MaxGuests:     6,
		Available:     true,
		Features:      []string{"lockers"},
	}
}

// CreateTestTask returns a pending task with three checklist items, the
// first of them completed.
func CreateTestTask(id string, scheduled domain.Date) domain.CleaningTask {
	done := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return domain.CleaningTask{
		ID:       id,
		AreaType: domain.AreaBathroom,
		AreaName: "Bathroom 1",
		TaskType: domain.TaskDaily,
		Checklist: []domain.ChecklistItem{
			{ID: "item-1", Task: "Clean toilet", Required: true, Completed: true, CompletedAt: &done},
			{ID: "item-2", Task: "Mop floor", Required: true},
			{ID: "item-3", Task: "Refill soap", Required: false},
		},
		Status:        domain.TaskPending,
		ScheduledDate: scheduled,
	}
}
