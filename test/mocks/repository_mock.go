// Package mocks provides in-memory implementations of the port interfaces so
// services and handlers can be tested without PostgreSQL, Redis or an
// identity provider.
package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

// MockStaffRepository implements ports.StaffRepository in memory.
type MockStaffRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.StaffUser

	// Call tracking for verification
	CreateCalls         []domain.StaffUser
	DeleteCalls         []string
	TouchLastLoginCalls []string

	// Error injection
	ListError   error
	FindError   error
	CreateError error
	UpdateError error
	DeleteError error
	TouchError  error
}

var _ ports.StaffRepository = (*MockStaffRepository)(nil)

func NewMockStaffRepository() *MockStaffRepository {
	return &MockStaffRepository{users: make(map[string]*domain.StaffUser)}
}

// AddUser seeds a user directly (for test setup).
func (m *MockStaffRepository) AddUser(u domain.StaffUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
}

// GetUser reads a stored user (for test assertions).
func (m *MockStaffRepository) GetUser(id string) (domain.StaffUser, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return domain.StaffUser{}, false
	}
	return *u, true
}

func (m *MockStaffRepository) List(ctx context.Context) ([]domain.StaffUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]domain.StaffUser, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockStaffRepository) find(match func(*domain.StaffUser) bool) (*domain.StaffUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockStaffRepository) FindByID(ctx context.Context, id string) (*domain.StaffUser, error) {
	return m.find(func(u *domain.StaffUser) bool { return u.ID == id })
}

func (m *MockStaffRepository) FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	return m.find(func(u *domain.StaffUser) bool { return strings.EqualFold(u.Email, email) })
}

func (m *MockStaffRepository) FindByAuthProviderID(ctx context.Context, providerID string) (*domain.StaffUser, error) {
	return m.find(func(u *domain.StaffUser) bool {
		return u.AuthProviderID != nil && *u.AuthProviderID == providerID
	})
}

func (m *MockStaffRepository) Create(ctx context.Context, user domain.StaffUser) (*domain.StaffUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, user)
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, domain.ErrAlreadyExists
		}
	}
	stored := user
	m.users[user.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockStaffRepository) Update(ctx context.Context, id string, patch domain.StaffUserPatch) (*domain.StaffUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Active != nil {
		u.Active = *patch.Active
	}
	if patch.AuthProviderID != nil {
		pid := *patch.AuthProviderID
		u.AuthProviderID = &pid
	}
	cp := *u
	return &cp, nil
}

func (m *MockStaffRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if _, ok := m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockStaffRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TouchLastLoginCalls = append(m.TouchLastLoginCalls, id)
	if m.TouchError != nil {
		return m.TouchError
	}
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

// Reset clears all data and tracking.
func (m *MockStaffRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]*domain.StaffUser)
	m.CreateCalls = nil
	m.DeleteCalls = nil
	m.TouchLastLoginCalls = nil
	m.ListError, m.FindError, m.CreateError = nil, nil, nil
	m.UpdateError, m.DeleteError, m.TouchError = nil, nil, nil
}

// MockBookingRepository implements ports.BookingRepository in memory. Events
// recorded alongside writes are kept in Events, like the outbox table.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	Events      []ports.OutboxEvent
	ListFilters []domain.BookingFilter

	CreateError error
	ListError   error
	UpdateError error
}

var _ ports.BookingRepository = (*MockBookingRepository)(nil)

func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{bookings: make(map[string]*domain.Booking)}
}

func (m *MockBookingRepository) AddBooking(b domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = &b
}

func (m *MockBookingRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

func (m *MockBookingRepository) GetEvents() []ports.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]ports.OutboxEvent, len(m.Events))
	copy(events, m.Events)
	return events
}

func (m *MockBookingRepository) Create(ctx context.Context, booking domain.Booking, event ports.OutboxEvent) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	stored := booking
	m.bookings[booking.ID] = &stored
	m.Events = append(m.Events, event)
	cp := stored
	return &cp, nil
}

func (m *MockBookingRepository) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MockBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListFilters = append(m.ListFilters, filter)
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := []domain.Booking{}
	for _, b := range m.bookings {
		if filter.HostelID != "" && b.HostelID != filter.HostelID {
			continue
		}
		if filter.GuestEmail != "" && !strings.EqualFold(b.GuestEmail, filter.GuestEmail) {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update runs mutate against a copy and only stores it when mutate succeeds,
// mirroring a rolled-back transaction.
func (m *MockBookingRepository) Update(ctx context.Context, id string, mutate ports.BookingMutation) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	working := *b
	event, err := mutate(&working)
	if err != nil {
		return nil, err
	}
	*b = working
	if event != nil {
		m.Events = append(m.Events, *event)
	}
	cp := working
	return &cp, nil
}

func (m *MockBookingRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = make(map[string]*domain.Booking)
	m.Events = nil
	m.ListFilters = nil
	m.CreateError, m.ListError, m.UpdateError = nil, nil, nil
}

// MockCleaningRepository implements ports.CleaningRepository in memory.
type MockCleaningRepository struct {
	mu        sync.RWMutex
	tasks     map[string]*domain.CleaningTask
	templates map[string]domain.CleaningTemplate

	Events     []ports.OutboxEvent
	ListSpans  []domain.DateRange
	Upserted   []domain.CleaningTemplate
	ListError  error
	CreateErr  error
	UpdateErr  error
	UpsertErr  error
	DeleteCall []string
}

var _ ports.CleaningRepository = (*MockCleaningRepository)(nil)

func NewMockCleaningRepository() *MockCleaningRepository {
	return &MockCleaningRepository{
		tasks:     make(map[string]*domain.CleaningTask),
		templates: make(map[string]domain.CleaningTemplate),
	}
}

func (m *MockCleaningRepository) AddTask(t domain.CleaningTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Checklist = append([]domain.ChecklistItem(nil), t.Checklist...)
	m.tasks[t.ID] = &t
}

func (m *MockCleaningRepository) GetTask(id string) (domain.CleaningTask, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.CleaningTask{}, false
	}
	return copyTask(t), true
}

func (m *MockCleaningRepository) AddTemplate(tpl domain.CleaningTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tpl.Name] = tpl
}

func copyTask(t *domain.CleaningTask) domain.CleaningTask {
	cp := *t
	cp.Checklist = append([]domain.ChecklistItem(nil), t.Checklist...)
	return cp
}

func (m *MockCleaningRepository) ListTasks(ctx context.Context, span domain.DateRange) ([]domain.CleaningTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListSpans = append(m.ListSpans, span)
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := []domain.CleaningTask{}
	for _, t := range m.tasks {
		if t.ScheduledDate.Before(span.From) || t.ScheduledDate.After(span.To) {
			continue
		}
		out = append(out, copyTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return out[i].AreaName < out[j].AreaName
	})
	return out, nil
}

func (m *MockCleaningRepository) FindTask(ctx context.Context, id string) (*domain.CleaningTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := copyTask(t)
	return &cp, nil
}

func (m *MockCleaningRepository) CreateTask(ctx context.Context, task domain.CleaningTask) (*domain.CleaningTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	stored := copyTask(&task)
	m.tasks[task.ID] = &stored
	cp := copyTask(&stored)
	return &cp, nil
}

func (m *MockCleaningRepository) UpdateTask(ctx context.Context, id string, mutate ports.TaskMutation) (*domain.CleaningTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	working := copyTask(t)
	event, err := mutate(&working)
	if err != nil {
		return nil, err
	}
	*t = working
	if event != nil {
		m.Events = append(m.Events, *event)
	}
	cp := copyTask(t)
	return &cp, nil
}

func (m *MockCleaningRepository) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCall = append(m.DeleteCall, id)
	if _, ok := m.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MockCleaningRepository) ListActiveTemplates(ctx context.Context) ([]domain.CleaningTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := []domain.CleaningTemplate{}
	for _, tpl := range m.templates {
		if tpl.Active {
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockCleaningRepository) UpsertTemplate(ctx context.Context, tpl domain.CleaningTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Upserted = append(m.Upserted, tpl)
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.templates[tpl.Name] = tpl
	return nil
}

func (m *MockCleaningRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = make(map[string]*domain.CleaningTask)
	m.templates = make(map[string]domain.CleaningTemplate)
	m.Events, m.ListSpans, m.Upserted, m.DeleteCall = nil, nil, nil, nil
	m.ListError, m.CreateErr, m.UpdateErr, m.UpsertErr = nil, nil, nil, nil
}

// MockRoomRepository implements ports.RoomRepository in memory.
type MockRoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room

	FindError error
	ListError error
}

var _ ports.RoomRepository = (*MockRoomRepository)(nil)

func NewMockRoomRepository() *MockRoomRepository {
	return &MockRoomRepository{rooms: make(map[string]*domain.Room)}
}

func (m *MockRoomRepository) AddRoom(r domain.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = &r
}

func (m *MockRoomRepository) List(ctx context.Context, availableOnly bool) ([]domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := []domain.Room{}
	for _, r := range m.rooms {
		if availableOnly && !r.Available {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MockRoomRepository) FindByID(ctx context.Context, id string) (*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	r, ok := m.rooms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRoomRepository) Create(ctx context.Context, room domain.Room) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := room
	m.rooms[room.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockRoomRepository) Update(ctx context.Context, id string, patch domain.RoomPatch) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Description != nil {
		r.Description = patch.Description
	}
	if patch.BedCount != nil {
		r.BedCount = *patch.BedCount
	}
	if patch.RoomType != nil {
		r.RoomType = *patch.RoomType
	}
	if patch.PricePerNight != nil {
		r.PricePerNight = *patch.PricePerNight
	}
	if patch.MaxGuests != nil {
		r.MaxGuests = *patch.MaxGuests
	}
	if patch.Available != nil {
		r.Available = *patch.Available
	}
	if patch.Features != nil {
		r.Features = patch.Features
	}
	if patch.SortOrder != nil {
		r.SortOrder = *patch.SortOrder
	}
	cp := *r
	return &cp, nil
}

func (m *MockRoomRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rooms, id)
	return nil
}

func (m *MockRoomRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = make(map[string]*domain.Room)
	m.FindError, m.ListError = nil, nil
}
