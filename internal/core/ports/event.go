package ports

import (
	"context"
)

const (
	EventBookingCreated        = "booking.created"
	EventBookingStatusChanged  = "booking.status_changed"
	EventCleaningStatusChanged = "cleaning.status_changed"
)

// OutboxEvent is written in the same transaction as the change it describes
// and later published by the relay.
type OutboxEvent struct {
	ID        string
	EventType string
	Payload   []byte
}

type BookingEvent struct {
	BookingID  string `json:"booking_id"`
	RoomID     string `json:"room_id"`
	GuestEmail string `json:"guest_email"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Status     string `json:"status"`
	PrevStatus string `json:"previous_status,omitempty"`
	ChangedBy  string `json:"changed_by,omitempty"`
}

type CleaningEvent struct {
	TaskID     string `json:"task_id"`
	AreaName   string `json:"area_name"`
	Status     string `json:"status"`
	PrevStatus string `json:"previous_status"`
	ChangedBy  string `json:"changed_by"`
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, evt OutboxEvent) error
}
