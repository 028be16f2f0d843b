package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled},
	BookingCancelled: {BookingPending},
}

// CanTransitionTo reports whether staff may move a booking from s to next.
// Writing the current status again is always allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

type Booking struct {
	ID            string        `json:"id"`
	HostelID      string        `json:"hostel_id"`
	RoomID        string        `json:"room_id"`
	GuestName     string        `json:"guest_name"`
	GuestEmail    string        `json:"guest_email"`
	GuestPhone    *string       `json:"guest_phone"`
	CheckIn       Date          `json:"check_in"`
	CheckOut      Date          `json:"check_out"`
	GuestCount    int           `json:"guest_count"`
	TotalPrice    float64       `json:"total_price"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Notes         *string       `json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Nights is the stay length, rounding any partial day up.
func (b Booking) Nights() int {
	return NightsBetween(b.CheckIn, b.CheckOut)
}

func NightsBetween(checkIn, checkOut Date) int {
	hours := checkOut.Sub(checkIn.Time).Hours()
	nights := int(hours / 24)
	if float64(nights*24) < hours {
		nights++
	}
	return nights
}

// BookingRequest is the raw public intake form. Every field is optional here
// so that validation can report which one is missing.
type BookingRequest struct {
	HostelID   string   `json:"hostel_id"`
	RoomID     string   `json:"room_id"`
	GuestName  string   `json:"guest_name"`
	GuestEmail string   `json:"guest_email"`
	GuestPhone string   `json:"guest_phone"`
	CheckIn    string   `json:"check_in"`
	CheckOut   string   `json:"check_out"`
	GuestCount int      `json:"guest_count"`
	TotalPrice *float64 `json:"total_price"`
}

// BookingConfirmation is returned to the guest after intake.
type BookingConfirmation struct {
	Booking     *Booking
	Nights      int
	RoomLabel   string
	QuotedPrice *float64
}

// BookingFilter narrows admin and guest listings. Empty fields match all.
type BookingFilter struct {
	HostelID   string
	GuestEmail string
	Status     BookingStatus
}
