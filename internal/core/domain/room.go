package domain

import (
	"fmt"
	"time"
)

type RoomType string

const (
	RoomDorm    RoomType = "dorm"
	RoomPrivate RoomType = "private"
)

func (t RoomType) Valid() bool {
	return t == RoomDorm || t == RoomPrivate
}

type Room struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	BedCount      int       `json:"bed_count"`
	RoomType      RoomType  `json:"room_type"`
	PricePerNight float64   `json:"price_per_night"`
	MaxGuests     int       `json:"max_guests"`
	Available     bool      `json:"available"`
	Features      []string  `json:"features"`
	SortOrder     int       `json:"sort_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Label is how a room is named in guest and staff emails.
func (r Room) Label() string {
	return fmt.Sprintf("%s ($%s/night)", r.Name, FormatPrice(r.PricePerNight))
}

type RoomPatch struct {
	Name          *string
	Description   *string
	BedCount      *int
	RoomType      *RoomType
	PricePerNight *float64
	MaxGuests     *int
	Available     *bool
	Features      []string
	SortOrder     *int
}

// FormatPrice drops the decimals for whole amounts, so 12 prints as "12" and
// 12.5 as "12.50".
func FormatPrice(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
