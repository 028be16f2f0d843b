package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

type BookingRepository struct {
	db *sql.DB
}

var _ ports.BookingRepository = (*BookingRepository)(nil)

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, hostel_id, room_id, guest_name, guest_email, guest_phone, check_in, check_out,
	guest_count, total_price, status, payment_status, notes, created_at, updated_at`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b            domain.Booking
		phone, notes sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.HostelID, &b.RoomID, &b.GuestName, &b.GuestEmail, &phone, &b.CheckIn, &b.CheckOut,
		&b.GuestCount, &b.TotalPrice, &b.Status, &b.PaymentStatus, &notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	b.GuestPhone = stringPtr(phone)
	b.Notes = stringPtr(notes)
	return &b, nil
}

// Create inserts the booking and its outbox event in one transaction.
func (r *BookingRepository) Create(ctx context.Context, b domain.Booking, event ports.OutboxEvent) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	saved, err := scanBooking(tx.QueryRowContext(ctx, `
		INSERT INTO bookings (id, hostel_id, room_id, guest_name, guest_email, guest_phone, check_in, check_out,
			guest_count, total_price, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+bookingColumns,
		b.ID,
		b.HostelID,
		b.RoomID,
		b.GuestName,
		b.GuestEmail,
		nullString(b.GuestPhone),
		b.CheckIn,
		b.CheckOut,
		b.GuestCount,
		b.TotalPrice,
		b.Status,
		b.PaymentStatus,
		b.CreatedAt,
		b.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	if err := insertOutbox(ctx, tx, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = $1", id,
	))
}

func (r *BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.HostelID != "" {
		args = append(args, filter.HostelID)
		where = append(where, "hostel_id = $"+strconv.Itoa(len(args)))
	}
	if filter.GuestEmail != "" {
		args = append(args, filter.GuestEmail)
		where = append(where, "lower(guest_email) = lower($"+strconv.Itoa(len(args))+")")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}

	query := "SELECT " + bookingColumns + " FROM bookings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// Update locks the row, lets mutate change it, then writes the mutable
// columns back together with any outbox event mutate returned.
func (r *BookingRepository) Update(ctx context.Context, id string, mutate ports.BookingMutation) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = $1 FOR UPDATE", id,
	))
	if err != nil {
		return nil, err
	}

	event, err := mutate(b)
	if err != nil {
		return nil, err
	}

	updated, err := scanBooking(tx.QueryRowContext(ctx, `
		UPDATE bookings
		SET status = $1, payment_status = $2, notes = $3, updated_at = $4
		WHERE id = $5
		RETURNING `+bookingColumns,
		b.Status,
		b.PaymentStatus,
		nullString(b.Notes),
		b.UpdatedAt,
		id,
	))
	if err != nil {
		return nil, err
	}

	if event != nil {
		if err := insertOutbox(ctx, tx, *event); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}
