package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

type RoomRepository struct {
	db *sql.DB
}

var _ ports.RoomRepository = (*RoomRepository)(nil)

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, name, description, bed_count, room_type, price_per_night, max_guests, available,
	features, sort_order, created_at, updated_at`

func scanRoom(row rowScanner) (*domain.Room, error) {
	var (
		room        domain.Room
		description sql.NullString
		features    []byte
	)
	err := row.Scan(
		&room.ID, &room.Name, &description, &room.BedCount, &room.RoomType, &room.PricePerNight, &room.MaxGuests,
		&room.Available, &features, &room.SortOrder, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	room.Description = stringPtr(description)
	room.Features = []string{}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &room.Features); err != nil {
			return nil, err
		}
	}
	return &room, nil
}

func (r *RoomRepository) List(ctx context.Context, availableOnly bool) ([]domain.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms"
	if availableOnly {
		query += " WHERE available"
	}
	query += " ORDER BY sort_order, name"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []domain.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepository) FindByID(ctx context.Context, id string) (*domain.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id = $1", id,
	))
}

func (r *RoomRepository) Create(ctx context.Context, room domain.Room) (*domain.Room, error) {
	features, err := json.Marshal(room.Features)
	if err != nil {
		return nil, err
	}
	return scanRoom(r.db.QueryRowContext(ctx, `
		INSERT INTO rooms (id, name, description, bed_count, room_type, price_per_night, max_guests, available,
			features, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+roomColumns,
		room.ID,
		room.Name,
		nullString(room.Description),
		room.BedCount,
		room.RoomType,
		room.PricePerNight,
		room.MaxGuests,
		room.Available,
		string(features),
		room.SortOrder,
		room.CreatedAt,
		room.UpdatedAt,
	))
}

func (r *RoomRepository) Update(ctx context.Context, id string, patch domain.RoomPatch) (*domain.Room, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Name != nil {
		add("name", strings.TrimSpace(*patch.Name))
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.BedCount != nil {
		add("bed_count", *patch.BedCount)
	}
	if patch.RoomType != nil {
		add("room_type", *patch.RoomType)
	}
	if patch.PricePerNight != nil {
		add("price_per_night", *patch.PricePerNight)
	}
	if patch.MaxGuests != nil {
		add("max_guests", *patch.MaxGuests)
	}
	if patch.Available != nil {
		add("available", *patch.Available)
	}
	if patch.Features != nil {
		features, err := json.Marshal(patch.Features)
		if err != nil {
			return nil, err
		}
		add("features", string(features))
	}
	if patch.SortOrder != nil {
		add("sort_order", *patch.SortOrder)
	}
	add("updated_at", time.Now())
	args = append(args, id)

	query := "UPDATE rooms SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + roomColumns
	return scanRoom(r.db.QueryRowContext(ctx, query, args...))
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}
