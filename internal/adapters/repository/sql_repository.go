package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

//go:embed schema.sql
var schemaSQL string

// PostgreSQL error codes mapError translates. A malformed UUID in a lookup
// raises invalid_text_representation and matches no row.
const (
	uniqueViolation           = "23505"
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
)

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// mapError turns driver errors into the domain sentinels callers match on.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pqErr.Constraint)
	case invalidTextRepresentation:
		return domain.ErrNotFound
	case foreignKeyViolation:
		return domain.NewValidationError(referenceMessage(pqErr.Constraint))
	}
	return err
}

// referenceMessage names the field behind a foreign key constraint.
func referenceMessage(constraint string) string {
	switch {
	case strings.Contains(constraint, "template_id"):
		return "Invalid template_id"
	case strings.Contains(constraint, "invited_by"):
		return "Invalid invited_by"
	}
	return "Referenced record does not exist"
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertOutbox(ctx context.Context, tx execer, evt ports.OutboxEvent) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO outbox_events (id, event_type, payload) VALUES ($1, $2, $3)",
		evt.ID,
		evt.EventType,
		string(evt.Payload),
	)
	return err
}

// expectOneRow reports ErrNotFound when an UPDATE or DELETE matched nothing.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// nullString converts an optional string pointer for a nullable column.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt pq.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
