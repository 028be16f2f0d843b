package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

type StaffRepository struct {
	db *sql.DB
}

var _ ports.StaffRepository = (*StaffRepository)(nil)

func NewStaffRepository(db *sql.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffColumns = `id, auth_user_id, email, name, role, active, invited_by, invited_at, last_login_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaffUser(row rowScanner) (*domain.StaffUser, error) {
	var (
		u                    domain.StaffUser
		authID, invitedBy    sql.NullString
		invitedAt, lastLogin pq.NullTime
	)
	err := row.Scan(
		&u.ID, &authID, &u.Email, &u.Name, &u.Role, &u.Active,
		&invitedBy, &invitedAt, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	u.AuthProviderID = stringPtr(authID)
	u.InvitedBy = stringPtr(invitedBy)
	u.InvitedAt = timePtr(invitedAt)
	u.LastLoginAt = timePtr(lastLogin)
	return &u, nil
}

func (r *StaffRepository) List(ctx context.Context) ([]domain.StaffUser, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+staffColumns+" FROM staff_users ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.StaffUser{}
	for rows.Next() {
		u, err := scanStaffUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *StaffRepository) FindByID(ctx context.Context, id string) (*domain.StaffUser, error) {
	return scanStaffUser(r.db.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM staff_users WHERE id = $1", id,
	))
}

func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	return scanStaffUser(r.db.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM staff_users WHERE lower(email) = lower($1)", email,
	))
}

func (r *StaffRepository) FindByAuthProviderID(ctx context.Context, providerID string) (*domain.StaffUser, error) {
	return scanStaffUser(r.db.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM staff_users WHERE auth_user_id = $1", providerID,
	))
}

func (r *StaffRepository) Create(ctx context.Context, u domain.StaffUser) (*domain.StaffUser, error) {
	return scanStaffUser(r.db.QueryRowContext(ctx, `
		INSERT INTO staff_users (id, auth_user_id, email, name, role, active, invited_by, invited_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+staffColumns,
		u.ID,
		nullString(u.AuthProviderID),
		u.Email,
		u.Name,
		u.Role,
		u.Active,
		nullString(u.InvitedBy),
		u.InvitedAt,
		u.CreatedAt,
		u.UpdatedAt,
	))
}

// Update writes only the fields set in patch and bumps updated_at.
func (r *StaffRepository) Update(ctx context.Context, id string, patch domain.StaffUserPatch) (*domain.StaffUser, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Role != nil {
		add("role", *patch.Role)
	}
	if patch.Active != nil {
		add("active", *patch.Active)
	}
	if patch.AuthProviderID != nil {
		if *patch.AuthProviderID == "" {
			add("auth_user_id", nil)
		} else {
			add("auth_user_id", *patch.AuthProviderID)
		}
	}
	add("updated_at", time.Now())
	args = append(args, id)

	query := "UPDATE staff_users SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + staffColumns
	return scanStaffUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *StaffRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM staff_users WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

func (r *StaffRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE staff_users SET last_login_at = $1 WHERE id = $2", at, id,
	)
	return err
}
