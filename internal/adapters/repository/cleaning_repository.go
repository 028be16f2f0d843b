package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

type CleaningRepository struct {
	db *sql.DB
}

var _ ports.CleaningRepository = (*CleaningRepository)(nil)

func NewCleaningRepository(db *sql.DB) *CleaningRepository {
	return &CleaningRepository{db: db}
}

const taskColumns = `id, room_id, area_type, area_name, task_type, template_id, checklist, assigned_to, assigned_at,
	status, started_at, completed_at, verified_by, verified_at, scheduled_date, notes, created_at, updated_at`

func scanTask(row rowScanner) (*domain.CleaningTask, error) {
	var (
		t                              domain.CleaningTask
		roomID, templateID, assignedTo sql.NullString
		verifiedBy, notes              sql.NullString
		assignedAt, startedAt          pq.NullTime
		completedAt, verifiedAt        pq.NullTime
		checklist                      []byte
	)
	err := row.Scan(
		&t.ID, &roomID, &t.AreaType, &t.AreaName, &t.TaskType, &templateID, &checklist, &assignedTo, &assignedAt,
		&t.Status, &startedAt, &completedAt, &verifiedBy, &verifiedAt, &t.ScheduledDate, &notes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if err := decodeChecklist(checklist, &t.Checklist); err != nil {
		return nil, fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.RoomID = stringPtr(roomID)
	t.TemplateID = stringPtr(templateID)
	t.AssignedTo = stringPtr(assignedTo)
	t.AssignedAt = timePtr(assignedAt)
	t.StartedAt = timePtr(startedAt)
	t.CompletedAt = timePtr(completedAt)
	t.VerifiedBy = stringPtr(verifiedBy)
	t.VerifiedAt = timePtr(verifiedAt)
	t.Notes = stringPtr(notes)
	return &t, nil
}

func decodeChecklist(raw []byte, dst *[]domain.ChecklistItem) error {
	*dst = []domain.ChecklistItem{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode checklist: %w", err)
	}
	return nil
}

// encodeChecklist returns JSON text; lib/pq would send []byte as bytea.
func encodeChecklist(items []domain.ChecklistItem) ([]byte, error) {
	if items == nil {
		items = []domain.ChecklistItem{}
	}
	return json.Marshal(items)
}

// ListTasks orders by day and then area type, matching the admin board.
func (r *CleaningRepository) ListTasks(ctx context.Context, span domain.DateRange) ([]domain.CleaningTask, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM cleaning_tasks
		WHERE scheduled_date BETWEEN $1 AND $2
		ORDER BY scheduled_date, area_type`,
		span.From, span.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.CleaningTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *CleaningRepository) FindTask(ctx context.Context, id string) (*domain.CleaningTask, error) {
	return scanTask(r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM cleaning_tasks WHERE id = $1", id,
	))
}

func (r *CleaningRepository) CreateTask(ctx context.Context, t domain.CleaningTask) (*domain.CleaningTask, error) {
	checklist, err := encodeChecklist(t.Checklist)
	if err != nil {
		return nil, err
	}
	return scanTask(r.db.QueryRowContext(ctx, `
		INSERT INTO cleaning_tasks (id, room_id, area_type, area_name, task_type, template_id, checklist,
			assigned_to, assigned_at, status, scheduled_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+taskColumns,
		t.ID,
		nullString(t.RoomID),
		t.AreaType,
		t.AreaName,
		t.TaskType,
		nullString(t.TemplateID),
		string(checklist),
		nullString(t.AssignedTo),
		t.AssignedAt,
		t.Status,
		t.ScheduledDate,
		nullString(t.Notes),
		t.CreatedAt,
		t.UpdatedAt,
	))
}

// UpdateTask runs mutate against the row-locked task and writes every
// mutable column back in the same transaction.
func (r *CleaningRepository) UpdateTask(ctx context.Context, id string, mutate ports.TaskMutation) (*domain.CleaningTask, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, err := scanTask(tx.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM cleaning_tasks WHERE id = $1 FOR UPDATE", id,
	))
	if err != nil {
		return nil, err
	}

	event, err := mutate(t)
	if err != nil {
		return nil, err
	}

	checklist, err := encodeChecklist(t.Checklist)
	if err != nil {
		return nil, err
	}
	updated, err := scanTask(tx.QueryRowContext(ctx, `
		UPDATE cleaning_tasks
		SET checklist = $1, assigned_to = $2, assigned_at = $3, status = $4, started_at = $5,
			completed_at = $6, verified_by = $7, verified_at = $8, notes = $9, updated_at = $10
		WHERE id = $11
		RETURNING `+taskColumns,
		string(checklist),
		nullString(t.AssignedTo),
		t.AssignedAt,
		t.Status,
		t.StartedAt,
		t.CompletedAt,
		nullString(t.VerifiedBy),
		t.VerifiedAt,
		nullString(t.Notes),
		t.UpdatedAt,
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

func (r *CleaningRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cleaning_tasks WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

func (r *CleaningRepository) ListActiveTemplates(ctx context.Context) ([]domain.CleaningTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, area_type, task_type, checklist, estimated_minutes, active, created_at
		FROM cleaning_templates
		WHERE active
		ORDER BY area_type, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []domain.CleaningTemplate{}
	for rows.Next() {
		var (
			tpl       domain.CleaningTemplate
			checklist []byte
			minutes   sql.NullInt64
		)
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.AreaType, &tpl.TaskType, &checklist, &minutes, &tpl.Active, &tpl.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeChecklist(checklist, &tpl.Checklist); err != nil {
			return nil, fmt.Errorf("template %s: %w", tpl.ID, err)
		}
		if minutes.Valid {
			m := int(minutes.Int64)
			tpl.EstimatedMinutes = &m
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

// UpsertTemplate matches on name so a seed file can be applied repeatedly.
func (r *CleaningRepository) UpsertTemplate(ctx context.Context, tpl domain.CleaningTemplate) error {
	checklist, err := encodeChecklist(tpl.Checklist)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cleaning_templates (id, name, area_type, task_type, checklist, estimated_minutes, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE
		SET area_type = EXCLUDED.area_type,
			task_type = EXCLUDED.task_type,
			checklist = EXCLUDED.checklist,
			estimated_minutes = EXCLUDED.estimated_minutes,
			active = EXCLUDED.active`,
		tpl.ID,
		tpl.Name,
		tpl.AreaType,
		tpl.TaskType,
		string(checklist),
		tpl.EstimatedMinutes,
		tpl.Active,
	)
	return err
}
