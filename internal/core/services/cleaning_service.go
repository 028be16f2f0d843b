package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
)

type CleaningService struct {
	repo              ports.CleaningRepository
	location          *time.Location
	strictTransitions bool
	now               func() time.Time
	logger            *slog.Logger
}

var _ ports.CleaningService = (*CleaningService)(nil)

func NewCleaningService(
	repo ports.CleaningRepository,
	location *time.Location,
	strictTransitions bool,
	now func() time.Time,
	logger *slog.Logger,
) *CleaningService {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return &CleaningService{
		repo:              repo,
		location:          location,
		strictTransitions: strictTransitions,
		now:               now,
		logger:            logger,
	}
}

func (s *CleaningService) today() domain.Date {
	return domain.DateOf(s.now().In(s.location))
}

// ListTasks returns the tasks scheduled on date (default today), or in its
// Sunday-to-Saturday week when view is "week".
func (s *CleaningService) ListTasks(ctx context.Context, date, view string) ([]domain.CleaningTask, error) {
	day := s.today()
	if date != "" {
		parsed, err := domain.ParseDate(date)
		if err != nil {
			return nil, domain.NewValidationError("Invalid date")
		}
		day = parsed
	}

	var span domain.DateRange
	switch view {
	case "", "day":
		span = domain.DayOf(day)
	case "week":
		span = domain.WeekOf(day)
	default:
		return nil, domain.NewValidationError("Invalid view")
	}

	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	return s.repo.ListTasks(ctx, span)
}

func (s *CleaningService) CreateTask(ctx context.Context, in domain.NewCleaningTask) (*domain.CleaningTask, error) {
	areaName := strings.TrimSpace(in.AreaName)
	if in.AreaType == "" || areaName == "" {
		return nil, domain.NewValidationError("area_type and area_name are required")
	}
	if !in.AreaType.Valid() {
		return nil, domain.NewValidationError("Invalid area_type")
	}
	taskType := in.TaskType
	if taskType == "" {
		taskType = domain.TaskDaily
	}
	if !taskType.Valid() {
		return nil, domain.NewValidationError("Invalid task_type")
	}

	if in.TemplateID != nil && *in.TemplateID != "" {
		if err := uuid.Validate(*in.TemplateID); err != nil {
			return nil, domain.NewValidationError("Invalid template_id")
		}
	}

	scheduled := s.today()
	if in.ScheduledDate != "" {
		parsed, err := domain.ParseDate(in.ScheduledDate)
		if err != nil {
			return nil, domain.NewValidationError("Invalid scheduled_date")
		}
		scheduled = parsed
	}

	checklist, err := s.normalizeChecklist(in.Checklist)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}

	now := s.now()
	task := domain.CleaningTask{
		ID:            uuid.NewString(),
		RoomID:        in.RoomID,
		AreaType:      in.AreaType,
		AreaName:      areaName,
		TaskType:      taskType,
		TemplateID:    in.TemplateID,
		Checklist:     checklist,
		Status:        domain.TaskPending,
		ScheduledDate: scheduled,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.AssignedTo != nil && *in.AssignedTo != "" {
		task.AssignedTo = in.AssignedTo
		task.AssignedAt = &now
	}

	created, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create cleaning task: %w", err)
	}
	logging.FromContext(ctx, s.logger).Info("cleaning task created", "task_id", created.ID, "area", created.AreaName, "date", created.ScheduledDate.String())
	return created, nil
}

// UpdateTask applies the provided fields only. A status change stamps the
// matching timestamp; the checklist, when sent, replaces the stored one.
func (s *CleaningService) UpdateTask(ctx context.Context, actor domain.AuthResult, id string, patch domain.CleaningTaskPatch) (*domain.CleaningTask, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	var checklist []domain.ChecklistItem
	if patch.SetChecklist {
		var err error
		if checklist, err = s.normalizeChecklist(patch.Checklist); err != nil {
			return nil, err
		}
	}
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}

	return s.repo.UpdateTask(ctx, id, func(t *domain.CleaningTask) (*ports.OutboxEvent, error) {
		now := s.now()
		var event *ports.OutboxEvent

		if patch.Status != nil && *patch.Status != t.Status {
			next := *patch.Status
			if s.strictTransitions && !t.Status.CanTransitionTo(next) {
				return nil, &domain.TransitionError{From: string(t.Status), To: string(next)}
			}
			prev := t.Status
			t.Status = next
			switch next {
			case domain.TaskInProgress:
				t.StartedAt = &now
			case domain.TaskCompleted:
				t.CompletedAt = &now
			case domain.TaskVerified:
				by := actor.ActorID()
				t.VerifiedAt = &now
				t.VerifiedBy = &by
			}

			payload, err := json.Marshal(ports.CleaningEvent{
				TaskID:     t.ID,
				AreaName:   t.AreaName,
				Status:     string(next),
				PrevStatus: string(prev),
				ChangedBy:  actor.ActorID(),
			})
			if err != nil {
				return nil, err
			}
			event = &ports.OutboxEvent{ID: uuid.NewString(), EventType: ports.EventCleaningStatusChanged, Payload: payload}
		}

		if patch.SetChecklist {
			t.Checklist = checklist
		}
		if patch.SetAssignee {
			if patch.AssignedTo != nil && *patch.AssignedTo != "" {
				t.AssignedTo = patch.AssignedTo
				t.AssignedAt = &now
			} else {
				t.AssignedTo = nil
				t.AssignedAt = nil
			}
		}
		if patch.Notes != nil {
			t.Notes = patch.Notes
		}
		t.UpdatedAt = now
		return event, nil
	})
}

// SetChecklistItem toggles one item under the task's row lock, leaving the
// other items as currently stored.
func (s *CleaningService) SetChecklistItem(ctx context.Context, id, itemID string, completed bool) (*domain.CleaningTask, error) {
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	return s.repo.UpdateTask(ctx, id, func(t *domain.CleaningTask) (*ports.OutboxEvent, error) {
		for i := range t.Checklist {
			item := &t.Checklist[i]
			if item.ID != itemID {
				continue
			}
			now := s.now()
			item.Completed = completed
			if completed {
				item.CompletedAt = &now
			} else {
				item.CompletedAt = nil
			}
			t.UpdatedAt = now
			return nil, nil
		}
		return nil, fmt.Errorf("checklist item %s: %w", itemID, domain.ErrNotFound)
	})
}

func (s *CleaningService) DeleteTask(ctx context.Context, id string) error {
	if s.repo == nil {
		return domain.ErrNotConfigured
	}
	return s.repo.DeleteTask(ctx, id)
}

func (s *CleaningService) ListTemplates(ctx context.Context) ([]domain.CleaningTemplate, error) {
	if s.repo == nil {
		return nil, domain.ErrNotConfigured
	}
	return s.repo.ListActiveTemplates(ctx)
}

// normalizeChecklist gives every item an id and stamps completed_at on
// completed items that lack one.
func (s *CleaningService) normalizeChecklist(items []domain.ChecklistItem) ([]domain.ChecklistItem, error) {
	out := make([]domain.ChecklistItem, 0, len(items))
	now := s.now()
	for _, item := range items {
		item.Task = strings.TrimSpace(item.Task)
		if item.Task == "" {
			return nil, domain.NewValidationError("Checklist items need a task")
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.Completed && item.CompletedAt == nil {
			stamped := now
			item.CompletedAt = &stamped
		}
		if !item.Completed {
			item.CompletedAt = nil
		}
		out = append(out, item)
	}
	return out, nil
}
