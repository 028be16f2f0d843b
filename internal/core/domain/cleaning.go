package domain

import "time"

type AreaType string

const (
	AreaRoom     AreaType = "room"
	AreaBathroom AreaType = "bathroom"
	AreaKitchen  AreaType = "kitchen"
	AreaPool     AreaType = "pool"
	AreaTerrace  AreaType = "terrace"
	AreaCommon   AreaType = "common"
)

func (a AreaType) Valid() bool {
	switch a {
	case AreaRoom, AreaBathroom, AreaKitchen, AreaPool, AreaTerrace, AreaCommon:
		return true
	}
	return false
}

type TaskType string

const (
	TaskDaily       TaskType = "daily"
	TaskCheckout    TaskType = "checkout"
	TaskDeepClean   TaskType = "deep_clean"
	TaskMaintenance TaskType = "maintenance"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskDaily, TaskCheckout, TaskDeepClean, TaskMaintenance:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskVerified   TaskStatus = "verified"
)

var taskStatusOrder = map[TaskStatus]int{
	TaskPending:    0,
	TaskInProgress: 1,
	TaskCompleted:  2,
	TaskVerified:   3,
}

func (s TaskStatus) Valid() bool {
	_, ok := taskStatusOrder[s]
	return ok
}

// CanTransitionTo allows only a single forward step, or staying put.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	from, ok := taskStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := taskStatusOrder[next]
	if !ok {
		return false
	}
	return to == from || to == from+1
}

type ChecklistItem struct {
	ID          string     `json:"id"`
	Task        string     `json:"task"`
	Required    bool       `json:"required"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type CleaningTask struct {
	ID            string          `json:"id"`
	RoomID        *string         `json:"room_id"`
	AreaType      AreaType        `json:"area_type"`
	AreaName      string          `json:"area_name"`
	TaskType      TaskType        `json:"task_type"`
	TemplateID    *string         `json:"template_id"`
	Checklist     []ChecklistItem `json:"checklist"`
	AssignedTo    *string         `json:"assigned_to"`
	AssignedAt    *time.Time      `json:"assigned_at"`
	Status        TaskStatus      `json:"status"`
	StartedAt     *time.Time      `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
	VerifiedBy    *string         `json:"verified_by"`
	VerifiedAt    *time.Time      `json:"verified_at"`
	ScheduledDate Date            `json:"scheduled_date"`
	Notes         *string         `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CleaningTaskPatch is a partial update. AssignedTo distinguishes "absent"
// (SetAssignee false) from "cleared" (SetAssignee true, AssignedTo nil).
type CleaningTaskPatch struct {
	Status       *TaskStatus
	Checklist    []ChecklistItem
	SetChecklist bool
	SetAssignee  bool
	AssignedTo   *string
	Notes        *string
}

type CleaningTemplate struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	AreaType         AreaType        `json:"area_type"`
	TaskType         TaskType        `json:"task_type"`
	Checklist        []ChecklistItem `json:"checklist"`
	EstimatedMinutes *int            `json:"estimated_minutes"`
	Active           bool            `json:"active"`
	CreatedAt        time.Time       `json:"created_at"`
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	From Date
	To   Date
}

// WeekOf returns the Sunday-to-Saturday week containing d.
func WeekOf(d Date) DateRange {
	start := d.AddDays(-int(d.Weekday()))
	return DateRange{From: start, To: start.AddDays(6)}
}

func DayOf(d Date) DateRange {
	return DateRange{From: d, To: d}
}

// NewCleaningTask is the create form. Zero values take their defaults.
type NewCleaningTask struct {
	RoomID        *string
	AreaType      AreaType
	AreaName      string
	TaskType      TaskType
	TemplateID    *string
	Checklist     []ChecklistItem
	AssignedTo    *string
	ScheduledDate string
	Notes         *string
}
