package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/middleware"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

const msgTaskNotFound = "Task not found"

type CleaningHandler struct {
	cleaning ports.CleaningService
	logger   *slog.Logger
}

func NewCleaningHandler(cleaning ports.CleaningService, logger *slog.Logger) *CleaningHandler {
	return &CleaningHandler{cleaning: cleaning, logger: logger}
}

type CreateTaskRequest struct {
	RoomID        *string                `json:"room_id"`
	AreaType      string                 `json:"area_type"`
	AreaName      string                 `json:"area_name"`
	TaskType      string                 `json:"task_type"`
	TemplateID    *string                `json:"template_id"`
	Checklist     []domain.ChecklistItem `json:"checklist"`
	AssignedTo    *string                `json:"assigned_to"`
	ScheduledDate string                 `json:"scheduled_date"`
	Notes         *string                `json:"notes"`
}

type ChecklistItemRequest struct {
	Completed bool `json:"completed"`
}

type TaskResponse struct {
	Task *domain.CleaningTask `json:"task"`
}

type TasksResponse struct {
	Tasks []domain.CleaningTask `json:"tasks"`
}

type TemplatesResponse struct {
	Templates []domain.CleaningTemplate `json:"templates"`
}

func (h *CleaningHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.cleaning.ListTasks(r.Context(), q.Get("date"), q.Get("view"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgTaskNotFound, "Failed to fetch tasks")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, TasksResponse{Tasks: tasks})
}

func (h *CleaningHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	task, err := h.cleaning.CreateTask(r.Context(), domain.NewCleaningTask{
		RoomID:        req.RoomID,
		AreaType:      domain.AreaType(req.AreaType),
		AreaName:      req.AreaName,
		TaskType:      domain.TaskType(req.TaskType),
		TemplateID:    req.TemplateID,
		Checklist:     req.Checklist,
		AssignedTo:    req.AssignedTo,
		ScheduledDate: req.ScheduledDate,
		Notes:         req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgTaskNotFound, "Failed to create task")
		return
	}
	writeJSON(w, r, h.logger, http.StatusCreated, TaskResponse{Task: task})
}

// Update decodes into raw fields so an explicit "assigned_to": null
// (unassign) can be told apart from an absent field.
func (h *CleaningHandler) Update(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if !decodeJSON(w, r, h.logger, &raw) {
		return
	}

	patch, ok := parseTaskPatch(raw)
	if !ok {
		writeError(w, r, h.logger, http.StatusBadRequest, "Invalid request payload")
		return
	}

	actor := middleware.AuthFromContext(r.Context())
	task, err := h.cleaning.UpdateTask(r.Context(), actor, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgTaskNotFound, "Failed to update task")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, TaskResponse{Task: task})
}

func parseTaskPatch(raw map[string]json.RawMessage) (domain.CleaningTaskPatch, bool) {
	var patch domain.CleaningTaskPatch

	// null status or checklist leaves the field untouched, like an absent one
	if v, ok := raw["status"]; ok && !isNull(v) {
		var status domain.TaskStatus
		if err := json.Unmarshal(v, &status); err != nil {
			return patch, false
		}
		patch.Status = &status
	}
	if v, ok := raw["checklist"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &patch.Checklist); err != nil {
			return patch, false
		}
		patch.SetChecklist = true
	}
	if v, ok := raw["assigned_to"]; ok {
		if err := json.Unmarshal(v, &patch.AssignedTo); err != nil {
			return patch, false
		}
		patch.SetAssignee = true
	}
	if v, ok := raw["notes"]; ok {
		if err := json.Unmarshal(v, &patch.Notes); err != nil {
			return patch, false
		}
	}
	return patch, true
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

func (h *CleaningHandler) SetChecklistItem(w http.ResponseWriter, r *http.Request) {
	var req ChecklistItemRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	task, err := h.cleaning.SetChecklistItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), req.Completed)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgTaskNotFound, "Failed to update task")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, TaskResponse{Task: task})
}

func (h *CleaningHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.cleaning.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err, msgTaskNotFound, "Failed to delete task")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, SuccessResponse{Success: true})
}

func (h *CleaningHandler) Templates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.cleaning.ListTemplates(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgTaskNotFound, "Failed to fetch templates")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, TemplatesResponse{Templates: templates})
}
