package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/middleware"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

const msgUserNotFound = "User not found"

type StaffHandler struct {
	staff  ports.StaffService
	logger *slog.Logger
}

func NewStaffHandler(staff ports.StaffService, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{staff: staff, logger: logger}
}

type CreateUserRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	SendInvite *bool  `json:"sendInvite"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Role       *string `json:"role"`
	Active     *bool   `json:"active"`
	AuthUserID *string `json:"auth_user_id"`
}

type UserResponse struct {
	User    *domain.StaffUser `json:"user"`
	Warning string            `json:"warning,omitempty"`
}

type UsersResponse struct {
	Users []domain.StaffUser `json:"users"`
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.staff.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgUserNotFound, "Failed to fetch users")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, UsersResponse{Users: users})
}

// Create answers 201, or 200 with a warning when the user was stored but the
// invite could not be sent.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	in := domain.NewStaffUser{
		Email:      req.Email,
		Name:       req.Name,
		Role:       domain.Role(req.Role),
		SendInvite: req.SendInvite == nil || *req.SendInvite,
	}
	user, warning, err := h.staff.Create(r.Context(), middleware.AuthFromContext(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgUserNotFound, "Failed to create user")
		return
	}
	if warning != "" {
		writeJSON(w, r, h.logger, http.StatusOK, UserResponse{User: user, Warning: warning})
		return
	}
	writeJSON(w, r, h.logger, http.StatusCreated, UserResponse{User: user})
}

func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.staff.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgUserNotFound, "Failed to fetch user")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, UserResponse{User: user})
}

func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	patch := domain.StaffUserPatch{
		Name:           req.Name,
		Email:          req.Email,
		Active:         req.Active,
		AuthProviderID: req.AuthUserID,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}

	user, err := h.staff.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgUserNotFound, "Failed to update user")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, UserResponse{User: user})
}

func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.staff.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err, msgUserNotFound, "Failed to delete user")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, SuccessResponse{Success: true})
}
