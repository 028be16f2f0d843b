package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/middleware"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

const msgBookingNotFound = "Booking not found"

type BookingHandler struct {
	bookings ports.BookingService
	hostelID string
	created  prometheus.Counter
	logger   *slog.Logger
}

// NewBookingHandler serves public intake and the admin booking screens.
// created may be nil.
func NewBookingHandler(bookings ports.BookingService, hostelID string, created prometheus.Counter, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		hostelID: hostelID,
		created:  created,
		logger:   logger,
	}
}

type CreateBookingResponse struct {
	Message     string          `json:"message"`
	Booking     *domain.Booking `json:"booking"`
	Nights      int             `json:"nights"`
	Room        string          `json:"room"`
	QuotedPrice *float64        `json:"quoted_price,omitempty"`
}

type BookingsResponse struct {
	Bookings []domain.Booking `json:"bookings"`
}

type BookingResponse struct {
	Booking *domain.Booking `json:"booking"`
}

type UpdateBookingStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	conf, err := h.bookings.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgBookingNotFound, "Internal server error")
		return
	}
	if h.created != nil {
		h.created.Inc()
	}

	writeJSON(w, r, h.logger, http.StatusCreated, CreateBookingResponse{
		Message:     "Booking request received successfully",
		Booking:     conf.Booking,
		Nights:      conf.Nights,
		Room:        conf.RoomLabel,
		QuotedPrice: conf.QuotedPrice,
	})
}

// ListForGuest is the public lookup by guest email.
func (h *BookingHandler) ListForGuest(w http.ResponseWriter, r *http.Request) {
	hostelID := r.URL.Query().Get("hostel_id")
	if hostelID == "" {
		hostelID = h.hostelID
	}
	bookings, err := h.bookings.ListForGuest(r.Context(), hostelID, r.URL.Query().Get("email"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgBookingNotFound, "Failed to fetch bookings")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, BookingsResponse{Bookings: bookings})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.BookingFilter{
		HostelID: r.URL.Query().Get("hostel_id"),
		Status:   domain.BookingStatus(strings.ToLower(r.URL.Query().Get("status"))),
	}
	bookings, err := h.bookings.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgBookingNotFound, "Failed to fetch bookings")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, BookingsResponse{Bookings: bookings})
}

// UpdateStatus serves PATCH /api/admin/bookings/{id}.
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateBookingStatusRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	h.updateStatus(w, r, chi.URLParam(r, "id"), req.Status)
}

// UpdateStatusForm serves PUT /api/admin/bookings with the id in the body.
func (h *BookingHandler) UpdateStatusForm(w http.ResponseWriter, r *http.Request) {
	var req UpdateBookingStatusRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, r, h.logger, http.StatusBadRequest, "Missing required field: id")
		return
	}
	h.updateStatus(w, r, req.ID, req.Status)
}

func (h *BookingHandler) updateStatus(w http.ResponseWriter, r *http.Request, id, status string) {
	actor := middleware.AuthFromContext(r.Context())
	booking, err := h.bookings.UpdateStatus(r.Context(), actor, id, domain.BookingStatus(status))
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgBookingNotFound, "Failed to update booking")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, BookingResponse{Booking: booking})
}
