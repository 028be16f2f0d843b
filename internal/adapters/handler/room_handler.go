package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

const msgRoomNotFound = "Room not found"

type RoomHandler struct {
	rooms  ports.RoomService
	logger *slog.Logger
}

func NewRoomHandler(rooms ports.RoomService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, logger: logger}
}

type RoomRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	BedCount      *int     `json:"bed_count"`
	RoomType      *string  `json:"room_type"`
	PricePerNight *float64 `json:"price_per_night"`
	MaxGuests     *int     `json:"max_guests"`
	Available     *bool    `json:"available"`
	Features      []string `json:"features"`
	SortOrder     *int     `json:"sort_order"`
}

type RoomResponse struct {
	Room *domain.Room `json:"room"`
}

type RoomsResponse struct {
	Rooms []domain.Room `json:"rooms"`
}

// ListAvailable is the public room catalogue.
func (h *RoomHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *RoomHandler) list(w http.ResponseWriter, r *http.Request, availableOnly bool) {
	rooms, err := h.rooms.List(r.Context(), availableOnly)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgRoomNotFound, "Failed to fetch rooms")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, RoomsResponse{Rooms: rooms})
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	room := domain.Room{
		Description: req.Description,
		Available:   true,
		Features:    req.Features,
	}
	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.BedCount != nil {
		room.BedCount = *req.BedCount
	}
	if req.RoomType != nil {
		room.RoomType = domain.RoomType(*req.RoomType)
	}
	if req.PricePerNight != nil {
		room.PricePerNight = *req.PricePerNight
	}
	if req.MaxGuests != nil {
		room.MaxGuests = *req.MaxGuests
	}
	if req.Available != nil {
		room.Available = *req.Available
	}
	if req.SortOrder != nil {
		room.SortOrder = *req.SortOrder
	}

	created, err := h.rooms.Create(r.Context(), room)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgRoomNotFound, "Failed to create room")
		return
	}
	writeJSON(w, r, h.logger, http.StatusCreated, RoomResponse{Room: created})
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	patch := domain.RoomPatch{
		Name:          req.Name,
		Description:   req.Description,
		BedCount:      req.BedCount,
		PricePerNight: req.PricePerNight,
		MaxGuests:     req.MaxGuests,
		Available:     req.Available,
		Features:      req.Features,
		SortOrder:     req.SortOrder,
	}
	if req.RoomType != nil {
		roomType := domain.RoomType(*req.RoomType)
		patch.RoomType = &roomType
	}

	room, err := h.rooms.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgRoomNotFound, "Failed to update room")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, RoomResponse{Room: room})
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.rooms.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err, msgRoomNotFound, "Failed to delete room")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, SuccessResponse{Success: true})
}
