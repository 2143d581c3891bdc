package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/service"
)

// ScheduleHandler serves care schedules on the caller's plants
type ScheduleHandler struct {
	schedules *service.ScheduleService
	logger    *slog.Logger
}

func NewScheduleHandler(schedules *service.ScheduleService, logger *slog.Logger) *ScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleHandler{schedules: schedules, logger: logger}
}

// CreateScheduleRequest is the create payload
type CreateScheduleRequest struct {
	PlantID      int64  `json:"plant_id"`
	Task         string `json:"task"`
	ScheduleDate string `json:"schedule_date"`
	Interval     string `json:"interval"`
}

// UpdateScheduleRequest is a partial update; the plant cannot change.
type UpdateScheduleRequest struct {
	Task         *string `json:"task"`
	ScheduleDate *string `json:"schedule_date"`
	Interval     *string `json:"interval"`
}

// ScheduleResponse is a schedule with its plant and derived due state.
// NextDueDate is null when the stored interval has no defined successor.
type ScheduleResponse struct {
	ID           int64     `json:"id"`
	Task         string    `json:"task"`
	ScheduleDate string    `json:"schedule_date"`
	Interval     string    `json:"interval"`
	PlantID      int64     `json:"plant_id"`
	PlantName    string    `json:"plant_name"`
	UserID       int64     `json:"user_id"`
	NextDueDate  *string   `json:"next_due_date"`
	IsDue        bool      `json:"is_due"`
	CreatedAt    time.Time `json:"created_at"`
}

func toScheduleResponse(v *service.ScheduleView) ScheduleResponse {
	resp := ScheduleResponse{
		ID:           v.Schedule.ID,
		Task:         string(v.Schedule.Task),
		ScheduleDate: v.Schedule.ScheduleDate.Format(domain.DateLayout),
		Interval:     string(v.Schedule.Interval),
		PlantID:      v.Schedule.PlantID,
		PlantName:    v.PlantName,
		UserID:       v.OwnerID,
		IsDue:        v.Due,
		CreatedAt:    v.Schedule.CreatedAt,
	}
	if v.NextDue != nil {
		next := v.NextDue.Format(domain.DateLayout)
		resp.NextDueDate = &next
	}
	return resp
}

func toScheduleResponses(views []*service.ScheduleView) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toScheduleResponse(v))
	}
	return out
}

// Create handles POST /api/care_schedules
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	var req CreateScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	view, err := h.schedules.Create(r.Context(), userID, service.ScheduleInput{
		PlantID:      req.PlantID,
		Task:         req.Task,
		ScheduleDate: req.ScheduleDate,
		Interval:     req.Interval,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(view))
}

// List handles GET /api/care_schedules
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	views, err := h.schedules.ListOwned(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponses(views))
}

// Due handles GET /api/care_schedules/due
func (h *ScheduleHandler) Due(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	views, err := h.schedules.ListDue(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponses(views))
}

// Update handles PATCH /api/care_schedules/{id}
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	var req UpdateScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	view, err := h.schedules.Update(r.Context(), userID, id, domain.SchedulePatch{
		Task:         req.Task,
		ScheduleDate: req.ScheduleDate,
		Interval:     req.Interval,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(view))
}

// Delete handles DELETE /api/care_schedules/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.schedules.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "care schedule deleted"})
}
