package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/service"
)

// PlantHandler serves the caller's plant collection
type PlantHandler struct {
	plants    *service.PlantService
	schedules *service.ScheduleService
	logger    *slog.Logger
}

func NewPlantHandler(plants *service.PlantService, schedules *service.ScheduleService, logger *slog.Logger) *PlantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlantHandler{plants: plants, schedules: schedules, logger: logger}
}

// PlantRequest is the create payload; every field is optional on update.
type PlantRequest struct {
	Name        *string `json:"name"`
	ImgURL      *string `json:"img_url"`
	Description *string `json:"description"`
}

// PlantResponse is the API view of a plant
type PlantResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ImgURL      string    `json:"img_url"`
	Description string    `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPlantResponse(p *domain.Plant) PlantResponse {
	return PlantResponse{
		ID:          p.ID,
		Name:        p.Name,
		ImgURL:      p.ImgURL,
		Description: p.Description,
		UserID:      p.UserID,
		CreatedAt:   p.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create handles POST /api/plants
func (h *PlantHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	var req PlantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	plant, err := h.plants.Create(r.Context(), userID, service.PlantInput{
		Name:        deref(req.Name),
		ImgURL:      deref(req.ImgURL),
		Description: deref(req.Description),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlantResponse(plant))
}

// List handles GET /api/plants
func (h *PlantHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	plants, err := h.plants.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	out := make([]PlantResponse, 0, len(plants))
	for _, p := range plants {
		out = append(out, toPlantResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/plants/{id}
func (h *PlantHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	plant, err := h.plants.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlantResponse(plant))
}

// Update handles PATCH /api/plants/{id}
func (h *PlantHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req PlantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	plant, err := h.plants.Update(r.Context(), userID, id, domain.PlantPatch{
		Name:        req.Name,
		ImgURL:      req.ImgURL,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlantResponse(plant))
}

// Delete handles DELETE /api/plants/{id}
func (h *PlantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.plants.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "plant deleted"})
}

// Schedules handles GET /api/plants/{id}/schedules
func (h *PlantHandler) Schedules(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	views, err := h.schedules.ListForPlant(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponses(views))
}

func (h *PlantHandler) target(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	return resolveTarget(w, r, h.logger)
}

// resolveTarget extracts the caller and the {id} path value, answering the
// request itself when either is unusable.
func resolveTarget(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, int64, bool) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, logger, err)
		return 0, 0, false
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, logger, err)
		return 0, 0, false
	}
	return userID, id, true
}
