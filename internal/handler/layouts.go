package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/service"
)

// LayoutHandler serves the caller's garden layouts
type LayoutHandler struct {
	layouts *service.LayoutService
	logger  *slog.Logger
}

func NewLayoutHandler(layouts *service.LayoutService, logger *slog.Logger) *LayoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayoutHandler{layouts: layouts, logger: logger}
}

// LayoutRequest carries layout_data untouched; it may be any JSON value.
type LayoutRequest struct {
	Name       *string         `json:"name"`
	LayoutData json.RawMessage `json:"layout_data"`
}

// LayoutResponse is the API view of a garden layout
type LayoutResponse struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	UserID     int64           `json:"user_id"`
	LayoutData json.RawMessage `json:"layout_data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func toLayoutResponse(l *domain.GardenLayout) LayoutResponse {
	return LayoutResponse{
		ID:         l.ID,
		Name:       l.Name,
		UserID:     l.UserID,
		LayoutData: l.LayoutData,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

// Create handles POST /api/layouts
func (h *LayoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	var req LayoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	layout, err := h.layouts.Create(r.Context(), userID, deref(req.Name), req.LayoutData)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLayoutResponse(layout))
}

// List handles GET /api/layouts
func (h *LayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	layouts, err := h.layouts.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	out := make([]LayoutResponse, 0, len(layouts))
	for _, l := range layouts {
		out = append(out, toLayoutResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/layouts/{id}
func (h *LayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	layout, err := h.layouts.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toLayoutResponse(layout))
}

// Update handles PATCH /api/layouts/{id}
func (h *LayoutHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	var req LayoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	layout, err := h.layouts.Update(r.Context(), userID, id, domain.LayoutPatch{
		Name:       req.Name,
		LayoutData: req.LayoutData,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toLayoutResponse(layout))
}

// Delete handles DELETE /api/layouts/{id}
func (h *LayoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := resolveTarget(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.layouts.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "layout deleted"})
}
