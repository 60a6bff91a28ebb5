package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tkloetzk/smartgarden/internal/middleware"
	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
)

type VarietyHandler struct {
	varietyRepo repository.VarietyRepository
}

func NewVarietyHandler(varietyRepo repository.VarietyRepository) *VarietyHandler {
	return &VarietyHandler{varietyRepo: varietyRepo}
}

func (handler *VarietyHandler) ListVarieties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := repository.VarietyFilter{}
	if category := r.URL.Query().Get("category"); category != "" {
		c := models.VarietyCategory(category)
		filter.Category = &c
	}

	varieties, err := handler.varietyRepo.FindAll(ctx, filter)
	if err != nil {
		slog.Error("listing varieties", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load varieties"})
		return
	}
	writeJSON(w, http.StatusOK, varieties)
}

func (handler *VarietyHandler) GetVariety(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	variety, err := handler.varietyRepo.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "variety not found"})
		return
	}
	writeJSON(w, http.StatusOK, variety)
}

type varietyRequest struct {
	Name           string                                 `json:"name"`
	Category       string                                 `json:"category"`
	GrowthTimeline map[models.Stage]int                   `json:"growth_timeline"`
	CareProtocol   map[models.Stage][]models.ScheduleItem `json:"care_protocol"`
}

func validateTimeline(timeline map[models.Stage]int) error {
	for stage, days := range timeline {
		if models.StageIndex(stage) < 0 {
			return fmt.Errorf("unknown stage %q in growth timeline", stage)
		}
		if days < 0 {
			return fmt.Errorf("stage %q has negative duration", stage)
		}
	}
	return nil
}

func (handler *VarietyHandler) CreateVariety(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var req varietyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if err := validateTimeline(req.GrowthTimeline); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	variety := models.Variety{
		Name:            req.Name,
		Category:        models.VarietyCategory(req.Category),
		GrowthTimeline:  req.GrowthTimeline,
		CareProtocol:    req.CareProtocol,
		CreatedByUserID: user.ID,
	}

	created, err := handler.varietyRepo.Create(ctx, variety)
	if err != nil {
		slog.Error("creating variety", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create variety"})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *VarietyHandler) UpdateVariety(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	variety, err := handler.varietyRepo.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "variety not found"})
		return
	}

	var req varietyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name != "" {
		variety.Name = req.Name
	}
	if req.Category != "" {
		variety.Category = models.VarietyCategory(req.Category)
	}
	if req.GrowthTimeline != nil {
		if err := validateTimeline(req.GrowthTimeline); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		variety.GrowthTimeline = req.GrowthTimeline
	}
	if req.CareProtocol != nil {
		variety.CareProtocol = req.CareProtocol
	}

	if err := handler.varietyRepo.Update(ctx, variety); err != nil {
		slog.Error("updating variety", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update variety"})
		return
	}
	writeJSON(w, http.StatusOK, variety)
}
