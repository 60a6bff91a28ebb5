package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tkloetzk/smartgarden/internal/middleware"
	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
	"github.com/tkloetzk/smartgarden/internal/services"
)

type PlantHandler struct {
	plantRepo   repository.PlantRepository
	varietyRepo repository.VarietyRepository
	taskService *services.TaskService
}

func NewPlantHandler(
	plantRepo repository.PlantRepository,
	varietyRepo repository.VarietyRepository,
	taskService *services.TaskService,
) *PlantHandler {
	return &PlantHandler{
		plantRepo:   plantRepo,
		varietyRepo: varietyRepo,
		taskService: taskService,
	}
}

func (handler *PlantHandler) ListPlants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	filter := repository.PlantFilter{UserID: &user.ID}
	if r.URL.Query().Get("include_inactive") == "" {
		filter.ActiveOnly = true
	}
	if varietyID := r.URL.Query().Get("variety_id"); varietyID != "" {
		filter.VarietyID = &varietyID
	}

	plants, err := handler.plantRepo.FindAll(ctx, filter)
	if err != nil {
		slog.Error("listing plants", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load plants"})
		return
	}
	writeJSON(w, http.StatusOK, plants)
}

func (handler *PlantHandler) GetPlant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plant, err := handler.plantRepo.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plant not found"})
		return
	}
	writeJSON(w, http.StatusOK, plant)
}

type plantRequest struct {
	Name          string                     `json:"name"`
	VarietyID     string                     `json:"variety_id"`
	PlantedDate   string                     `json:"planted_date"`
	ReminderPrefs models.ReminderPreferences `json:"reminder_prefs"`
}

func (handler *PlantHandler) CreatePlant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var req plantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.VarietyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and variety_id are required"})
		return
	}

	if _, err := handler.varietyRepo.FindByID(ctx, req.VarietyID); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown variety"})
		return
	}

	plantedDate, err := time.Parse("2006-01-02", req.PlantedDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "planted_date must be YYYY-MM-DD"})
		return
	}

	plant := models.Plant{
		UserID:             user.ID,
		Name:               req.Name,
		VarietyID:          req.VarietyID,
		PlantedDate:        plantedDate,
		GrowthRateModifier: 1.0,
		Active:             true,
		ReminderPrefs:      req.ReminderPrefs,
	}

	created, err := handler.plantRepo.Create(ctx, plant)
	if err != nil {
		slog.Error("creating plant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create plant"})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *PlantHandler) UpdatePlant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plant, err := handler.plantRepo.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plant not found"})
		return
	}

	var req plantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name != "" {
		plant.Name = req.Name
	}
	if req.PlantedDate != "" {
		plantedDate, err := time.Parse("2006-01-02", req.PlantedDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "planted_date must be YYYY-MM-DD"})
			return
		}
		plant.PlantedDate = plantedDate
	}
	if req.ReminderPrefs != nil {
		plant.ReminderPrefs = req.ReminderPrefs
	}

	if err := handler.plantRepo.Update(ctx, plant); err != nil {
		slog.Error("updating plant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update plant"})
		return
	}
	writeJSON(w, http.StatusOK, plant)
}

func (handler *PlantHandler) DeactivatePlant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := handler.plantRepo.Deactivate(ctx, chi.URLParam(r, "id")); err != nil {
		slog.Error("deactivating plant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to deactivate plant"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type confirmStageRequest struct {
	Stage       string `json:"stage"`
	ConfirmedAt string `json:"confirmed_at"`
}

func (handler *PlantHandler) ConfirmStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req confirmStageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	confirmedAt := time.Now()
	if req.ConfirmedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.ConfirmedAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "confirmed_at must be YYYY-MM-DD"})
			return
		}
		confirmedAt = parsed
	}

	plant, err := handler.taskService.ConfirmStage(ctx, chi.URLParam(r, "id"), models.Stage(req.Stage), confirmedAt)
	if err != nil {
		if errors.Is(err, services.ErrUnknownStage) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown stage"})
			return
		}
		slog.Error("confirming stage", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to confirm stage"})
		return
	}
	writeJSON(w, http.StatusOK, plant)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}
