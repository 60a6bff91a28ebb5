package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
)

type ActivityHandler struct {
	activityRepo repository.CareActivityRepository
	plantRepo    repository.PlantRepository
}

func NewActivityHandler(
	activityRepo repository.CareActivityRepository,
	plantRepo repository.PlantRepository,
) *ActivityHandler {
	return &ActivityHandler{activityRepo: activityRepo, plantRepo: plantRepo}
}

func (handler *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plantID := chi.URLParam(r, "id")

	if _, err := handler.plantRepo.FindByID(ctx, plantID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plant not found"})
		return
	}

	filter := repository.ActivityFilter{}
	if activityType := r.URL.Query().Get("type"); activityType != "" {
		t := models.ActivityType(activityType)
		filter.Type = &t
	}
	if since := r.URL.Query().Get("since"); since != "" {
		parsed, err := time.Parse("2006-01-02", since)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "since must be YYYY-MM-DD"})
			return
		}
		filter.Since = &parsed
	}

	activities, err := handler.activityRepo.FindByPlant(ctx, plantID, filter)
	if err != nil {
		slog.Error("listing activities", "error", err, "plant_id", plantID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load activities"})
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

type activityRequest struct {
	Type     string                 `json:"type"`
	LoggedAt string                 `json:"logged_at"`
	Details  models.ActivityDetails `json:"details"`
	Note     string                 `json:"note"`
}

func (handler *ActivityHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plantID := chi.URLParam(r, "id")

	if _, err := handler.plantRepo.FindByID(ctx, plantID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plant not found"})
		return
	}

	var req activityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	activityType := models.ActivityType(req.Type)
	if !activityType.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown activity type"})
		return
	}

	loggedAt := time.Now()
	if req.LoggedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.LoggedAt)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", req.LoggedAt)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "logged_at must be RFC 3339 or YYYY-MM-DD"})
				return
			}
		}
		loggedAt = parsed
	}

	activity := models.CareActivity{
		PlantID:  plantID,
		Type:     activityType,
		LoggedAt: loggedAt,
		Details:  req.Details,
		Note:     req.Note,
	}

	created, err := handler.activityRepo.Create(ctx, activity)
	if err != nil {
		slog.Error("logging activity", "error", err, "plant_id", plantID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log activity"})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
