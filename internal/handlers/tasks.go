package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tkloetzk/smartgarden/internal/middleware"
	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
	analyzer    *services.BypassAnalyzer
}

func NewTaskHandler(taskService *services.TaskService, analyzer *services.BypassAnalyzer) *TaskHandler {
	return &TaskHandler{taskService: taskService, analyzer: analyzer}
}

// Dashboard returns the grouped, prioritized task view for the current user.
func (handler *TaskHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	set := handler.taskService.DashboardTasks(ctx, user.ID, time.Now())
	writeJSON(w, http.StatusOK, set)
}

func (handler *TaskHandler) PlantTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plantID := chi.URLParam(r, "id")

	tasks, err := handler.taskService.PlantTasks(ctx, plantID, time.Now())
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plant not found"})
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (handler *TaskHandler) TaskStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)
	now := time.Now()

	set := handler.taskService.DashboardTasks(ctx, user.ID, now)

	var dueToday, overdue, total int
	for _, category := range set.Groups {
		for _, group := range category.Groups {
			total += len(group.Tasks)
			for _, task := range group.Tasks {
				status := services.ComputeStatus(task, now)
				switch {
				case status.Overdue:
					overdue++
				case status.DueIn == "due today":
					dueToday++
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks_due_today": dueToday,
		"tasks_overdue":   overdue,
		"tasks_total":     total,
	})
}

type bypassRequest struct {
	TaskID        string `json:"task_id"`
	PlantID       string `json:"plant_id"`
	TaskType      string `json:"task_type"`
	Reason        string `json:"reason"`
	ScheduledDate string `json:"scheduled_date"`
	PlantStage    string `json:"plant_stage"`
	Moisture      string `json:"moisture"`
	Weather       string `json:"weather"`
}

func (handler *TaskHandler) RecordBypass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req bypassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.TaskID == "" || req.PlantID == "" || req.Reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task_id, plant_id and reason are required"})
		return
	}

	scheduledDate, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scheduled_date must be YYYY-MM-DD"})
		return
	}

	bypass := models.TaskBypass{
		TaskID:        req.TaskID,
		PlantID:       req.PlantID,
		TaskType:      models.TaskCategory(req.TaskType),
		Reason:        req.Reason,
		ScheduledDate: scheduledDate,
		BypassedAt:    time.Now(),
		PlantStage:    models.Stage(req.PlantStage),
	}
	if req.Moisture != "" {
		bypass.Moisture = &req.Moisture
	}
	if req.Weather != "" {
		bypass.Weather = &req.Weather
	}

	created, err := handler.analyzer.RecordBypass(ctx, bypass)
	if err != nil {
		slog.Error("recording bypass", "error", err, "task_id", req.TaskID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record bypass"})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *TaskHandler) BypassInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plantID := r.URL.Query().Get("plant_id")

	if r.URL.Query().Get("patterns") != "" {
		monthsBack := 0
		if raw := r.URL.Query().Get("months"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "months must be a positive integer"})
				return
			}
			monthsBack = parsed
		}
		patterns, err := handler.analyzer.Patterns(ctx, plantID, monthsBack)
		if err != nil {
			slog.Error("mining bypass patterns", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to analyze bypasses"})
			return
		}
		writeJSON(w, http.StatusOK, patterns)
		return
	}

	insights, err := handler.analyzer.Insights(ctx, plantID)
	if err != nil {
		slog.Error("building bypass insights", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to analyze bypasses"})
		return
	}
	writeJSON(w, http.StatusOK, insights)
}
