package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
	"github.com/tkloetzk/smartgarden/internal/services"
	"github.com/tkloetzk/smartgarden/internal/testutil"
)

func setupTaskHandler(t *testing.T) (*TaskHandler, models.User, *sql.DB) {
	t.Helper()
	database := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(database)
	plantRepo := repository.NewPlantRepository(database)
	varietyRepo := repository.NewVarietyRepository(database)
	activityRepo := repository.NewCareActivityRepository(database)
	bypassRepo := repository.NewBypassRepository(database)

	taskService := services.NewTaskService(plantRepo, varietyRepo, activityRepo, bypassRepo)
	analyzer := services.NewBypassAnalyzer(bypassRepo)

	user, err := userRepo.Create(context.Background(), models.User{
		OIDCSubject: "sub-" + time.Now().String(),
		Email:       "test@example.com",
		Name:        "Test User",
		Role:        models.RoleMember,
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}

	return NewTaskHandler(taskService, analyzer), user, database
}

func TestDashboard_ReturnsTaskSet(t *testing.T) {
	handler, user, database := setupTaskHandler(t)
	variety := createTestVariety(t, database)
	plantRepo := repository.NewPlantRepository(database)

	// Planted yesterday, so germination watering is already in play.
	plantRepo.Create(context.Background(), models.Plant{
		UserID: user.ID, Name: "Tomato", VarietyID: variety.ID, Active: true,
		PlantedDate: time.Now().AddDate(0, 0, -1), GrowthRateModifier: 1.0,
	})

	router := chi.NewRouter()
	router.Get("/api/tasks", handler.Dashboard)

	request := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	request = requestWithUser(request, user)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var set services.TaskSet
	if err := json.NewDecoder(recorder.Body).Decode(&set); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(set.Groups) == 0 {
		t.Error("expected at least one task group")
	}
	if len(set.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", set.Warnings)
	}
}

func TestRecordBypass(t *testing.T) {
	handler, user, database := setupTaskHandler(t)
	variety := createTestVariety(t, database)
	plantRepo := repository.NewPlantRepository(database)

	plant, _ := plantRepo.Create(context.Background(), models.Plant{
		UserID: user.ID, Name: "Tomato", VarietyID: variety.ID, Active: true,
		PlantedDate: time.Now(), GrowthRateModifier: 1.0,
	})

	router := chi.NewRouter()
	router.Post("/api/tasks/bypass", handler.RecordBypass)

	body := `{
		"task_id": "task-1",
		"plant_id": "` + plant.ID + `",
		"task_type": "watering",
		"reason": "soil still wet",
		"scheduled_date": "2024-06-10",
		"plant_stage": "vegetative",
		"weather": "rain"
	}`
	request := httptest.NewRequest(http.MethodPost, "/api/tasks/bypass", strings.NewReader(body))
	request = requestWithUser(request, user)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	bypassRepo := repository.NewBypassRepository(database)
	stored, err := bypassRepo.FindByTaskID(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("finding stored bypass: %v", err)
	}
	if stored.Reason != "soil still wet" || stored.TaskType != models.TaskWatering {
		t.Errorf("stored = %+v", stored)
	}
	if stored.Weather == nil || *stored.Weather != "rain" {
		t.Errorf("weather = %v, want rain", stored.Weather)
	}
}

func TestRecordBypass_RequiresReason(t *testing.T) {
	handler, user, _ := setupTaskHandler(t)

	router := chi.NewRouter()
	router.Post("/api/tasks/bypass", handler.RecordBypass)

	body := `{"task_id": "task-1", "plant_id": "p1", "scheduled_date": "2024-06-10"}`
	request := httptest.NewRequest(http.MethodPost, "/api/tasks/bypass", strings.NewReader(body))
	request = requestWithUser(request, user)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

func TestBypassInsights(t *testing.T) {
	handler, user, database := setupTaskHandler(t)
	variety := createTestVariety(t, database)
	plantRepo := repository.NewPlantRepository(database)
	bypassRepo := repository.NewBypassRepository(database)
	ctx := context.Background()

	plant, _ := plantRepo.Create(ctx, models.Plant{
		UserID: user.ID, Name: "Tomato", VarietyID: variety.ID, Active: true,
		PlantedDate: time.Now(), GrowthRateModifier: 1.0,
	})

	now := time.Now()
	for i := 0; i < 3; i++ {
		bypassRepo.Create(ctx, models.TaskBypass{
			TaskID:        "task-" + string(rune('a'+i)),
			PlantID:       plant.ID,
			TaskType:      models.TaskWatering,
			Reason:        "looks healthy",
			ScheduledDate: now.AddDate(0, 0, -7*i),
			BypassedAt:    now.AddDate(0, 0, -7*i),
		})
	}

	router := chi.NewRouter()
	router.Get("/api/insights", handler.BypassInsights)

	request := httptest.NewRequest(http.MethodGet, "/api/insights?plant_id="+plant.ID, nil)
	request = requestWithUser(request, user)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var insights []services.BypassInsight
	if err := json.NewDecoder(recorder.Body).Decode(&insights); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("got %d insights, want 1", len(insights))
	}
	if insights[0].Pattern.Count != 3 {
		t.Errorf("pattern count = %d, want 3", insights[0].Pattern.Count)
	}
	if insights[0].Recommendation == "" {
		t.Error("expected a recommendation")
	}
}

func TestTaskStats(t *testing.T) {
	handler, user, database := setupTaskHandler(t)
	variety := createTestVariety(t, database)
	plantRepo := repository.NewPlantRepository(database)

	// Planted five days ago: watering due on days 0, 2 and 4 means the
	// plant has overdue work.
	plantRepo.Create(context.Background(), models.Plant{
		UserID: user.ID, Name: "Tomato", VarietyID: variety.ID, Active: true,
		PlantedDate: time.Now().AddDate(0, 0, -5), GrowthRateModifier: 1.0,
	})

	router := chi.NewRouter()
	router.Get("/api/tasks/stats", handler.TaskStats)

	request := httptest.NewRequest(http.MethodGet, "/api/tasks/stats", nil)
	request = requestWithUser(request, user)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var stats map[string]int
	if err := json.NewDecoder(recorder.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if stats["tasks_overdue"] == 0 {
		t.Errorf("stats = %v, expected overdue work", stats)
	}
}
