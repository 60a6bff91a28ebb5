package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tkloetzk/smartgarden/internal/config"
	"github.com/tkloetzk/smartgarden/internal/handlers"
	"github.com/tkloetzk/smartgarden/internal/middleware"
	"github.com/tkloetzk/smartgarden/internal/repository"
	"github.com/tkloetzk/smartgarden/internal/services"
)

type Server struct {
	router *chi.Mux
	config config.Config
}

func New(database *sql.DB, cfg config.Config, authService *services.AuthService) *Server {
	userRepo := repository.NewUserRepository(database)
	plantRepo := repository.NewPlantRepository(database)
	varietyRepo := repository.NewVarietyRepository(database)
	activityRepo := repository.NewCareActivityRepository(database)
	bypassRepo := repository.NewBypassRepository(database)
	tokenRepo := repository.NewAPITokenRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)

	taskService := services.NewTaskService(plantRepo, varietyRepo, activityRepo, bypassRepo)
	analyzer := services.NewBypassAnalyzer(bypassRepo)
	exportService := services.NewExportService(plantRepo, activityRepo, bypassRepo)

	authHandler := handlers.NewAuthHandler(authService)
	plantHandler := handlers.NewPlantHandler(plantRepo, varietyRepo, taskService)
	activityHandler := handlers.NewActivityHandler(activityRepo, plantRepo)
	varietyHandler := handlers.NewVarietyHandler(varietyRepo)
	taskHandler := handlers.NewTaskHandler(taskService, analyzer)
	icalHandler := handlers.NewICalHandler(taskService, tokenRepo, settingsRepo)
	exportHandler := handlers.NewExportHandler(exportService)
	adminHandler := handlers.NewAdminHandler(userRepo, tokenRepo, settingsRepo)

	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/login", authHandler.Login)
	router.Get("/auth/callback", authHandler.Callback)
	router.Get("/logout", authHandler.Logout)

	router.Get("/ical", icalHandler.Feed)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(authService))

		r.Get("/api/plants", plantHandler.ListPlants)
		r.Post("/api/plants", plantHandler.CreatePlant)
		r.Get("/api/plants/{id}", plantHandler.GetPlant)
		r.Put("/api/plants/{id}", plantHandler.UpdatePlant)
		r.Delete("/api/plants/{id}", plantHandler.DeactivatePlant)
		r.Post("/api/plants/{id}/stage", plantHandler.ConfirmStage)

		r.Get("/api/plants/{id}/activities", activityHandler.ListActivities)
		r.Post("/api/plants/{id}/activities", activityHandler.LogActivity)
		r.Get("/api/plants/{id}/tasks", taskHandler.PlantTasks)

		r.Get("/api/varieties", varietyHandler.ListVarieties)
		r.Post("/api/varieties", varietyHandler.CreateVariety)
		r.Get("/api/varieties/{id}", varietyHandler.GetVariety)
		r.Put("/api/varieties/{id}", varietyHandler.UpdateVariety)

		r.Get("/api/tasks", taskHandler.Dashboard)
		r.Get("/api/tasks/stats", taskHandler.TaskStats)
		r.Post("/api/tasks/bypass", taskHandler.RecordBypass)
		r.Get("/api/insights", taskHandler.BypassInsights)

		r.Get("/api/export/care-log.xlsx", exportHandler.CareLog)
		r.Get("/api/settings", adminHandler.GetSettings)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/api/users", adminHandler.ListUsers)
			r.Post("/api/users/{id}/role", adminHandler.UpdateUserRole)
			r.Get("/api/tokens", adminHandler.ListTokens)
			r.Post("/api/tokens", adminHandler.CreateToken)
			r.Delete("/api/tokens/{id}", adminHandler.DeleteToken)
			r.Put("/api/settings", adminHandler.UpdateSettings)
		})
	})

	// Machine endpoints for automations, authenticated with bearer tokens.
	router.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(tokenRepo, userRepo))

		r.Get("/api/ext/tasks", taskHandler.Dashboard)
		r.Get("/api/ext/tasks/stats", taskHandler.TaskStats)
		r.Get("/api/ext/plants", plantHandler.ListPlants)
	})

	server := &Server{
		router: router,
		config: cfg,
	}

	return server
}

func (server *Server) Start() error {
	address := ":" + server.config.Port
	slog.Info("starting server", "address", address)
	return http.ListenAndServe(address, server.router)
}
