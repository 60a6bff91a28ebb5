package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/tkloetzk/smartgarden/internal/config"
	"github.com/tkloetzk/smartgarden/internal/database"
	"github.com/tkloetzk/smartgarden/internal/repository"
	"github.com/tkloetzk/smartgarden/internal/server"
	"github.com/tkloetzk/smartgarden/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	varietyRepo := repository.NewVarietyRepository(db)
	if err := database.SeedVarieties(ctx, varietyRepo); err != nil {
		slog.Error("seeding varieties", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	authService, err := services.NewAuthService(ctx, cfg, userRepo)
	if err != nil {
		slog.Error("creating auth service", "error", err)
		os.Exit(1)
	}

	plantRepo := repository.NewPlantRepository(db)
	activityRepo := repository.NewCareActivityRepository(db)
	bypassRepo := repository.NewBypassRepository(db)
	taskService := services.NewTaskService(plantRepo, varietyRepo, activityRepo, bypassRepo)

	go runReminderChecker(userRepo, taskService)

	srv := server.New(db, cfg, authService)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// runReminderChecker periodically recomputes each user's schedule and logs
// how much work is due or overdue. Computation is read-only, so running it
// on a timer never mutates the schedule.
func runReminderChecker(userRepo repository.UserRepository, taskService *services.TaskService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		ctx := context.Background()
		now := time.Now()

		users, err := userRepo.FindAll(ctx)
		if err != nil {
			slog.Error("loading users for reminder check", "error", err)
			<-ticker.C
			continue
		}

		for _, user := range users {
			set := taskService.DashboardTasks(ctx, user.ID, now)

			var dueToday, overdue int
			for _, category := range set.Groups {
				for _, group := range category.Groups {
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

			if dueToday > 0 || overdue > 0 {
				slog.Info("care tasks pending",
					"user_id", user.ID,
					"due_today", dueToday,
					"overdue", overdue)
			}
		}

		<-ticker.C
	}
}
