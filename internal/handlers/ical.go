package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/tkloetzk/smartgarden/internal/repository"
	"github.com/tkloetzk/smartgarden/internal/services"
)

type ICalHandler struct {
	taskService  *services.TaskService
	tokenRepo    repository.APITokenRepository
	settingsRepo repository.SettingsRepository
}

func NewICalHandler(
	taskService *services.TaskService,
	tokenRepo repository.APITokenRepository,
	settingsRepo repository.SettingsRepository,
) *ICalHandler {
	return &ICalHandler{
		taskService:  taskService,
		tokenRepo:    tokenRepo,
		settingsRepo: settingsRepo,
	}
}

// Feed serves the care schedule as an iCal calendar. Authenticated with an
// "ical" scoped token passed as a query parameter so calendar apps can
// subscribe to the URL directly.
func (handler *ICalHandler) Feed(w http.ResponseWriter, r *http.Request) {
	rawToken := r.URL.Query().Get("token")
	if rawToken == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := handler.tokenRepo.FindByTokenHash(r.Context(), repository.HashToken(rawToken))
	if err != nil || token.Scope != repository.TokenScopeICal {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
		http.Error(w, "Token expired", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	now := time.Now()

	gardenName := "Smart Garden"
	if name, err := handler.settingsRepo.Get(ctx, repository.SettingGardenName); err == nil && name != "" {
		gardenName = name
	}

	set := handler.taskService.DashboardTasks(ctx, token.CreatedByUserID, now)
	for _, warning := range set.Warnings {
		slog.Warn("building ical feed", "warning", warning)
	}

	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId("-//" + gardenName + "//Care Schedule//EN")
	calendar.SetXWRCalName(gardenName + " Care Schedule")

	for _, category := range set.Groups {
		for _, group := range category.Groups {
			for _, task := range group.Tasks {
				event := calendar.AddEvent(task.ID + "@smartgarden")
				event.SetDtStampTime(now)
				event.SetAllDayStartAt(task.DueDate)
				event.SetAllDayEndAt(task.DueDate.AddDate(0, 0, 1))
				event.SetSummary(fmt.Sprintf("%s: %s", task.PlantName, task.TaskName))
				event.SetDescription(taskDescription(task))
			}
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=care-schedule.ics")
	if err := calendar.SerializeTo(w); err != nil {
		slog.Error("serializing ical feed", "error", err)
	}
}

func taskDescription(task services.ScheduledTask) string {
	description := fmt.Sprintf("%s (%s stage)", task.VarietyName, task.Stage)
	if task.Product != "" {
		description += "\nProduct: " + task.Product
		if task.Dilution != "" {
			description += " at " + task.Dilution
		}
	}
	if task.Amount != "" {
		description += "\nAmount: " + task.Amount
	}
	if task.Method != "" {
		description += "\nMethod: " + task.Method
	}
	return description
}
