package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
)

var ErrUnknownStage = errors.New("unknown growth stage")

// TaskSet is the dashboard payload: grouped actionable work plus the next
// upcoming task per plant. Warnings carry degradation reasons (plants
// skipped, data unavailable) so callers can choose to surface them; a
// degraded set is still served rather than failing the dashboard.
type TaskSet struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Groups      []CategoryGroup `json:"groups"`
	Upcoming    []ScheduledTask `json:"upcoming"`
	Warnings    []string        `json:"warnings,omitempty"`
}

// activityCategories maps logged activity types to the task category whose
// completion they represent. Types absent here (photo, note, harvest) do not
// complete scheduled work.
var activityCategories = map[models.ActivityType]models.TaskCategory{
	models.ActivityWater:      models.TaskWatering,
	models.ActivityFertilize:  models.TaskFertilizing,
	models.ActivityObserve:    models.TaskObservation,
	models.ActivityPrune:      models.TaskMaintenance,
	models.ActivityTransplant: models.TaskMaintenance,
	models.ActivityThin:       models.TaskMaintenance,
}

// TaskService runs the scheduling pipeline: resolve stage, transpile the
// variety protocol, adjust dates from completion history, then filter and
// group for display. All dependencies are injected so tests can substitute
// repositories without global state.
type TaskService struct {
	plantRepo    repository.PlantRepository
	varietyRepo  repository.VarietyRepository
	activityRepo repository.CareActivityRepository
	bypassRepo   repository.BypassRepository
}

func NewTaskService(
	plantRepo repository.PlantRepository,
	varietyRepo repository.VarietyRepository,
	activityRepo repository.CareActivityRepository,
	bypassRepo repository.BypassRepository,
) *TaskService {
	return &TaskService{
		plantRepo:    plantRepo,
		varietyRepo:  varietyRepo,
		activityRepo: activityRepo,
		bypassRepo:   bypassRepo,
	}
}

// DashboardTasks computes the task groups for all of a user's active plants
// as of now. Recomputation is idempotent; nothing is persisted.
func (service *TaskService) DashboardTasks(ctx context.Context, userID string, now time.Time) TaskSet {
	set := TaskSet{GeneratedAt: now}

	plants, err := service.plantRepo.FindAll(ctx, repository.PlantFilter{UserID: &userID, ActiveOnly: true})
	if err != nil {
		slog.Error("loading plants for task generation", "error", err)
		set.Warnings = append(set.Warnings, "plants could not be loaded; showing an empty schedule")
		return set
	}

	var relevant []ScheduledTask
	for _, plant := range plants {
		tasks, warning := service.pendingTasksForPlant(ctx, plant, now)
		if warning != "" {
			set.Warnings = append(set.Warnings, warning)
		}
		relevant = append(relevant, RelevantTasks(tasks, now)...)
	}

	set.Groups = ClassifyTasks(relevant, now)

	for _, task := range relevant {
		if daysBetween(now, task.DueDate) >= 0 {
			set.Upcoming = append(set.Upcoming, task)
		}
	}
	sort.Slice(set.Upcoming, func(i, j int) bool {
		if !set.Upcoming[i].DueDate.Equal(set.Upcoming[j].DueDate) {
			return set.Upcoming[i].DueDate.Before(set.Upcoming[j].DueDate)
		}
		return set.Upcoming[i].PlantID < set.Upcoming[j].PlantID
	})

	return set
}

// PlantTasks returns every pending task for one plant, due-date ordered,
// without the dashboard's one-task-per-plant reduction.
func (service *TaskService) PlantTasks(ctx context.Context, plantID string, now time.Time) ([]ScheduledTask, error) {
	plant, err := service.plantRepo.FindByID(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("finding plant: %w", err)
	}

	tasks, warning := service.pendingTasksForPlant(ctx, plant, now)
	if warning != "" {
		return nil, errors.New(warning)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].DueDate.Before(tasks[j].DueDate)
	})
	return tasks, nil
}

// pendingTasksForPlant runs the per-plant pipeline. A non-empty warning
// means the plant was skipped entirely (corrupt variety reference or
// unavailable history); a skipped plant degrades to a warning, never an
// error, so the dashboard still renders.
func (service *TaskService) pendingTasksForPlant(ctx context.Context, plant models.Plant, now time.Time) ([]ScheduledTask, string) {
	variety, err := service.varietyRepo.FindByID(ctx, plant.VarietyID)
	if err != nil {
		slog.Warn("skipping plant with unresolved variety", "plant", plant.ID, "variety", plant.VarietyID, "error", err)
		return nil, fmt.Sprintf("plant %q skipped: variety not found", plant.Name)
	}

	activities, err := service.activityRepo.FindByPlant(ctx, plant.ID, repository.ActivityFilter{})
	if err != nil {
		slog.Warn("skipping plant with unavailable history", "plant", plant.ID, "error", err)
		return nil, fmt.Sprintf("plant %q skipped: care history unavailable", plant.Name)
	}

	resolution := ResolveStageForPlant(plant, variety.GrowthTimeline, now)

	tasks := TranspileProtocol(variety, plant.PlantedDate, resolution.Stage)
	for i := range tasks {
		tasks[i].PlantID = plant.ID
		tasks[i].PlantName = plant.Name
		tasks[i].ID = TaskInstanceID(plant.ID, tasks[i].Stage, tasks[i].TaskName, tasks[i].DueDate)
	}

	rescheduler := buildRescheduler(plant.ID, tasks, activities)
	for i := range tasks {
		if !tasks[i].Adjustable {
			continue
		}
		adjusted := rescheduler.NextDueDate(plant.ID, tasks[i].Category, tasks[i].DueDate)
		if !adjusted.Equal(tasks[i].DueDate) {
			tasks[i].DueDate = adjusted
			tasks[i].Adjusted = true
		}
	}

	bypassed := service.bypassedTaskIDs(ctx, plant.ID)
	lastDone := latestActivityByCategory(activities)

	var pending []ScheduledTask
	for _, task := range tasks {
		if bypassed[task.ID] {
			continue
		}
		if !plant.ReminderPrefs.Enabled(task.Category) {
			continue
		}
		if done, ok := lastDone[task.Category]; ok && daysBetween(task.DueDate, done) >= 0 {
			// Already covered by a logged activity on or after the due date.
			continue
		}
		pending = append(pending, task)
	}
	return pending, ""
}

// buildRescheduler replays the plant's care history against the generated
// schedule, pairing each completing activity with the nearest-due task of
// its category. Activities arrive in chronological order from the
// repository, which the rescheduler's variance math depends on.
func buildRescheduler(plantID string, tasks []ScheduledTask, activities []models.CareActivity) *Rescheduler {
	rescheduler := NewRescheduler()
	for _, activity := range activities {
		category, ok := activityCategories[activity.Type]
		if !ok {
			continue
		}
		scheduled, found := nearestDueDate(tasks, category, activity.LoggedAt)
		if !found {
			continue
		}
		rescheduler.RecordCompletion(plantID, category, scheduled, activity.LoggedAt)
	}
	return rescheduler
}

func nearestDueDate(tasks []ScheduledTask, category models.TaskCategory, at time.Time) (time.Time, bool) {
	var best time.Time
	bestDistance := 0
	found := false
	for _, task := range tasks {
		if task.Category != category {
			continue
		}
		distance := daysBetween(task.DueDate, at)
		if distance < 0 {
			distance = -distance
		}
		if !found || distance < bestDistance {
			best = task.DueDate
			bestDistance = distance
			found = true
		}
	}
	return best, found
}

func latestActivityByCategory(activities []models.CareActivity) map[models.TaskCategory]time.Time {
	latest := make(map[models.TaskCategory]time.Time)
	for _, activity := range activities {
		category, ok := activityCategories[activity.Type]
		if !ok {
			continue
		}
		if existing, seen := latest[category]; !seen || activity.LoggedAt.After(existing) {
			latest[category] = activity.LoggedAt
		}
	}
	return latest
}

func (service *TaskService) bypassedTaskIDs(ctx context.Context, plantID string) map[string]bool {
	bypasses, err := service.bypassRepo.FindAll(ctx, repository.BypassFilter{PlantID: &plantID})
	if err != nil {
		slog.Warn("loading bypasses", "plant", plantID, "error", err)
		return nil
	}
	ids := make(map[string]bool, len(bypasses))
	for _, bypass := range bypasses {
		ids[bypass.TaskID] = true
	}
	return ids
}

// ConfirmStage records a user-confirmed stage on the plant and recalibrates
// its growth-rate modifier from the ratio between the actual and expected
// plant age at that transition.
func (service *TaskService) ConfirmStage(ctx context.Context, plantID string, stage models.Stage, confirmedAt time.Time) (models.Plant, error) {
	if models.StageIndex(stage) < 0 {
		return models.Plant{}, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}

	plant, err := service.plantRepo.FindByID(ctx, plantID)
	if err != nil {
		return models.Plant{}, fmt.Errorf("finding plant: %w", err)
	}
	variety, err := service.varietyRepo.FindByID(ctx, plant.VarietyID)
	if err != nil {
		return models.Plant{}, fmt.Errorf("finding variety: %w", err)
	}

	modifier := 1.0
	expected := stageStartDay(variety.GrowthTimeline, stage, 1.0)
	if expected > 0 && !plant.PlantedDate.IsZero() {
		actual := daysBetween(plant.PlantedDate, confirmedAt)
		if actual > 0 {
			modifier = roundToTenth(float64(actual) / float64(expected))
		}
	}
	if modifier <= 0 {
		modifier = 1.0
	}

	plant.ConfirmedStage = &stage
	plant.StageConfirmedAt = &confirmedAt
	plant.GrowthRateModifier = modifier

	if err := service.plantRepo.Update(ctx, plant); err != nil {
		return models.Plant{}, fmt.Errorf("updating plant: %w", err)
	}

	slog.Info("stage confirmed", "plant", plant.ID, "stage", stage, "modifier", modifier)
	return plant, nil
}
