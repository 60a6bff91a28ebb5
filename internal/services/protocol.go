package services

import (
	"fmt"
	"time"

	"github.com/tkloetzk/smartgarden/internal/models"
)

// ScheduledTask is one concrete, dated instance of protocol-driven care work.
// Tasks are derived values: regenerated on demand, never stored.
type ScheduledTask struct {
	ID             string              `json:"id"`
	PlantID        string              `json:"plant_id"`
	PlantName      string              `json:"plant_name"`
	VarietyName    string              `json:"variety_name"`
	TaskName       string              `json:"task_name"`
	Product        string              `json:"product,omitempty"`
	Dilution       string              `json:"dilution,omitempty"`
	Amount         string              `json:"amount,omitempty"`
	Method         string              `json:"method,omitempty"`
	DueDate        time.Time           `json:"due_date"`
	Stage          models.Stage        `json:"stage"`
	StartDayOffset int                 `json:"start_day_offset"`
	Category       models.TaskCategory `json:"category"`

	// Adjustable marks tasks from open-ended stages whose dates the
	// rescheduler may move; Adjusted reports that it actually did.
	Adjustable bool `json:"adjustable"`
	Adjusted   bool `json:"adjusted"`
}

// openEndedStages have no fixed end; their task dates follow the plant's
// observed rhythm rather than the calendar alone.
var openEndedStages = map[models.Stage]bool{
	models.StageOngoingProduction: true,
}

// TranspileProtocol expands a variety's declarative care protocol into dated
// task instances for one planting date. Stages strictly before startStage are
// never generated. Stages without a protocol entry yield nothing. Item fields
// are copied verbatim; no defaulting happens here.
func TranspileProtocol(variety models.Variety, plantedDate time.Time, startStage models.Stage) []ScheduledTask {
	if plantedDate.IsZero() {
		return nil
	}

	startIndex := models.StageIndex(startStage)
	if startIndex < 0 {
		startIndex = firstProtocolStageIndex(variety)
		if startIndex < 0 {
			return nil
		}
	}

	var tasks []ScheduledTask
	for _, stage := range models.CanonicalStages[startIndex:] {
		items := variety.CareProtocol[stage]
		if len(items) == 0 {
			continue
		}
		stageStart := stageStartDay(variety.GrowthTimeline, stage, 1.0)
		adjustable := openEndedStages[stage]

		for _, item := range items {
			for i := 0; i < item.RepeatCount; i++ {
				dueOffset := stageStart + item.StartDays + i*item.FrequencyDays
				due := plantedDate.AddDate(0, 0, dueOffset)
				tasks = append(tasks, ScheduledTask{
					VarietyName:    variety.Name,
					TaskName:       item.TaskName,
					Product:        item.Product,
					Dilution:       item.Dilution,
					Amount:         item.Amount,
					Method:         item.Method,
					DueDate:        due,
					Stage:          stage,
					StartDayOffset: item.StartDays,
					Category:       CategorizeTask(item.TaskName),
					Adjustable:     adjustable,
				})
			}
		}
	}
	return tasks
}

// TaskInstanceID is a stable identity for a generated task instance, used to
// match bypass records against regenerated task lists.
func TaskInstanceID(plantID string, stage models.Stage, taskName string, dueDate time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", plantID, stage, taskName, dueDate.Format("2006-01-02"))
}

func firstProtocolStageIndex(variety models.Variety) int {
	for i, stage := range models.CanonicalStages {
		if len(variety.CareProtocol[stage]) > 0 {
			return i
		}
	}
	return -1
}
