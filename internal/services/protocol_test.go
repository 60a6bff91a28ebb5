package services

import (
	"testing"
	"time"

	"github.com/tkloetzk/smartgarden/internal/models"
)

func TestTranspileProtocol_RepeatExpansion(t *testing.T) {
	variety := models.Variety{
		Name:           "Cherry Tomato",
		GrowthTimeline: map[models.Stage]int{models.StageGermination: 7},
		CareProtocol: map[models.Stage][]models.ScheduleItem{
			models.StageGermination: {
				{TaskName: "Water", StartDays: 0, FrequencyDays: 7, RepeatCount: 3},
			},
		},
	}
	planted := date(2024, time.January, 15)

	tasks := TranspileProtocol(variety, planted, models.StageGermination)
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}

	want := []time.Time{
		date(2024, time.January, 15),
		date(2024, time.January, 22),
		date(2024, time.January, 29),
	}
	for i, task := range tasks {
		if !task.DueDate.Equal(want[i]) {
			t.Errorf("task %d due %v, want %v", i, task.DueDate, want[i])
		}
		if task.Category != models.TaskWatering {
			t.Errorf("task %d category = %q, want watering", i, task.Category)
		}
		if task.Adjustable {
			t.Errorf("task %d adjustable, fixed stages must not be", i)
		}
	}
}

func TestTranspileProtocol_StageOffsets(t *testing.T) {
	variety := models.Variety{
		Name: "Butterhead Lettuce",
		GrowthTimeline: map[models.Stage]int{
			models.StageGermination: 7,
			models.StageSeedling:    14,
		},
		CareProtocol: map[models.Stage][]models.ScheduleItem{
			models.StageSeedling: {
				{TaskName: "Fertilize", StartDays: 2, FrequencyDays: 10, RepeatCount: 1, Product: "Fish emulsion", Dilution: "1 tbsp/gal"},
			},
		},
	}
	planted := date(2024, time.March, 1)

	tasks := TranspileProtocol(variety, planted, models.StageGermination)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}

	// Seedling starts on day 7, the item adds 2 more.
	want := date(2024, time.March, 10)
	if !tasks[0].DueDate.Equal(want) {
		t.Errorf("due %v, want %v", tasks[0].DueDate, want)
	}
	if tasks[0].Product != "Fish emulsion" || tasks[0].Dilution != "1 tbsp/gal" {
		t.Errorf("item details not copied verbatim: %+v", tasks[0])
	}
	if tasks[0].Stage != models.StageSeedling {
		t.Errorf("stage = %q, want seedling", tasks[0].Stage)
	}
}

func TestTranspileProtocol_SkipsStagesBeforeStart(t *testing.T) {
	variety := models.Variety{
		Name: "Genovese Basil",
		GrowthTimeline: map[models.Stage]int{
			models.StageGermination: 7,
			models.StageVegetative:  30,
		},
		CareProtocol: map[models.Stage][]models.ScheduleItem{
			models.StageGermination: {
				{TaskName: "Check moisture", FrequencyDays: 1, RepeatCount: 7},
			},
			models.StageVegetative: {
				{TaskName: "Prune tips", FrequencyDays: 14, RepeatCount: 2},
			},
		},
	}

	tasks := TranspileProtocol(variety, date(2024, time.April, 1), models.StageVegetative)
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	for _, task := range tasks {
		if task.Stage != models.StageVegetative {
			t.Errorf("stage %q generated before start stage", task.Stage)
		}
	}
}

func TestTranspileProtocol_EdgeCases(t *testing.T) {
	variety := models.Variety{
		GrowthTimeline: map[models.Stage]int{models.StageGermination: 7},
		CareProtocol: map[models.Stage][]models.ScheduleItem{
			models.StageGermination: {{TaskName: "Water", FrequencyDays: 3, RepeatCount: 2}},
		},
	}

	if tasks := TranspileProtocol(variety, time.Time{}, models.StageGermination); tasks != nil {
		t.Errorf("zero planted date produced %d tasks, want none", len(tasks))
	}

	// Unknown start stage falls back to the first stage with protocol
	// entries instead of producing nothing.
	tasks := TranspileProtocol(variety, date(2024, time.May, 1), models.Stage("sprouting"))
	if len(tasks) != 2 {
		t.Errorf("unknown start stage produced %d tasks, want 2", len(tasks))
	}

	empty := models.Variety{GrowthTimeline: map[models.Stage]int{models.StageGermination: 7}}
	if tasks := TranspileProtocol(empty, date(2024, time.May, 1), models.StageGermination); len(tasks) != 0 {
		t.Errorf("empty protocol produced %d tasks", len(tasks))
	}
}

func TestTranspileProtocol_OngoingProductionAdjustable(t *testing.T) {
	variety := models.Variety{
		GrowthTimeline: map[models.Stage]int{
			models.StageGermination:       7,
			models.StageOngoingProduction: 60,
		},
		CareProtocol: map[models.Stage][]models.ScheduleItem{
			models.StageOngoingProduction: {
				{TaskName: "Fertilize", FrequencyDays: 14, RepeatCount: 4},
			},
		},
	}

	tasks := TranspileProtocol(variety, date(2024, time.May, 1), models.StageGermination)
	if len(tasks) != 4 {
		t.Fatalf("got %d tasks, want 4", len(tasks))
	}
	for i, task := range tasks {
		if !task.Adjustable {
			t.Errorf("task %d from ongoing-production not adjustable", i)
		}
	}
}

func TestTaskInstanceID_Deterministic(t *testing.T) {
	due := date(2024, time.June, 10)
	first := TaskInstanceID("plant-1", models.StageVegetative, "Water", due)
	second := TaskInstanceID("plant-1", models.StageVegetative, "Water", due.Add(5*time.Hour))
	if first != second {
		t.Errorf("same task day produced different IDs: %q vs %q", first, second)
	}

	other := TaskInstanceID("plant-2", models.StageVegetative, "Water", due)
	if first == other {
		t.Error("different plants produced the same ID")
	}
}
