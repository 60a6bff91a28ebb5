package services

import (
	"testing"
	"time"

	"github.com/tkloetzk/smartgarden/internal/models"
)

func TestCategorizeTask(t *testing.T) {
	tests := []struct {
		name string
		want models.TaskCategory
	}{
		{"Water deeply", models.TaskWatering},
		{"Check soil moisture", models.TaskWatering},
		{"Fertilize (Fish emulsion)", models.TaskFertilizing},
		{"Feed weekly", models.TaskFertilizing},
		{"Health check", models.TaskObservation},
		{"Observe for pests", models.TaskObservation},
		{"Prune suckers", models.TaskMaintenance},
		{"Transplant to 4in pot", models.TaskMaintenance},
		{"Harvest outer leaves", models.TaskOther},
		{"", models.TaskOther},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := CategorizeTask(test.name); got != test.want {
				t.Errorf("CategorizeTask(%q) = %q, want %q", test.name, got, test.want)
			}
		})
	}
}

func TestComputeStatus(t *testing.T) {
	now := date(2024, time.June, 10)

	tests := []struct {
		name         string
		due          time.Time
		wantLabel    string
		wantPriority models.Priority
		wantOverdue  bool
	}{
		{"due today", date(2024, time.June, 10), "due today", models.PriorityHigh, false},
		{"due tomorrow", date(2024, time.June, 11), "due tomorrow", models.PriorityHigh, false},
		{"due in three days", date(2024, time.June, 13), "due in 3 days", models.PriorityMedium, false},
		{"due next week", date(2024, time.June, 17), "due in 7 days", models.PriorityLow, false},
		{"one day overdue", date(2024, time.June, 9), "1 day overdue", models.PriorityOverdue, true},
		{"three days overdue", date(2024, time.June, 7), "3 days overdue", models.PriorityOverdue, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := ComputeStatus(ScheduledTask{DueDate: test.due}, now)
			if got.DueIn != test.wantLabel {
				t.Errorf("label = %q, want %q", got.DueIn, test.wantLabel)
			}
			if got.Priority != test.wantPriority {
				t.Errorf("priority = %q, want %q", got.Priority, test.wantPriority)
			}
			if got.Overdue != test.wantOverdue {
				t.Errorf("overdue = %v, want %v", got.Overdue, test.wantOverdue)
			}
		})
	}
}

func TestComputeStatus_OverdueTrumpsDistance(t *testing.T) {
	now := date(2024, time.June, 10)
	// Even a task 30 days overdue outranks one due today.
	overdue := ComputeStatus(ScheduledTask{DueDate: date(2024, time.May, 11)}, now)
	if overdue.Priority != models.PriorityOverdue {
		t.Errorf("priority = %q, want overdue", overdue.Priority)
	}
	if overdue.DaysOverdue != 30 {
		t.Errorf("days overdue = %d, want 30", overdue.DaysOverdue)
	}
}

func TestClassifyTasks_MergesIdenticalWork(t *testing.T) {
	now := date(2024, time.June, 10)
	due := date(2024, time.June, 12)

	tasks := []ScheduledTask{
		{PlantID: "p2", PlantName: "Tomato B", VarietyName: "Cherry Tomato", TaskName: "Water", Category: models.TaskWatering, DueDate: due},
		{PlantID: "p1", PlantName: "Tomato A", VarietyName: "Cherry Tomato", TaskName: "Water", Category: models.TaskWatering, DueDate: due},
	}

	groups := ClassifyTasks(tasks, now)
	if len(groups) != 1 {
		t.Fatalf("got %d category groups, want 1", len(groups))
	}
	if groups[0].Category != models.TaskWatering {
		t.Errorf("category = %q, want watering", groups[0].Category)
	}
	if len(groups[0].Groups) != 1 {
		t.Fatalf("got %d task groups, want 1 merged group", len(groups[0].Groups))
	}

	group := groups[0].Groups[0]
	if group.PlantCount != 2 {
		t.Errorf("plant count = %d, want 2", group.PlantCount)
	}
	// Members are ordered by plant ID regardless of input order.
	if group.PlantIDs[0] != "p1" || group.PlantIDs[1] != "p2" {
		t.Errorf("plant IDs = %v, want [p1 p2]", group.PlantIDs)
	}
}

func TestClassifyTasks_NeverOverMerges(t *testing.T) {
	now := date(2024, time.June, 10)
	due := date(2024, time.June, 12)

	tasks := []ScheduledTask{
		{PlantID: "p1", VarietyName: "Cherry Tomato", TaskName: "Fertilize", Product: "Fish emulsion", Category: models.TaskFertilizing, DueDate: due},
		{PlantID: "p2", VarietyName: "Cherry Tomato", TaskName: "Fertilize", Product: "Kelp meal", Category: models.TaskFertilizing, DueDate: due},
		{PlantID: "p3", VarietyName: "Cherry Tomato", TaskName: "Feed", Product: "Fish emulsion", Category: models.TaskFertilizing, DueDate: due},
		{PlantID: "p4", VarietyName: "Nantes Carrot", TaskName: "Fertilize", Product: "Fish emulsion", Category: models.TaskFertilizing, DueDate: due},
		{PlantID: "p5", VarietyName: "Cherry Tomato", TaskName: "Fertilize", Product: "Fish emulsion", Category: models.TaskFertilizing, DueDate: due.AddDate(0, 0, 1)},
	}

	groups := ClassifyTasks(tasks, now)
	if len(groups) != 1 {
		t.Fatalf("got %d category groups, want 1", len(groups))
	}
	if len(groups[0].Groups) != 5 {
		t.Errorf("got %d task groups, want 5 distinct groups", len(groups[0].Groups))
	}
}

func TestClassifyTasks_CategoryOrderAndAutoExpand(t *testing.T) {
	now := date(2024, time.June, 10)

	tasks := []ScheduledTask{
		{PlantID: "p1", TaskName: "Prune tips", Category: models.TaskMaintenance, DueDate: date(2024, time.June, 20)},
		{PlantID: "p1", TaskName: "Water", Category: models.TaskWatering, DueDate: date(2024, time.June, 8)},
		{PlantID: "p2", TaskName: "Health check", Category: models.TaskObservation, DueDate: date(2024, time.June, 15)},
	}

	groups := ClassifyTasks(tasks, now)
	if len(groups) != 3 {
		t.Fatalf("got %d category groups, want 3", len(groups))
	}

	wantOrder := []models.TaskCategory{models.TaskWatering, models.TaskObservation, models.TaskMaintenance}
	for i, want := range wantOrder {
		if groups[i].Category != want {
			t.Errorf("group %d category = %q, want %q", i, groups[i].Category, want)
		}
	}

	if !groups[0].AutoExpand {
		t.Error("watering section with overdue work should auto-expand")
	}
	if groups[1].AutoExpand || groups[2].AutoExpand {
		t.Error("sections without urgent work should stay collapsed")
	}
}

func TestClassifyTasks_DeterministicOutput(t *testing.T) {
	now := date(2024, time.June, 10)
	tasks := []ScheduledTask{
		{PlantID: "p1", VarietyName: "A", TaskName: "Water", Category: models.TaskWatering, DueDate: date(2024, time.June, 12)},
		{PlantID: "p2", VarietyName: "B", TaskName: "Water", Category: models.TaskWatering, DueDate: date(2024, time.June, 11)},
		{PlantID: "p3", VarietyName: "A", TaskName: "Check moisture", Category: models.TaskWatering, DueDate: date(2024, time.June, 11)},
	}
	reversed := []ScheduledTask{tasks[2], tasks[1], tasks[0]}

	first := ClassifyTasks(tasks, now)
	second := ClassifyTasks(reversed, now)

	if len(first) != 1 || len(second) != 1 {
		t.Fatal("expected a single watering section from both orderings")
	}
	for i := range first[0].Groups {
		if first[0].Groups[i].TaskName != second[0].Groups[i].TaskName ||
			first[0].Groups[i].VarietyName != second[0].Groups[i].VarietyName {
			t.Errorf("group %d differs between orderings: %q/%q vs %q/%q",
				i, first[0].Groups[i].TaskName, first[0].Groups[i].VarietyName,
				second[0].Groups[i].TaskName, second[0].Groups[i].VarietyName)
		}
	}
}

func TestRelevantTasks(t *testing.T) {
	now := date(2024, time.June, 10)

	t.Run("most recent overdue wins", func(t *testing.T) {
		tasks := []ScheduledTask{
			{TaskName: "Water", DueDate: date(2024, time.June, 1)},
			{TaskName: "Fertilize", DueDate: date(2024, time.June, 8)},
			{TaskName: "Prune", DueDate: date(2024, time.June, 20)},
		}
		got := RelevantTasks(tasks, now)
		if len(got) != 1 {
			t.Fatalf("got %d tasks, want exactly 1", len(got))
		}
		if got[0].TaskName != "Fertilize" {
			t.Errorf("selected %q, want the most recently overdue Fertilize", got[0].TaskName)
		}
	})

	t.Run("next upcoming when nothing overdue", func(t *testing.T) {
		tasks := []ScheduledTask{
			{TaskName: "Prune", DueDate: date(2024, time.June, 20)},
			{TaskName: "Water", DueDate: date(2024, time.June, 12)},
		}
		got := RelevantTasks(tasks, now)
		if len(got) != 1 || got[0].TaskName != "Water" {
			t.Fatalf("got %+v, want only the next upcoming Water task", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := RelevantTasks(nil, now); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})
}
