package services

import (
	"testing"
	"time"

	"github.com/tkloetzk/smartgarden/internal/models"
)

func bypassRecord(plantID string, taskType models.TaskCategory, reason string, bypassedAt time.Time) models.TaskBypass {
	return models.TaskBypass{
		PlantID:       plantID,
		TaskType:      taskType,
		Reason:        reason,
		ScheduledDate: bypassedAt,
		BypassedAt:    bypassedAt,
	}
}

func TestMinePatterns_RequiresTwoRecords(t *testing.T) {
	records := []models.TaskBypass{
		bypassRecord("p1", models.TaskWatering, "looks healthy", date(2024, time.June, 1)),
	}
	if patterns := minePatterns(records, 6); len(patterns) != 0 {
		t.Errorf("single record produced %d patterns, want 0", len(patterns))
	}
}

func TestMinePatterns_FrequencyAndReasons(t *testing.T) {
	records := []models.TaskBypass{
		bypassRecord("p1", models.TaskWatering, "Looks healthy", date(2024, time.April, 5)),
		bypassRecord("p1", models.TaskWatering, "looks healthy ", date(2024, time.May, 12)),
		bypassRecord("p1", models.TaskWatering, "weather", date(2024, time.June, 20)),
	}

	patterns := minePatterns(records, 6)
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}

	pattern := patterns[0]
	if pattern.Count != 3 {
		t.Errorf("count = %d, want 3", pattern.Count)
	}
	if pattern.Frequency != 0.5 {
		t.Errorf("frequency = %v, want 0.5 per month", pattern.Frequency)
	}
	// "looks healthy" normalizes to one reason with two occurrences;
	// "weather" occurs once and is dropped.
	if len(pattern.CommonReasons) != 1 || pattern.CommonReasons[0] != "looks healthy" {
		t.Errorf("common reasons = %v, want [looks healthy]", pattern.CommonReasons)
	}
	if pattern.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", pattern.Confidence)
	}
}

func TestMinePatterns_SeparatesPlantAndTaskType(t *testing.T) {
	records := []models.TaskBypass{
		bypassRecord("p1", models.TaskWatering, "wet", date(2024, time.June, 1)),
		bypassRecord("p1", models.TaskWatering, "wet", date(2024, time.June, 8)),
		bypassRecord("p1", models.TaskFertilizing, "not needed", date(2024, time.June, 2)),
		bypassRecord("p1", models.TaskFertilizing, "not needed", date(2024, time.June, 9)),
		bypassRecord("p2", models.TaskWatering, "wet", date(2024, time.June, 3)),
	}

	patterns := minePatterns(records, 6)
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2 (p2 below threshold)", len(patterns))
	}
	// Sorted by plant then task type key.
	if patterns[0].TaskType != models.TaskFertilizing || patterns[1].TaskType != models.TaskWatering {
		t.Errorf("pattern order = %q, %q", patterns[0].TaskType, patterns[1].TaskType)
	}
}

func TestSeasonalDistribution(t *testing.T) {
	records := []models.TaskBypass{
		bypassRecord("p1", models.TaskWatering, "rain", date(2024, time.January, 5)),
		bypassRecord("p1", models.TaskWatering, "rain", date(2024, time.December, 20)),
		bypassRecord("p1", models.TaskWatering, "rain", date(2024, time.April, 10)),
		bypassRecord("p1", models.TaskWatering, "rain", date(2024, time.July, 15)),
		bypassRecord("p1", models.TaskWatering, "rain", date(2024, time.October, 1)),
	}

	got := seasonalDistribution(records)
	want := map[string]int{"winter": 2, "spring": 1, "summer": 1, "fall": 1}
	for season, count := range want {
		if got[season] != count {
			t.Errorf("%s = %d, want %d", season, got[season], count)
		}
	}
}

func TestBuildInsight_LowFrequencyNoChange(t *testing.T) {
	insight := buildInsight(BypassPattern{
		PlantID:   "p1",
		TaskType:  models.TaskWatering,
		Count:     3,
		Frequency: 0.5,
	})
	if insight.AdjustmentDays != 0 {
		t.Errorf("adjustment days = %d, want 0 below the frequency threshold", insight.AdjustmentDays)
	}
	if insight.Recommendation == "" {
		t.Error("expected an advisory recommendation")
	}
}

func TestBuildInsight_HealthySkipsExtendInterval(t *testing.T) {
	insight := buildInsight(BypassPattern{
		PlantID:       "p1",
		TaskType:      models.TaskWatering,
		Count:         18,
		Frequency:     3.0,
		CommonReasons: []string{"looks healthy", "not needed"},
	})
	if insight.AdjustmentDays != 6 {
		t.Errorf("adjustment days = %d, want 6 (frequency 3.0 doubled)", insight.AdjustmentDays)
	}
}

func TestBuildInsight_WeatherSkipsSuggestConditional(t *testing.T) {
	healthy := buildInsight(BypassPattern{
		TaskType:      models.TaskWatering,
		Frequency:     4.0,
		CommonReasons: []string{"looks healthy"},
	})
	weather := buildInsight(BypassPattern{
		TaskType:      models.TaskWatering,
		Frequency:     4.0,
		CommonReasons: []string{"rain expected"},
	})
	if healthy.Recommendation == weather.Recommendation {
		t.Error("healthy and weather dominated patterns should produce different advice")
	}
	if weather.AdjustmentDays != 8 {
		t.Errorf("weather adjustment days = %d, want 8", weather.AdjustmentDays)
	}
}
