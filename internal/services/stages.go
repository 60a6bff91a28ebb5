package services

import (
	"math"
	"time"

	"github.com/tkloetzk/smartgarden/internal/models"
)

// StageResolution describes where in its lifecycle a plant currently is.
type StageResolution struct {
	Stage       models.Stage `json:"stage"`
	DaysInStage int          `json:"days_in_stage"`
	PlantAge    int          `json:"plant_age"`
}

// daysBetween returns whole calendar days from a to b, ignoring time of day.
// Negative when b is before a.
func daysBetween(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bDay.Sub(aDay).Hours() / 24)
}

// stageStartDay returns the day offset at which a stage begins, walking the
// timeline in canonical order. Stages absent from the timeline contribute
// nothing. The modifier scales each stage's expected duration.
func stageStartDay(timeline map[models.Stage]int, stage models.Stage, modifier float64) int {
	if modifier <= 0 {
		modifier = 1.0
	}
	start := 0.0
	for _, s := range models.CanonicalStages {
		if s == stage {
			break
		}
		if days, ok := timeline[s]; ok {
			start += float64(days) * modifier
		}
	}
	return int(math.Round(start))
}

// ResolveStage computes the growth stage a plant has organically reached by
// asOf. The resolved stage is the last timeline stage whose cumulative start
// day is at or below the plant's age. An empty timeline or an unusable
// planted date resolves to germination; a zero or negative modifier is
// treated as neutral.
func ResolveStage(timeline map[models.Stage]int, plantedDate, asOf time.Time, modifier float64) StageResolution {
	if plantedDate.IsZero() || asOf.Before(plantedDate) {
		return StageResolution{Stage: models.StageGermination}
	}
	plantAge := daysBetween(plantedDate, asOf)

	if len(timeline) == 0 {
		return StageResolution{
			Stage:       models.StageGermination,
			DaysInStage: plantAge,
			PlantAge:    plantAge,
		}
	}

	if modifier <= 0 {
		modifier = 1.0
	}

	resolved := models.StageGermination
	resolvedStart := 0
	cumulative := 0.0
	for _, stage := range models.CanonicalStages {
		days, ok := timeline[stage]
		if !ok {
			continue
		}
		start := int(math.Round(cumulative))
		if start > plantAge {
			break
		}
		resolved = stage
		resolvedStart = start
		cumulative += float64(days) * modifier
	}

	return StageResolution{
		Stage:       resolved,
		DaysInStage: plantAge - resolvedStart,
		PlantAge:    plantAge,
	}
}

// ResolveStageForPlant applies the confirmed-stage rule on top of organic
// resolution: a user-confirmed stage is authoritative until the plant's age
// reaches the computed start of the stage after it, at which point organic
// resolution takes over again.
func ResolveStageForPlant(plant models.Plant, timeline map[models.Stage]int, asOf time.Time) StageResolution {
	organic := ResolveStage(timeline, plant.PlantedDate, asOf, plant.GrowthRateModifier)

	if plant.ConfirmedStage == nil || models.StageIndex(*plant.ConfirmedStage) < 0 {
		return organic
	}

	next, ok := nextTimelineStage(timeline, *plant.ConfirmedStage)
	if ok {
		nextStart := stageStartDay(timeline, next, plant.GrowthRateModifier)
		if organic.PlantAge >= nextStart {
			return organic
		}
	}

	daysInStage := 0
	if plant.StageConfirmedAt != nil {
		if d := daysBetween(*plant.StageConfirmedAt, asOf); d > 0 {
			daysInStage = d
		}
	}
	return StageResolution{
		Stage:       *plant.ConfirmedStage,
		DaysInStage: daysInStage,
		PlantAge:    organic.PlantAge,
	}
}

// nextTimelineStage returns the first stage after the given one, in canonical
// order, that the timeline defines.
func nextTimelineStage(timeline map[models.Stage]int, stage models.Stage) (models.Stage, bool) {
	index := models.StageIndex(stage)
	if index < 0 {
		return "", false
	}
	for _, s := range models.CanonicalStages[index+1:] {
		if _, ok := timeline[s]; ok {
			return s, true
		}
	}
	return "", false
}
