package services

import (
	"math"
	"sort"
	"time"

	"github.com/tkloetzk/smartgarden/internal/models"
)

// IntervalAdjustment is the rescheduler's verdict for one (plant, task type)
// pair. Modifier 1.0 means on schedule; below 1.0 the plant runs ahead of the
// protocol, above it lags. Confidence is 0..1.
type IntervalAdjustment struct {
	Modifier   float64 `json:"modifier"`
	Confidence float64 `json:"confidence"`
}

var neutralAdjustment = IntervalAdjustment{Modifier: 1.0, Confidence: 0}

type completionRecord struct {
	scheduled time.Time
	actual    time.Time
}

// Rescheduler tracks scheduled-versus-actual completion history per
// (plant, task type) and derives a multiplicative interval adjustment from
// it. Purely in-memory; callers rebuild it from the activity log.
type Rescheduler struct {
	history map[string][]completionRecord
}

func NewRescheduler() *Rescheduler {
	return &Rescheduler{history: make(map[string][]completionRecord)}
}

func historyKey(plantID string, taskType models.TaskCategory) string {
	return plantID + "|" + string(taskType)
}

// RecordCompletion adds one observation. History is kept in chronological
// order of actual completion regardless of insertion order, since the
// adjustment depends on gap-by-gap comparison of consecutive completions.
func (rescheduler *Rescheduler) RecordCompletion(plantID string, taskType models.TaskCategory, scheduled, actual time.Time) {
	key := historyKey(plantID, taskType)
	records := append(rescheduler.history[key], completionRecord{scheduled: scheduled, actual: actual})
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].actual.Before(records[j].actual)
	})
	rescheduler.history[key] = records
}

// AdjustedInterval computes the modifier as the ratio of total actual elapsed
// days to total expected elapsed days across the recorded history, rounded to
// one decimal. Confidence grows with observation count and shrinks with
// variance in the per-gap ratios.
func (rescheduler *Rescheduler) AdjustedInterval(plantID string, taskType models.TaskCategory) IntervalAdjustment {
	records := rescheduler.history[historyKey(plantID, taskType)]
	if len(records) == 0 {
		return neutralAdjustment
	}
	if len(records) == 1 {
		// One observation gives variance but no interval to compare.
		return IntervalAdjustment{Modifier: 1.0, Confidence: 0.1}
	}

	var ratios []float64
	for i := 1; i < len(records); i++ {
		expected := daysBetween(records[i-1].actual, records[i].scheduled)
		actual := daysBetween(records[i-1].actual, records[i].actual)
		if expected <= 0 {
			continue
		}
		ratios = append(ratios, float64(actual)/float64(expected))
	}
	if len(ratios) == 0 {
		return IntervalAdjustment{Modifier: 1.0, Confidence: 0.1}
	}

	totalExpected := 0
	totalActual := 0
	for i := 1; i < len(records); i++ {
		expected := daysBetween(records[i-1].actual, records[i].scheduled)
		if expected <= 0 {
			continue
		}
		totalExpected += expected
		totalActual += daysBetween(records[i-1].actual, records[i].actual)
	}
	modifier := roundToTenth(float64(totalActual) / float64(totalExpected))
	if modifier <= 0 {
		modifier = 1.0
	}

	countTerm := math.Min(float64(len(records))/10.0, 1.0)
	consistencyTerm := 1.0 / (1.0 + ratioVariance(ratios))
	confidence := math.Round(countTerm*consistencyTerm*100) / 100

	return IntervalAdjustment{Modifier: modifier, Confidence: confidence}
}

// NextDueDate applies the pair's modifier multiplicatively to the gap between
// the base due date and the last known completion. Without history the base
// date passes through untouched.
func (rescheduler *Rescheduler) NextDueDate(plantID string, taskType models.TaskCategory, baseDueDate time.Time) time.Time {
	records := rescheduler.history[historyKey(plantID, taskType)]
	if len(records) == 0 {
		return baseDueDate
	}

	adjustment := rescheduler.AdjustedInterval(plantID, taskType)
	if adjustment.Modifier == 1.0 {
		return baseDueDate
	}

	last := records[len(records)-1].actual
	gap := daysBetween(last, baseDueDate)
	if gap <= 0 {
		return baseDueDate
	}
	adjustedGap := int(math.Round(float64(gap) * adjustment.Modifier))
	return last.AddDate(0, 0, adjustedGap)
}

// VarianceDays is positive when the actual completion was late and negative
// when it was early.
func VarianceDays(scheduled, actual time.Time) int {
	return daysBetween(scheduled, actual)
}

func roundToTenth(value float64) float64 {
	return math.Round(value*10) / 10
}

func ratioVariance(ratios []float64) float64 {
	mean := 0.0
	for _, r := range ratios {
		mean += r
	}
	mean /= float64(len(ratios))

	variance := 0.0
	for _, r := range ratios {
		variance += (r - mean) * (r - mean)
	}
	return variance / float64(len(ratios))
}
