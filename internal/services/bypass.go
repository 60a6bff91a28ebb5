package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
)

// BypassPattern summarizes recurring skips for one (plant, task type) pair
// inside the lookback window.
type BypassPattern struct {
	PlantID       string              `json:"plant_id"`
	TaskType      models.TaskCategory `json:"task_type"`
	Count         int                 `json:"count"`
	Frequency     float64             `json:"frequency"` // records per month
	CommonReasons []string            `json:"common_reasons"`
	Seasonal      map[string]int      `json:"seasonal,omitempty"`
	Confidence    float64             `json:"confidence"`
}

// BypassInsight is an advisory recommendation mined from bypass history. It
// never feeds back into scheduling automatically.
type BypassInsight struct {
	PlantID        string              `json:"plant_id"`
	TaskType       models.TaskCategory `json:"task_type"`
	Recommendation string              `json:"recommendation"`
	AdjustmentDays int                 `json:"adjustment_days,omitempty"`
	Pattern        BypassPattern       `json:"pattern"`
}

const defaultLookbackMonths = 6

// BypassAnalyzer records skipped tasks and mines the history for patterns.
type BypassAnalyzer struct {
	bypassRepo repository.BypassRepository
}

func NewBypassAnalyzer(bypassRepo repository.BypassRepository) *BypassAnalyzer {
	return &BypassAnalyzer{bypassRepo: bypassRepo}
}

func (analyzer *BypassAnalyzer) RecordBypass(ctx context.Context, bypass models.TaskBypass) (models.TaskBypass, error) {
	created, err := analyzer.bypassRepo.Create(ctx, bypass)
	if err != nil {
		return models.TaskBypass{}, fmt.Errorf("recording bypass: %w", err)
	}
	return created, nil
}

// Patterns mines bypass records from the last monthsBack months. plantID ""
// means all plants.
func (analyzer *BypassAnalyzer) Patterns(ctx context.Context, plantID string, monthsBack int) ([]BypassPattern, error) {
	if monthsBack <= 0 {
		monthsBack = defaultLookbackMonths
	}
	now := time.Now()
	since := now.AddDate(0, -monthsBack, 0)

	filter := repository.BypassFilter{Since: &since}
	if plantID != "" {
		filter.PlantID = &plantID
	}
	records, err := analyzer.bypassRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading bypass records: %w", err)
	}
	return minePatterns(records, monthsBack), nil
}

// Insights turns patterns into recommendations.
func (analyzer *BypassAnalyzer) Insights(ctx context.Context, plantID string) ([]BypassInsight, error) {
	patterns, err := analyzer.Patterns(ctx, plantID, defaultLookbackMonths)
	if err != nil {
		return nil, err
	}

	insights := make([]BypassInsight, 0, len(patterns))
	for _, pattern := range patterns {
		insights = append(insights, buildInsight(pattern))
	}
	return insights, nil
}

// minePatterns groups records by (plant, task type) and emits a pattern for
// every group with at least two records in the window.
func minePatterns(records []models.TaskBypass, monthsBack int) []BypassPattern {
	groups := make(map[string][]models.TaskBypass)
	for _, record := range records {
		key := record.PlantID + "|" + string(record.TaskType)
		groups[key] = append(groups[key], record)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var patterns []BypassPattern
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		patterns = append(patterns, BypassPattern{
			PlantID:       group[0].PlantID,
			TaskType:      group[0].TaskType,
			Count:         len(group),
			Frequency:     float64(len(group)) / float64(monthsBack),
			CommonReasons: commonReasons(group),
			Seasonal:      seasonalDistribution(group),
			Confidence:    math.Min(float64(len(group))/10.0, 1.0),
		})
	}
	return patterns
}

// commonReasons returns the top 3 normalized reasons that occur at least
// twice, ranked by count.
func commonReasons(records []models.TaskBypass) []string {
	counts := make(map[string]int)
	for _, record := range records {
		reason := strings.ToLower(strings.TrimSpace(record.Reason))
		if reason == "" {
			continue
		}
		counts[reason]++
	}

	var reasons []string
	for reason, count := range counts {
		if count >= 2 {
			reasons = append(reasons, reason)
		}
	}
	sort.Slice(reasons, func(i, j int) bool {
		if counts[reasons[i]] != counts[reasons[j]] {
			return counts[reasons[i]] > counts[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return reasons
}

// seasonalDistribution buckets bypass dates by meteorological season and
// reports only the seasons that actually occur.
func seasonalDistribution(records []models.TaskBypass) map[string]int {
	seasons := make(map[string]int)
	for _, record := range records {
		seasons[seasonOf(record.BypassedAt.Month())]++
	}
	return seasons
}

func seasonOf(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}

var (
	healthyReasonHints = []string{"healthy", "looks good", "thriving", "not needed"}
	weatherReasonHints = []string{"weather", "rain", "wet", "cold", "storm", "humid"}
)

// buildInsight recommends a schedule extension when skips happen more than
// twice a month, with wording driven by the dominant reason family.
func buildInsight(pattern BypassPattern) BypassInsight {
	insight := BypassInsight{
		PlantID:  pattern.PlantID,
		TaskType: pattern.TaskType,
		Pattern:  pattern,
	}

	if pattern.Frequency <= 2 {
		insight.Recommendation = fmt.Sprintf(
			"%s tasks are skipped about %.1f times per month; no schedule change suggested yet.",
			pattern.TaskType, pattern.Frequency)
		return insight
	}

	insight.AdjustmentDays = int(math.Round(pattern.Frequency * 2))

	healthy := countReasonHints(pattern.CommonReasons, healthyReasonHints)
	weather := countReasonHints(pattern.CommonReasons, weatherReasonHints)

	switch {
	case healthy > weather:
		insight.Recommendation = fmt.Sprintf(
			"Plant looks healthy when %s comes due; consider lengthening the interval by %d days.",
			pattern.TaskType, insight.AdjustmentDays)
	case weather > 0:
		insight.Recommendation = fmt.Sprintf(
			"%s is frequently skipped for weather; consider weather-conditional scheduling instead of a fixed interval.",
			pattern.TaskType)
	default:
		insight.Recommendation = fmt.Sprintf(
			"%s is skipped %.1f times per month; consider extending the interval by %d days.",
			pattern.TaskType, pattern.Frequency, insight.AdjustmentDays)
	}
	return insight
}

func countReasonHints(reasons []string, hints []string) int {
	count := 0
	for _, reason := range reasons {
		for _, hint := range hints {
			if strings.Contains(reason, hint) {
				count++
				break
			}
		}
	}
	return count
}
