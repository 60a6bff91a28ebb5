package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
	"gopkg.in/yaml.v3"
)

//go:embed varieties.yaml
var varietyCatalog []byte

type catalogFile struct {
	Varieties []catalogVariety `yaml:"varieties"`
}

type catalogVariety struct {
	Name           string                                 `yaml:"name"`
	Category       models.VarietyCategory                 `yaml:"category"`
	GrowthTimeline map[models.Stage]int                   `yaml:"growth_timeline"`
	CareProtocol   map[models.Stage][]models.ScheduleItem `yaml:"care_protocol"`
}

// SeedVarieties loads the embedded starter catalog into an empty varieties
// table. A table with any rows is left untouched.
func SeedVarieties(ctx context.Context, varieties repository.VarietyRepository) error {
	count, err := varieties.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting varieties: %w", err)
	}
	if count > 0 {
		return nil
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(varietyCatalog, &catalog); err != nil {
		return fmt.Errorf("parsing variety catalog: %w", err)
	}

	for _, entry := range catalog.Varieties {
		_, err := varieties.Create(ctx, models.Variety{
			Name:           entry.Name,
			Category:       entry.Category,
			GrowthTimeline: entry.GrowthTimeline,
			CareProtocol:   entry.CareProtocol,
		})
		if err != nil {
			return fmt.Errorf("seeding variety %q: %w", entry.Name, err)
		}
	}

	slog.Info("seeded variety catalog", "count", len(catalog.Varieties))
	return nil
}
