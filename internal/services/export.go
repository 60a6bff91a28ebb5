package services

import (
	"context"
	"fmt"

	"github.com/tkloetzk/smartgarden/internal/models"
	"github.com/tkloetzk/smartgarden/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService renders a user's care history as an xlsx workbook with one
// sheet for logged activities and one for skipped tasks.
type ExportService struct {
	plantRepo    repository.PlantRepository
	activityRepo repository.CareActivityRepository
	bypassRepo   repository.BypassRepository
}

func NewExportService(
	plantRepo repository.PlantRepository,
	activityRepo repository.CareActivityRepository,
	bypassRepo repository.BypassRepository,
) *ExportService {
	return &ExportService{
		plantRepo:    plantRepo,
		activityRepo: activityRepo,
		bypassRepo:   bypassRepo,
	}
}

const (
	careLogSheet      = "Care Log"
	skippedTasksSheet = "Skipped Tasks"
)

func (service *ExportService) CareLogWorkbook(ctx context.Context, userID string) (*excelize.File, error) {
	plants, err := service.plantRepo.FindAll(ctx, repository.PlantFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("loading plants for export: %w", err)
	}

	file := excelize.NewFile()
	file.SetSheetName("Sheet1", careLogSheet)
	if _, err := file.NewSheet(skippedTasksSheet); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}

	writeRow(file, careLogSheet, 1, []interface{}{
		"Plant", "Activity", "Date", "Amount", "Product", "Dilution", "Method", "Note",
	})
	writeRow(file, skippedTasksSheet, 1, []interface{}{
		"Plant", "Task Type", "Scheduled", "Skipped On", "Stage", "Reason",
	})

	activityRow := 2
	bypassRow := 2
	for _, plant := range plants {
		activities, err := service.activityRepo.FindByPlant(ctx, plant.ID, repository.ActivityFilter{})
		if err != nil {
			return nil, fmt.Errorf("loading activities for %s: %w", plant.Name, err)
		}
		for _, activity := range activities {
			writeRow(file, careLogSheet, activityRow, []interface{}{
				plant.Name,
				string(activity.Type),
				activity.LoggedAt.Format("2006-01-02 15:04"),
				formatAmount(activity.Details),
				activity.Details.Product,
				activity.Details.Dilution,
				activity.Details.Method,
				activity.Note,
			})
			activityRow++
		}

		bypasses, err := service.bypassRepo.FindAll(ctx, repository.BypassFilter{PlantID: &plant.ID})
		if err != nil {
			return nil, fmt.Errorf("loading bypasses for %s: %w", plant.Name, err)
		}
		for _, bypass := range bypasses {
			writeRow(file, skippedTasksSheet, bypassRow, []interface{}{
				plant.Name,
				string(bypass.TaskType),
				bypass.ScheduledDate.Format("2006-01-02"),
				bypass.BypassedAt.Format("2006-01-02"),
				string(bypass.PlantStage),
				bypass.Reason,
			})
			bypassRow++
		}
	}

	return file, nil
}

func writeRow(file *excelize.File, sheet string, row int, values []interface{}) {
	for column, value := range values {
		cell, err := excelize.CoordinatesToCellName(column+1, row)
		if err != nil {
			continue
		}
		file.SetCellValue(sheet, cell, value)
	}
}

func formatAmount(details models.ActivityDetails) string {
	if details.Amount == "" {
		return ""
	}
	if details.Unit == "" {
		return details.Amount
	}
	return details.Amount + " " + details.Unit
}
