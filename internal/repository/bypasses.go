package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tkloetzk/smartgarden/internal/models"
)

type BypassFilter struct {
	PlantID *string
	Since   *time.Time
}

// BypassRepository is append-only like the activity log.
type BypassRepository interface {
	Create(ctx context.Context, bypass models.TaskBypass) (models.TaskBypass, error)
	FindAll(ctx context.Context, filter BypassFilter) ([]models.TaskBypass, error)
	FindByTaskID(ctx context.Context, taskID string) (models.TaskBypass, error)
}

type SQLiteBypassRepository struct {
	database *sql.DB
}

func NewBypassRepository(database *sql.DB) *SQLiteBypassRepository {
	return &SQLiteBypassRepository{database: database}
}

func (repository *SQLiteBypassRepository) Create(ctx context.Context, bypass models.TaskBypass) (models.TaskBypass, error) {
	if bypass.ID == "" {
		bypass.ID = uuid.New().String()
	}
	if bypass.BypassedAt.IsZero() {
		bypass.BypassedAt = time.Now()
	}

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO task_bypasses (id, task_id, plant_id, task_type, reason,
			scheduled_date, bypassed_at, plant_stage, moisture, weather)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bypass.ID, bypass.TaskID, bypass.PlantID, bypass.TaskType, bypass.Reason,
		bypass.ScheduledDate, bypass.BypassedAt, bypass.PlantStage, bypass.Moisture, bypass.Weather,
	)
	if err != nil {
		return models.TaskBypass{}, fmt.Errorf("creating task bypass: %w", err)
	}
	return bypass, nil
}

func (repository *SQLiteBypassRepository) FindAll(ctx context.Context, filter BypassFilter) ([]models.TaskBypass, error) {
	query := `SELECT id, task_id, plant_id, task_type, reason,
		scheduled_date, bypassed_at, plant_stage, moisture, weather
	FROM task_bypasses WHERE 1=1`
	var args []interface{}

	if filter.PlantID != nil {
		query += " AND plant_id = ?"
		args = append(args, *filter.PlantID)
	}
	if filter.Since != nil {
		query += " AND bypassed_at >= ?"
		args = append(args, *filter.Since)
	}
	query += " ORDER BY bypassed_at ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding task bypasses: %w", err)
	}
	defer rows.Close()

	var bypasses []models.TaskBypass
	for rows.Next() {
		var bypass models.TaskBypass
		if err := rows.Scan(
			&bypass.ID, &bypass.TaskID, &bypass.PlantID, &bypass.TaskType, &bypass.Reason,
			&bypass.ScheduledDate, &bypass.BypassedAt, &bypass.PlantStage, &bypass.Moisture, &bypass.Weather,
		); err != nil {
			return nil, fmt.Errorf("scanning task bypass: %w", err)
		}
		bypasses = append(bypasses, bypass)
	}
	return bypasses, rows.Err()
}

func (repository *SQLiteBypassRepository) FindByTaskID(ctx context.Context, taskID string) (models.TaskBypass, error) {
	var bypass models.TaskBypass
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, task_id, plant_id, task_type, reason,
			scheduled_date, bypassed_at, plant_stage, moisture, weather
		FROM task_bypasses WHERE task_id = ?`, taskID,
	).Scan(
		&bypass.ID, &bypass.TaskID, &bypass.PlantID, &bypass.TaskType, &bypass.Reason,
		&bypass.ScheduledDate, &bypass.BypassedAt, &bypass.PlantStage, &bypass.Moisture, &bypass.Weather,
	)
	if err != nil {
		return models.TaskBypass{}, fmt.Errorf("finding bypass by task id: %w", err)
	}
	return bypass, nil
}
