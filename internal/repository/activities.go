package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tkloetzk/smartgarden/internal/models"
)

type ActivityFilter struct {
	Type  *models.ActivityType
	Since *time.Time // inclusive lower bound
}

// CareActivityRepository is append-only: activities are historical facts and
// are never updated or deleted.
type CareActivityRepository interface {
	FindByPlant(ctx context.Context, plantID string, filter ActivityFilter) ([]models.CareActivity, error)
	Create(ctx context.Context, activity models.CareActivity) (models.CareActivity, error)
}

type SQLiteCareActivityRepository struct {
	database *sql.DB
}

func NewCareActivityRepository(database *sql.DB) *SQLiteCareActivityRepository {
	return &SQLiteCareActivityRepository{database: database}
}

// FindByPlant returns activities in chronological order (oldest first).
func (repository *SQLiteCareActivityRepository) FindByPlant(ctx context.Context, plantID string, filter ActivityFilter) ([]models.CareActivity, error) {
	query := "SELECT id, plant_id, type, logged_at, details, note FROM care_activities WHERE plant_id = ?"
	args := []interface{}{plantID}

	if filter.Type != nil {
		query += " AND type = ?"
		args = append(args, *filter.Type)
	}
	if filter.Since != nil {
		query += " AND logged_at >= ?"
		args = append(args, *filter.Since)
	}
	query += " ORDER BY logged_at ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding care activities: %w", err)
	}
	defer rows.Close()

	var activities []models.CareActivity
	for rows.Next() {
		var activity models.CareActivity
		var detailsJSON string
		if err := rows.Scan(
			&activity.ID, &activity.PlantID, &activity.Type,
			&activity.LoggedAt, &detailsJSON, &activity.Note,
		); err != nil {
			return nil, fmt.Errorf("scanning care activity: %w", err)
		}
		if err := json.Unmarshal([]byte(detailsJSON), &activity.Details); err != nil {
			return nil, fmt.Errorf("unmarshalling activity details: %w", err)
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

func (repository *SQLiteCareActivityRepository) Create(ctx context.Context, activity models.CareActivity) (models.CareActivity, error) {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}

	details, err := json.Marshal(activity.Details)
	if err != nil {
		return models.CareActivity{}, fmt.Errorf("marshalling activity details: %w", err)
	}

	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO care_activities (id, plant_id, type, logged_at, details, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		activity.ID, activity.PlantID, activity.Type, activity.LoggedAt, string(details), activity.Note,
	)
	if err != nil {
		return models.CareActivity{}, fmt.Errorf("creating care activity: %w", err)
	}
	return activity, nil
}
