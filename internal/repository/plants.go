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

type PlantFilter struct {
	UserID     *string
	VarietyID  *string
	ActiveOnly bool
}

type PlantRepository interface {
	FindByID(ctx context.Context, id string) (models.Plant, error)
	FindAll(ctx context.Context, filter PlantFilter) ([]models.Plant, error)
	Create(ctx context.Context, plant models.Plant) (models.Plant, error)
	Update(ctx context.Context, plant models.Plant) error
	Deactivate(ctx context.Context, id string) error
}

type SQLitePlantRepository struct {
	database *sql.DB
}

func NewPlantRepository(database *sql.DB) *SQLitePlantRepository {
	return &SQLitePlantRepository{database: database}
}

const plantColumns = `id, user_id, name, variety_id, planted_date,
	confirmed_stage, stage_confirmed_at, growth_rate_modifier,
	active, reminder_prefs, created_at, updated_at`

func (repository *SQLitePlantRepository) FindByID(ctx context.Context, id string) (models.Plant, error) {
	row := repository.database.QueryRowContext(ctx,
		"SELECT "+plantColumns+" FROM plants WHERE id = ?", id)
	plant, err := scanPlant(row)
	if err != nil {
		return models.Plant{}, fmt.Errorf("finding plant by id: %w", err)
	}
	return plant, nil
}

func (repository *SQLitePlantRepository) FindAll(ctx context.Context, filter PlantFilter) ([]models.Plant, error) {
	query := "SELECT " + plantColumns + " FROM plants WHERE 1=1"
	var args []interface{}

	if filter.UserID != nil {
		query += " AND user_id = ?"
		args = append(args, *filter.UserID)
	}
	if filter.VarietyID != nil {
		query += " AND variety_id = ?"
		args = append(args, *filter.VarietyID)
	}
	if filter.ActiveOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY name ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding plants: %w", err)
	}
	defer rows.Close()

	var plants []models.Plant
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plant: %w", err)
		}
		plants = append(plants, plant)
	}
	return plants, rows.Err()
}

func (repository *SQLitePlantRepository) Create(ctx context.Context, plant models.Plant) (models.Plant, error) {
	if plant.ID == "" {
		plant.ID = uuid.New().String()
	}
	now := time.Now()
	plant.CreatedAt = now
	plant.UpdatedAt = now
	if plant.GrowthRateModifier <= 0 {
		plant.GrowthRateModifier = 1.0
	}

	prefs, err := marshalPrefs(plant.ReminderPrefs)
	if err != nil {
		return models.Plant{}, err
	}

	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO plants (id, user_id, name, variety_id, planted_date,
			confirmed_stage, stage_confirmed_at, growth_rate_modifier,
			active, reminder_prefs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plant.ID, plant.UserID, plant.Name, plant.VarietyID, plant.PlantedDate,
		plant.ConfirmedStage, plant.StageConfirmedAt, plant.GrowthRateModifier,
		plant.Active, prefs, plant.CreatedAt, plant.UpdatedAt,
	)
	if err != nil {
		return models.Plant{}, fmt.Errorf("creating plant: %w", err)
	}
	return plant, nil
}

func (repository *SQLitePlantRepository) Update(ctx context.Context, plant models.Plant) error {
	plant.UpdatedAt = time.Now()

	prefs, err := marshalPrefs(plant.ReminderPrefs)
	if err != nil {
		return err
	}

	_, err = repository.database.ExecContext(ctx,
		`UPDATE plants SET name = ?, variety_id = ?, planted_date = ?,
			confirmed_stage = ?, stage_confirmed_at = ?, growth_rate_modifier = ?,
			active = ?, reminder_prefs = ?, updated_at = ?
		WHERE id = ?`,
		plant.Name, plant.VarietyID, plant.PlantedDate,
		plant.ConfirmedStage, plant.StageConfirmedAt, plant.GrowthRateModifier,
		plant.Active, prefs, plant.UpdatedAt, plant.ID,
	)
	if err != nil {
		return fmt.Errorf("updating plant: %w", err)
	}
	return nil
}

// Deactivate soft-deletes: history rows keep referencing the plant.
func (repository *SQLitePlantRepository) Deactivate(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx,
		"UPDATE plants SET active = 0, updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivating plant: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlant(row rowScanner) (models.Plant, error) {
	var plant models.Plant
	var plantedDate sql.NullTime
	var confirmedStage sql.NullString
	var prefsJSON string
	if err := row.Scan(
		&plant.ID, &plant.UserID, &plant.Name, &plant.VarietyID, &plantedDate,
		&confirmedStage, &plant.StageConfirmedAt, &plant.GrowthRateModifier,
		&plant.Active, &prefsJSON, &plant.CreatedAt, &plant.UpdatedAt,
	); err != nil {
		return models.Plant{}, err
	}
	if plantedDate.Valid {
		plant.PlantedDate = plantedDate.Time
	}
	if confirmedStage.Valid {
		stage := models.Stage(confirmedStage.String)
		plant.ConfirmedStage = &stage
	}
	if prefsJSON != "" {
		if err := json.Unmarshal([]byte(prefsJSON), &plant.ReminderPrefs); err != nil {
			return models.Plant{}, fmt.Errorf("unmarshalling reminder prefs: %w", err)
		}
	}
	return plant, nil
}

func marshalPrefs(prefs models.ReminderPreferences) (string, error) {
	if prefs == nil {
		return "", nil
	}
	encoded, err := json.Marshal(prefs)
	if err != nil {
		return "", fmt.Errorf("marshalling reminder prefs: %w", err)
	}
	return string(encoded), nil
}
