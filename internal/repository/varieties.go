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

type VarietyFilter struct {
	Category *models.VarietyCategory
}

type VarietyRepository interface {
	FindByID(ctx context.Context, id string) (models.Variety, error)
	FindByName(ctx context.Context, name string) (models.Variety, error)
	FindAll(ctx context.Context, filter VarietyFilter) ([]models.Variety, error)
	Create(ctx context.Context, variety models.Variety) (models.Variety, error)
	Update(ctx context.Context, variety models.Variety) error
	Count(ctx context.Context) (int, error)
}

type SQLiteVarietyRepository struct {
	database *sql.DB
}

func NewVarietyRepository(database *sql.DB) *SQLiteVarietyRepository {
	return &SQLiteVarietyRepository{database: database}
}

const varietyColumns = `id, name, category, growth_timeline, care_protocol,
	created_by_user_id, created_at, updated_at`

func (repository *SQLiteVarietyRepository) FindByID(ctx context.Context, id string) (models.Variety, error) {
	row := repository.database.QueryRowContext(ctx,
		"SELECT "+varietyColumns+" FROM varieties WHERE id = ?", id)
	variety, err := scanVariety(row)
	if err != nil {
		return models.Variety{}, fmt.Errorf("finding variety by id: %w", err)
	}
	return variety, nil
}

func (repository *SQLiteVarietyRepository) FindByName(ctx context.Context, name string) (models.Variety, error) {
	row := repository.database.QueryRowContext(ctx,
		"SELECT "+varietyColumns+" FROM varieties WHERE name = ?", name)
	variety, err := scanVariety(row)
	if err != nil {
		return models.Variety{}, fmt.Errorf("finding variety by name: %w", err)
	}
	return variety, nil
}

func (repository *SQLiteVarietyRepository) FindAll(ctx context.Context, filter VarietyFilter) ([]models.Variety, error) {
	query := "SELECT " + varietyColumns + " FROM varieties WHERE 1=1"
	var args []interface{}

	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, *filter.Category)
	}
	query += " ORDER BY name ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding varieties: %w", err)
	}
	defer rows.Close()

	var varieties []models.Variety
	for rows.Next() {
		variety, err := scanVariety(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning variety: %w", err)
		}
		varieties = append(varieties, variety)
	}
	return varieties, rows.Err()
}

func (repository *SQLiteVarietyRepository) Create(ctx context.Context, variety models.Variety) (models.Variety, error) {
	if variety.ID == "" {
		variety.ID = uuid.New().String()
	}
	now := time.Now()
	variety.CreatedAt = now
	variety.UpdatedAt = now

	timeline, protocol, err := marshalVarietyJSON(variety)
	if err != nil {
		return models.Variety{}, err
	}

	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO varieties (id, name, category, growth_timeline, care_protocol,
			created_by_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		variety.ID, variety.Name, variety.Category, timeline, protocol,
		variety.CreatedByUserID, variety.CreatedAt, variety.UpdatedAt,
	)
	if err != nil {
		return models.Variety{}, fmt.Errorf("creating variety: %w", err)
	}
	return variety, nil
}

func (repository *SQLiteVarietyRepository) Update(ctx context.Context, variety models.Variety) error {
	variety.UpdatedAt = time.Now()

	timeline, protocol, err := marshalVarietyJSON(variety)
	if err != nil {
		return err
	}

	_, err = repository.database.ExecContext(ctx,
		`UPDATE varieties SET name = ?, category = ?, growth_timeline = ?,
			care_protocol = ?, updated_at = ?
		WHERE id = ?`,
		variety.Name, variety.Category, timeline, protocol,
		variety.UpdatedAt, variety.ID,
	)
	if err != nil {
		return fmt.Errorf("updating variety: %w", err)
	}
	return nil
}

func (repository *SQLiteVarietyRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := repository.database.QueryRowContext(ctx, "SELECT COUNT(*) FROM varieties").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting varieties: %w", err)
	}
	return count, nil
}

func scanVariety(row rowScanner) (models.Variety, error) {
	var variety models.Variety
	var timelineJSON, protocolJSON string
	if err := row.Scan(
		&variety.ID, &variety.Name, &variety.Category, &timelineJSON, &protocolJSON,
		&variety.CreatedByUserID, &variety.CreatedAt, &variety.UpdatedAt,
	); err != nil {
		return models.Variety{}, err
	}
	if err := json.Unmarshal([]byte(timelineJSON), &variety.GrowthTimeline); err != nil {
		return models.Variety{}, fmt.Errorf("unmarshalling growth timeline: %w", err)
	}
	if err := json.Unmarshal([]byte(protocolJSON), &variety.CareProtocol); err != nil {
		return models.Variety{}, fmt.Errorf("unmarshalling care protocol: %w", err)
	}
	return variety, nil
}

func marshalVarietyJSON(variety models.Variety) (timeline string, protocol string, err error) {
	encodedTimeline, err := json.Marshal(variety.GrowthTimeline)
	if err != nil {
		return "", "", fmt.Errorf("marshalling growth timeline: %w", err)
	}
	encodedProtocol, err := json.Marshal(variety.CareProtocol)
	if err != nil {
		return "", "", fmt.Errorf("marshalling care protocol: %w", err)
	}
	return string(encodedTimeline), string(encodedProtocol), nil
}
