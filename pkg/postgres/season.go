package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

// GetSeason retrieves one season by id
func (d *DB) GetSeason(ctx context.Context, id string) (*model.Season, error) {
	var s model.Season
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, start_date, end_date, status FROM seasons WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrSeasonNotFound, id)
		}
		return nil, fmt.Errorf("failed to query season: %w", err)
	}
	return &s, nil
}

// GetSeasons retrieves all seasons
func (d *DB) GetSeasons(ctx context.Context) ([]model.Season, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, name, start_date, end_date, status FROM seasons ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer rows.Close()

	var seasons []model.Season
	for rows.Next() {
		var s model.Season
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seasons: %w", err)
	}

	return seasons, nil
}

// InsertSeason inserts a new season record
func (d *DB) InsertSeason(ctx context.Context, season *model.Season) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO seasons (id, name, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5)
	`, season.ID, season.Name, season.StartDate, season.EndDate, season.Status)
	if err != nil {
		return fmt.Errorf("failed to insert season: %w", err)
	}
	return nil
}

// UpdateSeason updates an existing season record
func (d *DB) UpdateSeason(ctx context.Context, season *model.Season) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE seasons SET name = $2, start_date = $3, end_date = $4, status = $5 WHERE id = $1
	`, season.ID, season.Name, season.StartDate, season.EndDate, season.Status)
	if err != nil {
		return fmt.Errorf("failed to update season: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(model.ErrSeasonNotFound, season.ID)
	}
	return nil
}
