package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

const shiftColumns = `id, date, start_time, end_time, required_scouts, required_parents,
	current_scouts, current_parents, location, label, notes, status,
	COALESCE(season_id, ''), COALESCE(template_id, ''), created_at`

func scanShift(row pgx.Row) (*model.Shift, error) {
	var s model.Shift
	err := row.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.RequiredScouts, &s.RequiredParents,
		&s.CurrentScouts, &s.CurrentParents, &s.Location, &s.Label, &s.Notes, &s.Status,
		&s.SeasonID, &s.TemplateID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetShift retrieves one shift by id
func (d *DB) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := scanShift(d.pool.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrShiftNotFound, id)
		}
		return nil, fmt.Errorf("failed to query shift: %w", err)
	}
	return shift, nil
}

func (d *DB) queryShifts(ctx context.Context, query string, args ...any) ([]model.Shift, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []model.Shift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, *shift)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}

	return shifts, nil
}

// GetShiftsBySeason retrieves all shifts attached to a season
func (d *DB) GetShiftsBySeason(ctx context.Context, seasonID string) ([]model.Shift, error) {
	return d.queryShifts(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE season_id = $1 ORDER BY start_time`, seasonID)
}

// GetShiftsInRange retrieves shifts with date in [from, to)
func (d *DB) GetShiftsInRange(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	return d.queryShifts(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE date >= $1 AND date < $2 ORDER BY start_time`, from, to)
}

// InsertShift inserts a new shift record
func (d *DB) InsertShift(ctx context.Context, shift *model.Shift) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO shifts (id, date, start_time, end_time, required_scouts, required_parents,
			current_scouts, current_parents, location, label, notes, status, season_id, template_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), NULLIF($14, ''), $15)
	`, shift.ID, shift.Date, shift.StartTime, shift.EndTime, shift.RequiredScouts, shift.RequiredParents,
		shift.CurrentScouts, shift.CurrentParents, shift.Location, shift.Label, shift.Notes, shift.Status,
		shift.SeasonID, shift.TemplateID, shift.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert shift: %w", err)
	}
	return nil
}

// UpdateShift updates an existing shift record
func (d *DB) UpdateShift(ctx context.Context, shift *model.Shift) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE shifts SET date = $2, start_time = $3, end_time = $4, required_scouts = $5,
			required_parents = $6, current_scouts = $7, current_parents = $8, location = $9,
			label = $10, notes = $11, status = $12
		WHERE id = $1
	`, shift.ID, shift.Date, shift.StartTime, shift.EndTime, shift.RequiredScouts, shift.RequiredParents,
		shift.CurrentScouts, shift.CurrentParents, shift.Location, shift.Label, shift.Notes, shift.Status)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(model.ErrShiftNotFound, shift.ID)
	}
	return nil
}

// ObserveShifts emits a snapshot of the season's shifts on an interval until
// the context is cancelled. One emission per poll; consumers see the latest
// state, not a diff.
func (d *DB) ObserveShifts(ctx context.Context, seasonID string) (<-chan []model.Shift, error) {
	out := make(chan []model.Shift, 1)

	shifts, err := d.GetShiftsBySeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	out <- shifts

	go func() {
		defer close(out)
		ticker := time.NewTicker(observeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				shifts, err := d.GetShiftsBySeason(ctx, seasonID)
				if err != nil {
					return
				}
				select {
				case out <- shifts:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// observeInterval is the polling period for Observe streams
const observeInterval = 15 * time.Second
