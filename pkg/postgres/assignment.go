package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

const assignmentColumns = `id, shift_id, user_id, assignment_type, status, notes, assigned_at, COALESCE(assigned_by, '')`

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	var a model.Assignment
	err := row.Scan(&a.ID, &a.ShiftID, &a.UserID, &a.Type, &a.Status, &a.Notes, &a.AssignedAt, &a.AssignedBy)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAssignment retrieves one assignment by id
func (d *DB) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	assignment, err := scanAssignment(d.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrAssignmentNotFound, id)
		}
		return nil, fmt.Errorf("failed to query assignment: %w", err)
	}
	return assignment, nil
}

func (d *DB) queryAssignments(ctx context.Context, query string, args ...any) ([]model.Assignment, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, *assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

// GetAssignmentsByShift retrieves all assignments for a shift
func (d *DB) GetAssignmentsByShift(ctx context.Context, shiftID string) ([]model.Assignment, error) {
	return d.queryAssignments(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE shift_id = $1 ORDER BY assigned_at`, shiftID)
}

// GetAssignmentsByUser retrieves all assignments held by a user
func (d *DB) GetAssignmentsByUser(ctx context.Context, userID string) ([]model.Assignment, error) {
	return d.queryAssignments(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE user_id = $1 ORDER BY assigned_at`, userID)
}

// InsertAssignment inserts a new assignment record
func (d *DB) InsertAssignment(ctx context.Context, assignment *model.Assignment) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO assignments (id, shift_id, user_id, assignment_type, status, notes, assigned_at, assigned_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
	`, assignment.ID, assignment.ShiftID, assignment.UserID, assignment.Type, assignment.Status,
		assignment.Notes, assignment.AssignedAt, assignment.AssignedBy)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

// UpdateAssignment updates an existing assignment record
func (d *DB) UpdateAssignment(ctx context.Context, assignment *model.Assignment) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE assignments SET status = $2, notes = $3 WHERE id = $1
	`, assignment.ID, assignment.Status, assignment.Notes)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(model.ErrAssignmentNotFound, assignment.ID)
	}
	return nil
}

// ObserveAssignments emits snapshots of a shift's assignments until the
// context is cancelled
func (d *DB) ObserveAssignments(ctx context.Context, shiftID string) (<-chan []model.Assignment, error) {
	out := make(chan []model.Assignment, 1)

	assignments, err := d.GetAssignmentsByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	out <- assignments

	go func() {
		defer close(out)
		ticker := time.NewTicker(observeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				assignments, err := d.GetAssignmentsByShift(ctx, shiftID)
				if err != nil {
					return
				}
				select {
				case out <- assignments:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
