package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

// SignUp atomically claims a capacity slot and writes the assignment. The
// counter increment is conditional on remaining capacity so two concurrent
// signups for the last slot cannot both succeed.
func (d *DB) SignUp(ctx context.Context, shiftID, userID string, assignmentType model.AssignmentType, notes string) (string, error) {
	counterColumn := "current_scouts"
	requiredColumn := "required_scouts"
	if assignmentType == model.AssignmentParent {
		counterColumn = "current_parents"
		requiredColumn = "required_parents"
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin signup transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE shifts SET %s = %s + 1
		WHERE id = $1 AND status = 'published' AND %s < %s
	`, counterColumn, counterColumn, counterColumn, requiredColumn), shiftID)
	if err != nil {
		return "", fmt.Errorf("failed to claim shift slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", model.OperationFailed("no open %s slot on shift %s", assignmentType, shiftID)
	}

	assignmentID := uuid.New().String()
	_, err = tx.Exec(ctx, `
		INSERT INTO assignments (id, shift_id, user_id, assignment_type, status, notes, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, assignmentID, shiftID, userID, assignmentType, model.AssignmentConfirmed, notes, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit signup: %w", err)
	}

	return assignmentID, nil
}

// CancelAssignment atomically cancels an assignment and releases its slot.
// The status guard keeps a double cancellation from decrementing twice.
func (d *DB) CancelAssignment(ctx context.Context, assignmentID, reason string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin cancellation transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var shiftID string
	var assignmentType model.AssignmentType
	err = tx.QueryRow(ctx, `
		UPDATE assignments
		SET status = $2, notes = TRIM(BOTH E'\n' FROM notes || E'\n' || $3)
		WHERE id = $1 AND status <> $2
		RETURNING shift_id, assignment_type
	`, assignmentID, model.AssignmentCancelled, "Cancelled: "+reason).Scan(&shiftID, &assignmentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NotFound(model.ErrAssignmentNotFound, assignmentID)
		}
		return fmt.Errorf("failed to cancel assignment: %w", err)
	}

	counterColumn := "current_scouts"
	if assignmentType == model.AssignmentParent {
		counterColumn = "current_parents"
	}
	_, err = tx.Exec(ctx, fmt.Sprintf(`
		UPDATE shifts SET %s = GREATEST(%s - 1, 0) WHERE id = $1
	`, counterColumn, counterColumn), shiftID)
	if err != nil {
		return fmt.Errorf("failed to release shift slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}

	return nil
}
