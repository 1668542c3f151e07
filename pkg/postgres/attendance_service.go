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

// CheckIn atomically writes the check-in record for an assignment. The unique
// constraint on assignment_id guarantees at most one record even under
// concurrent check-ins; a record still in pending or noShow state is
// reclaimed in place rather than blocking the check-in.
func (d *DB) CheckIn(ctx context.Context, assignmentID, shiftID, qrCodeData, location string) (string, time.Time, error) {
	method := model.CheckInManual
	if qrCodeData != "" {
		if qrCodeData != shiftID {
			return "", time.Time{}, model.OperationFailed("scanned code does not match this shift")
		}
		method = model.CheckInQRCode
	}

	var userID string
	err := d.pool.QueryRow(ctx, `SELECT user_id FROM assignments WHERE id = $1`, assignmentID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, model.NotFound(model.ErrAssignmentNotFound, assignmentID)
		}
		return "", time.Time{}, fmt.Errorf("failed to query assignment: %w", err)
	}

	recordID := uuid.New().String()
	checkInTime := time.Now().UTC()
	err = d.pool.QueryRow(ctx, `
		INSERT INTO attendance_records (id, assignment_id, shift_id, user_id, check_in_time,
			check_in_method, check_in_location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (assignment_id) DO UPDATE
		SET check_in_time = EXCLUDED.check_in_time,
			check_in_method = EXCLUDED.check_in_method,
			check_in_location = EXCLUDED.check_in_location,
			status = EXCLUDED.status
		WHERE attendance_records.status NOT IN ($8, $9)
		RETURNING id
	`, recordID, assignmentID, shiftID, userID, checkInTime, method, location,
		model.AttendanceCheckedIn, model.AttendanceCheckedOut).Scan(&recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, model.OperationFailed("assignment %s is already checked in", assignmentID)
		}
		return "", time.Time{}, fmt.Errorf("failed to insert attendance record: %w", err)
	}

	return recordID, checkInTime, nil
}

// CheckOut atomically closes an open attendance record, computing worked hours
// from the stored check-in time. The status guard blocks double check-outs.
func (d *DB) CheckOut(ctx context.Context, assignmentID, notes string) (time.Time, float64, error) {
	checkOutTime := time.Now().UTC()

	var hoursWorked float64
	err := d.pool.QueryRow(ctx, `
		UPDATE attendance_records
		SET check_out_time = $2,
			hours_worked = ROUND((EXTRACT(EPOCH FROM ($2::timestamptz - check_in_time)) / 3600.0)::numeric, 2),
			status = $3,
			notes = TRIM(BOTH E'\n' FROM notes || E'\n' || $4)
		WHERE assignment_id = $1 AND status = $5
		RETURNING hours_worked
	`, assignmentID, checkOutTime, model.AttendanceCheckedOut, notes, model.AttendanceCheckedIn).Scan(&hoursWorked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, 0, model.OperationFailed("assignment %s has no open check-in", assignmentID)
		}
		return time.Time{}, 0, fmt.Errorf("failed to close attendance record: %w", err)
	}

	return checkOutTime, hoursWorked, nil
}
