package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

const attendanceColumns = `id, assignment_id, shift_id, user_id, check_in_time, check_out_time,
	check_in_method, check_in_location, hours_worked, status, notes`

func scanAttendance(row pgx.Row) (*model.AttendanceRecord, error) {
	var r model.AttendanceRecord
	err := row.Scan(&r.ID, &r.AssignmentID, &r.ShiftID, &r.UserID, &r.CheckInTime, &r.CheckOutTime,
		&r.CheckInMethod, &r.CheckInLocation, &r.HoursWorked, &r.Status, &r.Notes)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetAttendanceRecord retrieves one attendance record by id
func (d *DB) GetAttendanceRecord(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	record, err := scanAttendance(d.pool.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrAttendanceNotFound, id)
		}
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}
	return record, nil
}

// GetAttendanceByAssignment retrieves the attendance record for an
// assignment, or nil when none exists
func (d *DB) GetAttendanceByAssignment(ctx context.Context, assignmentID string) (*model.AttendanceRecord, error) {
	record, err := scanAttendance(d.pool.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance_records WHERE assignment_id = $1`, assignmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}
	return record, nil
}

func (d *DB) queryAttendance(ctx context.Context, query string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance records: %w", err)
	}

	return records, nil
}

// GetAttendanceByShift retrieves all attendance records for a shift
func (d *DB) GetAttendanceByShift(ctx context.Context, shiftID string) ([]model.AttendanceRecord, error) {
	return d.queryAttendance(ctx, `SELECT `+attendanceColumns+` FROM attendance_records WHERE shift_id = $1`, shiftID)
}

// GetAttendanceByUser retrieves all attendance records held by a user
func (d *DB) GetAttendanceByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	return d.queryAttendance(ctx, `SELECT `+attendanceColumns+` FROM attendance_records WHERE user_id = $1`, userID)
}

// InsertAttendanceRecord inserts a new attendance record
func (d *DB) InsertAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO attendance_records (id, assignment_id, shift_id, user_id, check_in_time,
			check_out_time, check_in_method, check_in_location, hours_worked, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, record.ID, record.AssignmentID, record.ShiftID, record.UserID, record.CheckInTime,
		record.CheckOutTime, record.CheckInMethod, record.CheckInLocation, record.HoursWorked,
		record.Status, record.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert attendance record: %w", err)
	}
	return nil
}

// UpdateAttendanceRecord updates an existing attendance record in place
func (d *DB) UpdateAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE attendance_records SET check_in_time = $2, check_out_time = $3, check_in_method = $4,
			check_in_location = $5, hours_worked = $6, status = $7, notes = $8
		WHERE id = $1
	`, record.ID, record.CheckInTime, record.CheckOutTime, record.CheckInMethod,
		record.CheckInLocation, record.HoursWorked, record.Status, record.Notes)
	if err != nil {
		return fmt.Errorf("failed to update attendance record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(model.ErrAttendanceNotFound, record.ID)
	}
	return nil
}

// ObserveAttendance emits snapshots of a shift's attendance records until
// the context is cancelled
func (d *DB) ObserveAttendance(ctx context.Context, shiftID string) (<-chan []model.AttendanceRecord, error) {
	out := make(chan []model.AttendanceRecord, 1)

	records, err := d.GetAttendanceByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	out <- records

	go func() {
		defer close(out)
		ticker := time.NewTicker(observeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				records, err := d.GetAttendanceByShift(ctx, shiftID)
				if err != nil {
					return
				}
				select {
				case out <- records:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
