package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

// AttendanceHistoryEntry pairs an attendance record with its shift context
type AttendanceHistoryEntry struct {
	Record     model.AttendanceRecord
	ShiftLabel string
	ShiftDate  string
}

// AttendanceHistory is a user's attendance over time
type AttendanceHistory struct {
	Entries         []AttendanceHistoryEntry
	TotalHours      float64
	CompletedShifts int
}

// AttendanceHistoryStore defines the database reads needed for the history
// view
type AttendanceHistoryStore interface {
	GetAttendanceByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error)
	GetShift(ctx context.Context, id string) (*model.Shift, error)
}

// GetAttendanceHistory returns a user's attendance records newest-first,
// with hour and completion totals over checked-out records. Records whose
// shift is missing are skipped.
func GetAttendanceHistory(ctx context.Context, store AttendanceHistoryStore, logger *zap.Logger, userID string) (*AttendanceHistory, error) {
	records, err := store.GetAttendanceByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance records: %w", err)
	}

	history := &AttendanceHistory{Entries: make([]AttendanceHistoryEntry, 0, len(records))}

	for _, record := range records {
		shift, err := store.GetShift(ctx, record.ShiftID)
		if err != nil {
			if model.IsKind(err, model.ErrShiftNotFound) {
				logger.Warn("Attendance record references missing shift, skipping",
					zap.String("record_id", record.ID),
					zap.String("shift_id", record.ShiftID))
				continue
			}
			return nil, err
		}

		history.Entries = append(history.Entries, AttendanceHistoryEntry{
			Record:     record,
			ShiftLabel: shift.Label,
			ShiftDate:  dateKey(shift.Date),
		})

		if record.Status == model.AttendanceCheckedOut {
			history.CompletedShifts++
			if record.HoursWorked != nil {
				history.TotalHours += *record.HoursWorked
			}
		}
	}

	sort.Slice(history.Entries, func(i, j int) bool {
		return history.Entries[i].ShiftDate > history.Entries[j].ShiftDate
	})

	logger.Debug("Assembled attendance history",
		zap.String("user_id", userID),
		zap.Int("entries", len(history.Entries)),
		zap.Float64("total_hours", history.TotalHours))

	return history, nil
}

// ShiftAttendanceEntry merges one assignment with its volunteer and
// attendance state
type ShiftAttendanceEntry struct {
	Assignment model.Assignment
	UserName   string
	Record     *model.AttendanceRecord
	IsWalkIn   bool
}

// ShiftAttendanceDetails is the committee-facing rollup for one shift
type ShiftAttendanceDetails struct {
	Shift            model.Shift
	Entries          []ShiftAttendanceEntry
	CheckedInCount   int
	CheckedOutCount  int
	NoShowCount      int
	TotalHoursWorked float64
}

// ShiftAttendanceStore defines the database reads needed for the rollup
type ShiftAttendanceStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	GetAssignmentsByShift(ctx context.Context, shiftID string) ([]model.Assignment, error)
	GetAttendanceByShift(ctx context.Context, shiftID string) ([]model.AttendanceRecord, error)
}

// GetShiftAttendance assembles the committee-facing attendance rollup for a
// shift. The requester must hold a leadership role. CheckedInCount includes
// volunteers who have since checked out.
func GetShiftAttendance(ctx context.Context, store ShiftAttendanceStore, logger *zap.Logger, shiftID, requestedBy string) (*ShiftAttendanceDetails, error) {
	requester, err := store.GetUser(ctx, requestedBy)
	if err != nil {
		return nil, err
	}
	if !requester.Role.IsLeadership() {
		return nil, model.Unauthorized("user %s may not view shift attendance", requester.ID)
	}

	shift, err := store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	assignments, err := store.GetAssignmentsByShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift assignments: %w", err)
	}

	records, err := store.GetAttendanceByShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance records: %w", err)
	}

	recordsByAssignment := make(map[string]model.AttendanceRecord, len(records))
	for _, r := range records {
		recordsByAssignment[r.AssignmentID] = r
	}

	details := &ShiftAttendanceDetails{Shift: *shift}

	for _, a := range assignments {
		if !a.IsActive() {
			continue
		}

		userName := ""
		user, err := store.GetUser(ctx, a.UserID)
		if err != nil {
			if !model.IsKind(err, model.ErrUserNotFound) {
				return nil, err
			}
			logger.Warn("Assignment references missing user",
				zap.String("assignment_id", a.ID),
				zap.String("user_id", a.UserID))
		} else {
			userName = user.FullName()
		}

		entry := ShiftAttendanceEntry{
			Assignment: a,
			UserName:   userName,
			IsWalkIn:   a.IsWalkIn(),
		}

		if r, ok := recordsByAssignment[a.ID]; ok {
			record := r
			entry.Record = &record

			switch record.Status {
			case model.AttendanceCheckedIn:
				details.CheckedInCount++
			case model.AttendanceCheckedOut:
				details.CheckedInCount++
				details.CheckedOutCount++
				if record.HoursWorked != nil {
					details.TotalHoursWorked += *record.HoursWorked
				}
			case model.AttendanceNoShow:
				details.NoShowCount++
			}
		}

		details.Entries = append(details.Entries, entry)
	}

	logger.Debug("Assembled shift attendance rollup",
		zap.String("shift_id", shiftID),
		zap.Int("entries", len(details.Entries)),
		zap.Int("checked_in", details.CheckedInCount))

	return details, nil
}
