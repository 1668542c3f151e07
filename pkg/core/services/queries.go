package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

// MyShiftEntry pairs one of a user's assignments with its resolved shift
type MyShiftEntry struct {
	Assignment model.Assignment
	Shift      model.Shift
}

// MyShiftsStore defines the database reads needed to list a user's shifts
type MyShiftsStore interface {
	GetAssignmentsByUser(ctx context.Context, userID string) ([]model.Assignment, error)
	GetShift(ctx context.Context, id string) (*model.Shift, error)
}

// GetMyShifts returns the user's non-cancelled assignments joined to their
// shifts, sorted by start time. Assignments whose shift record is missing
// are skipped.
func GetMyShifts(ctx context.Context, store MyShiftsStore, logger *zap.Logger, userID string) ([]MyShiftEntry, error) {
	assignments, err := store.GetAssignmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	entries := make([]MyShiftEntry, 0, len(assignments))
	for _, a := range assignments {
		if !a.IsActive() {
			continue
		}
		shift, err := store.GetShift(ctx, a.ShiftID)
		if err != nil {
			if model.IsKind(err, model.ErrShiftNotFound) {
				logger.Warn("Assignment references missing shift, skipping",
					zap.String("assignment_id", a.ID),
					zap.String("shift_id", a.ShiftID))
				continue
			}
			return nil, err
		}
		entries = append(entries, MyShiftEntry{Assignment: a, Shift: *shift})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Shift.StartTime.Before(entries[j].Shift.StartTime)
	})

	logger.Debug("Assembled user shifts", zap.String("user_id", userID), zap.Int("count", len(entries)))

	return entries, nil
}

// ShiftAssignmentView is an assignment with the volunteer's display name
type ShiftAssignmentView struct {
	Assignment model.Assignment
	UserName   string
}

// ShiftDetails is the full read model for one shift
type ShiftDetails struct {
	Shift       model.Shift
	Assignments []ShiftAssignmentView
	CanSignUp   bool
	CanCancel   bool
}

// ShiftDetailsStore defines the database reads needed for the shift detail
// view
type ShiftDetailsStore interface {
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	GetAssignmentsByShift(ctx context.Context, shiftID string) ([]model.Assignment, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// GetShiftDetails resolves a shift with its active assignments and, when a
// viewing user is supplied, whether that user can sign up or cancel.
// Assignments whose user record is missing are skipped.
func GetShiftDetails(ctx context.Context, store ShiftDetailsStore, logger *zap.Logger, shiftID, userID string) (*ShiftDetails, error) {
	shift, err := store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	assignments, err := store.GetAssignmentsByShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift assignments: %w", err)
	}

	views := make([]ShiftAssignmentView, 0, len(assignments))
	userAssigned := false
	for _, a := range assignments {
		if !a.IsActive() {
			continue
		}
		if userID != "" && a.UserID == userID {
			userAssigned = true
		}
		user, err := store.GetUser(ctx, a.UserID)
		if err != nil {
			if model.IsKind(err, model.ErrUserNotFound) {
				logger.Warn("Assignment references missing user, skipping",
					zap.String("assignment_id", a.ID),
					zap.String("user_id", a.UserID))
				continue
			}
			return nil, err
		}
		views = append(views, ShiftAssignmentView{Assignment: a, UserName: user.FullName()})
	}

	full := shift.IsFull(model.AssignmentScout) && shift.IsFull(model.AssignmentParent)

	return &ShiftDetails{
		Shift:       *shift,
		Assignments: views,
		CanSignUp:   shift.Status == model.ShiftPublished && !full && !userAssigned,
		CanCancel:   userID != "" && userAssigned,
	}, nil
}

// WeekDay is one day bucket in a week schedule
type WeekDay struct {
	Date   time.Time
	Shifts []model.Shift
}

// WeekSchedule is a Sunday-start, seven-day window of shifts
type WeekSchedule struct {
	WeekStart time.Time
	Days      []WeekDay
}

// WeekScheduleStore defines the database reads needed for the week view
type WeekScheduleStore interface {
	GetShiftsInRange(ctx context.Context, from, to time.Time) ([]model.Shift, error)
}

// GetWeekSchedule buckets the shifts around a reference date into seven
// ordered day groups starting on Sunday. Empty days keep their bucket.
func GetWeekSchedule(ctx context.Context, store WeekScheduleStore, logger *zap.Logger, reference time.Time) (*WeekSchedule, error) {
	weekStart := sundayOf(reference)
	weekEnd := weekStart.AddDate(0, 0, 7)

	shifts, err := store.GetShiftsInRange(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts: %w", err)
	}

	byDate := make(map[string][]model.Shift)
	for _, s := range shifts {
		key := dateKey(s.Date)
		byDate[key] = append(byDate[key], s)
	}

	days := make([]WeekDay, 7)
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i)
		dayShifts := byDate[dateKey(date)]
		sort.Slice(dayShifts, func(a, b int) bool {
			return dayShifts[a].StartTime.Before(dayShifts[b].StartTime)
		})
		days[i] = WeekDay{Date: date, Shifts: dayShifts}
	}

	logger.Debug("Assembled week schedule",
		zap.String("week_start", dateKey(weekStart)),
		zap.Int("shift_count", len(shifts)))

	return &WeekSchedule{WeekStart: weekStart, Days: days}, nil
}
