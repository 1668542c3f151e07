package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
	"github.com/trooptools/shiftwise/pkg/db"
)

// CheckInRequest checks a volunteer in to their assigned shift
type CheckInRequest struct {
	AssignmentID string
	QRCodeData   string
	Location     string
}

// CheckInResult reports the attendance record opened by the check-in
type CheckInResult struct {
	AttendanceRecordID string
	CheckInTime        time.Time
}

// CheckInStore defines the database reads needed to validate a check-in
type CheckInStore interface {
	GetAssignment(ctx context.Context, id string) (*model.Assignment, error)
	GetAttendanceByAssignment(ctx context.Context, assignmentID string) (*model.AttendanceRecord, error)
}

// CheckIn validates that the assignment is active and not already checked
// in, then delegates the atomic record creation to the attendance service
func CheckIn(ctx context.Context, store CheckInStore, attendance db.AttendanceService, logger *zap.Logger, req CheckInRequest) (*CheckInResult, error) {
	assignment, err := store.GetAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}
	if !assignment.IsActive() {
		return nil, model.OperationFailed("assignment %s is cancelled", assignment.ID)
	}

	record, err := store.GetAttendanceByAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance record: %w", err)
	}
	if record != nil && (record.Status == model.AttendanceCheckedIn || record.Status == model.AttendanceCheckedOut) {
		return nil, model.OperationFailed("assignment %s is already checked in", assignment.ID)
	}

	logger.Info("Checking in volunteer",
		zap.String("assignment_id", assignment.ID),
		zap.String("shift_id", assignment.ShiftID),
		zap.Bool("qr_code", req.QRCodeData != ""))

	recordID, checkInTime, err := attendance.CheckIn(ctx, assignment.ID, assignment.ShiftID, req.QRCodeData, req.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to check in: %w", err)
	}

	return &CheckInResult{AttendanceRecordID: recordID, CheckInTime: checkInTime}, nil
}

// CheckOutRequest checks a volunteer out of an in-progress shift
type CheckOutRequest struct {
	AssignmentID string
	Notes        string
}

// CheckOutResult reports the close of an attendance record. HoursWorked is
// computed by the attendance service.
type CheckOutResult struct {
	CheckOutTime time.Time
	HoursWorked  float64
}

// CheckOutStore defines the database reads needed to validate a check-out
type CheckOutStore interface {
	GetAttendanceByAssignment(ctx context.Context, assignmentID string) (*model.AttendanceRecord, error)
}

// CheckOut validates that an open check-in exists for the assignment, then
// delegates the atomic close to the attendance service
func CheckOut(ctx context.Context, store CheckOutStore, attendance db.AttendanceService, logger *zap.Logger, req CheckOutRequest) (*CheckOutResult, error) {
	record, err := store.GetAttendanceByAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance record: %w", err)
	}
	if record == nil {
		return nil, model.NotFound(model.ErrAttendanceNotFound, req.AssignmentID)
	}
	if record.Status != model.AttendanceCheckedIn {
		return nil, model.OperationFailed("assignment %s is not checked in (status %s)", req.AssignmentID, record.Status)
	}

	logger.Info("Checking out volunteer", zap.String("assignment_id", req.AssignmentID))

	checkOutTime, hoursWorked, err := attendance.CheckOut(ctx, req.AssignmentID, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to check out: %w", err)
	}

	logger.Info("Check-out complete",
		zap.String("assignment_id", req.AssignmentID),
		zap.Float64("hours_worked", hoursWorked))

	return &CheckOutResult{CheckOutTime: checkOutTime, HoursWorked: hoursWorked}, nil
}

// MarkNoShowRequest records that an assignment holder never attended
type MarkNoShowRequest struct {
	AssignmentID string
	RequestedBy  string
	Notes        string
}

// MarkNoShowResult reports the attendance record that now carries the
// no-show status
type MarkNoShowResult struct {
	AttendanceRecordID string
}

// NoShowStore defines the database operations needed to mark a no-show
type NoShowStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetAssignment(ctx context.Context, id string) (*model.Assignment, error)
	GetAttendanceByAssignment(ctx context.Context, assignmentID string) (*model.AttendanceRecord, error)
	InsertAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error
	UpdateAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error
}

// MarkNoShow marks an assignment as a no-show. Requires a leadership role.
// An existing attendance record is updated in place; otherwise a new record
// is created with adminOverride as its method. There is never more than one
// record per assignment.
func MarkNoShow(ctx context.Context, store NoShowStore, logger *zap.Logger, req MarkNoShowRequest) (*MarkNoShowResult, error) {
	requester, err := store.GetUser(ctx, req.RequestedBy)
	if err != nil {
		return nil, err
	}
	if !requester.Role.IsLeadership() {
		return nil, model.Unauthorized("user %s may not mark no-shows", requester.ID)
	}

	assignment, err := store.GetAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}

	record, err := store.GetAttendanceByAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance record: %w", err)
	}

	auditLine := fmt.Sprintf("Marked as no-show by %s", requester.FullName())

	if record != nil {
		record.Status = model.AttendanceNoShow
		record.CheckOutTime = nil
		record.HoursWorked = nil
		record.Notes = appendNote(record.Notes, auditLine)
		record.Notes = appendNote(record.Notes, req.Notes)

		logger.Info("Marking existing attendance record as no-show",
			zap.String("record_id", record.ID),
			zap.String("assignment_id", assignment.ID))

		if err := store.UpdateAttendanceRecord(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to update attendance record: %w", err)
		}
		return &MarkNoShowResult{AttendanceRecordID: record.ID}, nil
	}

	record = &model.AttendanceRecord{
		ID:            uuid.New().String(),
		AssignmentID:  assignment.ID,
		ShiftID:       assignment.ShiftID,
		UserID:        assignment.UserID,
		CheckInMethod: model.CheckInAdminOverride,
		Status:        model.AttendanceNoShow,
		Notes:         appendNote(auditLine, req.Notes),
	}

	logger.Info("Creating no-show attendance record",
		zap.String("record_id", record.ID),
		zap.String("assignment_id", assignment.ID))

	if err := store.InsertAttendanceRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to insert attendance record: %w", err)
	}

	return &MarkNoShowResult{AttendanceRecordID: record.ID}, nil
}

// UpdateAttendanceRequest is an administrative correction to an attendance
// record. Nil fields keep their stored values.
type UpdateAttendanceRequest struct {
	RecordID        string
	RequestedBy     string
	CheckInTime     *time.Time
	CheckOutTime    *time.Time
	Status          *model.AttendanceStatus
	HoursWorked     *float64
	CorrectionNotes string
	OverrideReason  string
}

// UpdateAttendanceStore defines the database operations needed for an
// administrative correction
type UpdateAttendanceStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetAttendanceRecord(ctx context.Context, id string) (*model.AttendanceRecord, error)
	UpdateAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error
}

// UpdateAttendance applies an administrative override to an attendance
// record. Requires a leadership role. Hours are recomputed from the check-in
// and check-out times when not explicitly supplied; an explicit value always
// wins. Every correction appends to the audit trail and stamps the record
// with the adminOverride method.
func UpdateAttendance(ctx context.Context, store UpdateAttendanceStore, logger *zap.Logger, req UpdateAttendanceRequest) (*model.AttendanceRecord, error) {
	requester, err := store.GetUser(ctx, req.RequestedBy)
	if err != nil {
		return nil, err
	}
	if !requester.Role.IsLeadership() {
		return nil, model.Unauthorized("user %s may not correct attendance records", requester.ID)
	}

	record, err := store.GetAttendanceRecord(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}

	if req.CheckInTime != nil {
		record.CheckInTime = req.CheckInTime
	}
	if req.CheckOutTime != nil {
		record.CheckOutTime = req.CheckOutTime
	}
	if req.Status != nil {
		record.Status = *req.Status
	}

	switch {
	case req.HoursWorked != nil:
		// An explicitly supplied value always wins over the computed one
		record.HoursWorked = req.HoursWorked
	case record.CheckInTime != nil && record.CheckOutTime != nil:
		hours := hoursBetween(*record.CheckInTime, *record.CheckOutTime)
		record.HoursWorked = &hours
	}

	record.CheckInMethod = model.CheckInAdminOverride
	record.Notes = appendNote(record.Notes, fmt.Sprintf("Admin override by %s: %s", requester.FullName(), req.OverrideReason))
	record.Notes = appendNote(record.Notes, req.CorrectionNotes)

	logger.Info("Applying attendance correction",
		zap.String("record_id", record.ID),
		zap.String("requested_by", requester.ID),
		zap.String("reason", req.OverrideReason))

	if err := store.UpdateAttendanceRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update attendance record: %w", err)
	}

	return record, nil
}

// AddWalkInRequest registers a volunteer onto an in-progress shift
type AddWalkInRequest struct {
	ShiftID     string
	UserID      string
	RequestedBy string
	Notes       string
}

// WalkInResult is the structured outcome of a walk-in registration.
// Expected business rejections (shift not started, already assigned) come
// back as Success=false with a message instead of an error, so callers can
// show them to the user without treating them as faults.
type WalkInResult struct {
	Success            bool
	Message            string
	AssignmentID       string
	AttendanceRecordID string
	AutoCheckedIn      bool
}

// WalkInStore defines the database operations needed to register a walk-in
type WalkInStore interface {
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetAssignmentsByShift(ctx context.Context, shiftID string) ([]model.Assignment, error)
	GetAttendanceByAssignment(ctx context.Context, assignmentID string) (*model.AttendanceRecord, error)
	InsertAssignment(ctx context.Context, assignment *model.Assignment) error
	InsertAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error
}

// AddWalkIn registers a volunteer onto a shift that is already underway and
// checks them in immediately. The requester must hold a leadership role or
// be a checked-in volunteer on the same shift.
func AddWalkIn(ctx context.Context, store WalkInStore, logger *zap.Logger, req AddWalkInRequest) (*WalkInResult, error) {
	shift, err := store.GetShift(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}

	requester, err := store.GetUser(ctx, req.RequestedBy)
	if err != nil {
		return nil, err
	}

	assignments, err := store.GetAssignmentsByShift(ctx, req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift assignments: %w", err)
	}

	if !requester.Role.IsLeadership() {
		authorized, err := isCheckedInOnShift(ctx, store, assignments, requester.ID)
		if err != nil {
			return nil, err
		}
		if !authorized {
			return nil, model.Unauthorized("user %s may not add walk-ins to shift %s", requester.ID, shift.ID)
		}
	}

	// Walk-ins only make sense once the shift is underway. This is an
	// expected outcome for the caller to display, not an error.
	if time.Now().UTC().Before(shift.StartTime) {
		logger.Debug("Walk-in rejected, shift not started", zap.String("shift_id", shift.ID))
		return &WalkInResult{
			Success: false,
			Message: fmt.Sprintf("Shifts that haven't started yet cannot accept walk-ins (starts %s)", shift.StartTime.Format("15:04")),
		}, nil
	}

	target, err := store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	for _, a := range assignments {
		if a.UserID == target.ID && a.IsActive() {
			logger.Debug("Walk-in rejected, duplicate assignment",
				zap.String("shift_id", shift.ID),
				zap.String("user_id", target.ID))
			return &WalkInResult{
				Success: false,
				Message: fmt.Sprintf("%s already has an assignment on this shift", target.FullName()),
			}, nil
		}
	}

	assignmentType := model.AssignmentScout
	if target.Role == model.RoleParent {
		assignmentType = model.AssignmentParent
	}

	now := time.Now().UTC()
	assignment := &model.Assignment{
		ID:         uuid.New().String(),
		ShiftID:    shift.ID,
		UserID:     target.ID,
		Type:       assignmentType,
		Status:     model.AssignmentConfirmed,
		Notes:      req.Notes,
		AssignedAt: now,
		AssignedBy: requester.ID,
	}

	if err := store.InsertAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to insert walk-in assignment: %w", err)
	}

	record := &model.AttendanceRecord{
		ID:            uuid.New().String(),
		AssignmentID:  assignment.ID,
		ShiftID:       shift.ID,
		UserID:        target.ID,
		CheckInTime:   &now,
		CheckInMethod: model.CheckInManual,
		Status:        model.AttendanceCheckedIn,
	}

	if err := store.InsertAttendanceRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to insert walk-in attendance record: %w", err)
	}

	logger.Info("Walk-in registered",
		zap.String("shift_id", shift.ID),
		zap.String("user_id", target.ID),
		zap.String("assignment_id", assignment.ID),
		zap.String("added_by", requester.ID))

	return &WalkInResult{
		Success:            true,
		AssignmentID:       assignment.ID,
		AttendanceRecordID: record.ID,
		AutoCheckedIn:      true,
	}, nil
}

// isCheckedInOnShift reports whether the user holds an active, checked-in
// assignment among the given shift assignments
func isCheckedInOnShift(ctx context.Context, store WalkInStore, assignments []model.Assignment, userID string) (bool, error) {
	for _, a := range assignments {
		if a.UserID != userID || !a.IsActive() {
			continue
		}
		record, err := store.GetAttendanceByAssignment(ctx, a.ID)
		if err != nil {
			return false, fmt.Errorf("failed to fetch attendance record: %w", err)
		}
		if record != nil && record.Status == model.AttendanceCheckedIn {
			return true, nil
		}
	}
	return false, nil
}
