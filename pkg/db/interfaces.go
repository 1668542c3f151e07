package db

import (
	"context"
	"time"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

// ShiftStore defines the interface for shift persistence operations
type ShiftStore interface {
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	GetShiftsBySeason(ctx context.Context, seasonID string) ([]model.Shift, error)
	GetShiftsInRange(ctx context.Context, from, to time.Time) ([]model.Shift, error)
	InsertShift(ctx context.Context, shift *model.Shift) error
	UpdateShift(ctx context.Context, shift *model.Shift) error
	ObserveShifts(ctx context.Context, seasonID string) (<-chan []model.Shift, error)
}

// AssignmentStore defines the interface for assignment persistence operations
type AssignmentStore interface {
	GetAssignment(ctx context.Context, id string) (*model.Assignment, error)
	GetAssignmentsByShift(ctx context.Context, shiftID string) ([]model.Assignment, error)
	GetAssignmentsByUser(ctx context.Context, userID string) ([]model.Assignment, error)
	InsertAssignment(ctx context.Context, assignment *model.Assignment) error
	UpdateAssignment(ctx context.Context, assignment *model.Assignment) error
	ObserveAssignments(ctx context.Context, shiftID string) (<-chan []model.Assignment, error)
}

// AttendanceStore defines the interface for attendance record persistence.
// GetAttendanceByAssignment returns (nil, nil) when no record exists for the
// assignment; at most one record per assignment is ever stored.
type AttendanceStore interface {
	GetAttendanceRecord(ctx context.Context, id string) (*model.AttendanceRecord, error)
	GetAttendanceByAssignment(ctx context.Context, assignmentID string) (*model.AttendanceRecord, error)
	GetAttendanceByShift(ctx context.Context, shiftID string) ([]model.AttendanceRecord, error)
	GetAttendanceByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error)
	InsertAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error
	UpdateAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error
	ObserveAttendance(ctx context.Context, shiftID string) (<-chan []model.AttendanceRecord, error)
}

// SeasonStore defines the interface for season persistence operations
type SeasonStore interface {
	GetSeason(ctx context.Context, id string) (*model.Season, error)
	GetSeasons(ctx context.Context) ([]model.Season, error)
	InsertSeason(ctx context.Context, season *model.Season) error
	UpdateSeason(ctx context.Context, season *model.Season) error
}

// TemplateStore defines the interface for shift template persistence
type TemplateStore interface {
	GetTemplate(ctx context.Context, id string) (*model.ShiftTemplate, error)
	GetTemplates(ctx context.Context) ([]model.ShiftTemplate, error)
	InsertTemplate(ctx context.Context, template *model.ShiftTemplate) error
	UpdateTemplate(ctx context.Context, template *model.ShiftTemplate) error
}

// UserStore defines the interface for user lookups
type UserStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUsers(ctx context.Context) ([]model.User, error)
}

// HouseholdStore defines the interface for household persistence
type HouseholdStore interface {
	GetHousehold(ctx context.Context, id string) (*model.Household, error)
	UpdateHousehold(ctx context.Context, household *model.Household) error
}

// InviteCodeStore defines the interface for invite code persistence
type InviteCodeStore interface {
	GetInviteCode(ctx context.Context, code string) (*model.InviteCode, error)
	InsertInviteCode(ctx context.Context, invite *model.InviteCode) error
	UpdateInviteCode(ctx context.Context, invite *model.InviteCode) error
}

// MessageStore defines the interface for broadcast message records
type MessageStore interface {
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	GetMessages(ctx context.Context) ([]model.Message, error)
	InsertMessage(ctx context.Context, message *model.Message) error
}

// SignupService performs the atomic signup/cancellation mutation: validate
// capacity and write the assignment plus shift counter in one step. The
// implementation owns whatever locking is needed; the use-case layer only
// pre-validates against a snapshot.
type SignupService interface {
	SignUp(ctx context.Context, shiftID, userID string, assignmentType model.AssignmentType, notes string) (assignmentID string, err error)
	CancelAssignment(ctx context.Context, assignmentID, reason string) error
}

// AttendanceService performs the atomic attendance mutations
type AttendanceService interface {
	CheckIn(ctx context.Context, assignmentID, shiftID, qrCodeData, location string) (recordID string, checkInTime time.Time, err error)
	CheckOut(ctx context.Context, assignmentID, notes string) (checkOutTime time.Time, hoursWorked float64, err error)
}

// MessagingService broadcasts a notification to volunteers
type MessagingService interface {
	SendMessage(ctx context.Context, title, body, targetAudience, priority string) error
}

// FamilyService manages household membership, external to this core
type FamilyService interface {
	LinkScoutToHousehold(ctx context.Context, scoutID, householdID string) error
	RegenerateHouseholdLinkCode(ctx context.Context, householdID string) (string, error)
}
