package model

import "time"

// UserRole classifies a volunteer account
type UserRole string

const (
	RoleScout     UserRole = "scout"
	RoleParent    UserRole = "parent"
	RoleLeader    UserRole = "leader"
	RoleCommittee UserRole = "committee"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleScout, RoleParent, RoleLeader, RoleCommittee:
		return true
	}
	return false
}

// IsLeadership reports whether the role carries administrative permissions
func (r UserRole) IsLeadership() bool {
	return r == RoleLeader || r == RoleCommittee
}

// AssignmentType is the capacity slot a volunteer fills on a shift
type AssignmentType string

const (
	AssignmentScout  AssignmentType = "scout"
	AssignmentParent AssignmentType = "parent"
)

func (t AssignmentType) IsValid() bool {
	return t == AssignmentScout || t == AssignmentParent
}

// ShiftStatus is the lifecycle state of a shift
type ShiftStatus string

const (
	ShiftDraft     ShiftStatus = "draft"
	ShiftPublished ShiftStatus = "published"
	ShiftCancelled ShiftStatus = "cancelled"
)

// AssignmentStatus is the lifecycle state of an assignment
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentConfirmed AssignmentStatus = "confirmed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// AttendanceStatus is the lifecycle state of an attendance record
type AttendanceStatus string

const (
	AttendancePending    AttendanceStatus = "pending"
	AttendanceCheckedIn  AttendanceStatus = "checkedIn"
	AttendanceCheckedOut AttendanceStatus = "checkedOut"
	AttendanceNoShow     AttendanceStatus = "noShow"
)

// CheckInMethod records how a check-in was performed
type CheckInMethod string

const (
	CheckInQRCode        CheckInMethod = "qrCode"
	CheckInManual        CheckInMethod = "manual"
	CheckInAdminOverride CheckInMethod = "adminOverride"
)

// SeasonStatus is the lifecycle state of a season
type SeasonStatus string

const (
	SeasonDraft     SeasonStatus = "draft"
	SeasonActive    SeasonStatus = "active"
	SeasonCompleted SeasonStatus = "completed"
)

// User represents a volunteer account
type User struct {
	ID          string
	FirstName   string
	LastName    string
	Role        UserRole
	Active      bool
	Email       string
	HouseholdID string // Empty string if not linked to a household
}

// FullName returns "First Last" for display and audit notes
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Shift is a scheduled block of volunteer time with capacity requirements
type Shift struct {
	ID              string
	Date            time.Time // Calendar day of the shift, midnight UTC
	StartTime       time.Time
	EndTime         time.Time
	RequiredScouts  int
	RequiredParents int
	CurrentScouts   int
	CurrentParents  int
	Location        string
	Label           string
	Notes           string
	Status          ShiftStatus
	SeasonID        string // Empty for manually created shifts outside a season
	TemplateID      string // Empty for manually created shifts
	CreatedAt       time.Time
}

// IsFull reports whether the capacity slot for the given type is exhausted
func (s Shift) IsFull(t AssignmentType) bool {
	if t == AssignmentScout {
		return s.CurrentScouts >= s.RequiredScouts
	}
	return s.CurrentParents >= s.RequiredParents
}

// Assignment is a volunteer's claim on a shift
type Assignment struct {
	ID         string
	ShiftID    string
	UserID     string
	Type       AssignmentType
	Status     AssignmentStatus
	Notes      string
	AssignedAt time.Time
	AssignedBy string // Set only for walk-ins and admin-added assignments
}

// IsActive reports whether the assignment still claims a slot
func (a Assignment) IsActive() bool {
	return a.Status != AssignmentCancelled
}

// IsWalkIn reports whether the assignment was added by someone other than
// the volunteer themselves
func (a Assignment) IsWalkIn() bool {
	return a.AssignedBy != ""
}

// AttendanceRecord is the check-in/out/no-show record tied to one assignment.
// Records are never deleted; corrections append to Notes.
type AttendanceRecord struct {
	ID              string
	AssignmentID    string
	ShiftID         string
	UserID          string
	CheckInTime     *time.Time
	CheckOutTime    *time.Time
	CheckInMethod   CheckInMethod
	CheckInLocation string
	HoursWorked     *float64
	Status          AttendanceStatus
	Notes           string
}

// Season groups shifts and templates over a date-bounded period
type Season struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    SeasonStatus
}

// ShiftTemplate is a reusable shift definition used to bulk-generate shifts
type ShiftTemplate struct {
	ID              string
	Name            string
	StartTime       time.Time // Only the time-of-day component is used
	EndTime         time.Time
	RequiredScouts  int
	RequiredParents int
	Location        string
	IsActive        bool
	Recurrence      string // Optional RRULE limiting which season dates apply
}

// SpecialEventConfig overrides normal per-day generation for one date
type SpecialEventConfig struct {
	Date       time.Time
	TemplateID string
	Label      string
	Notes      string
}

// Household is a family unit linking scouts and parents
type Household struct {
	ID       string
	Name     string
	LinkCode string
}

// InviteCode grants household membership to a new account
type InviteCode struct {
	ID          string
	Code        string
	HouseholdID string
	ExpiresAt   time.Time
	Redeemed    bool
}

// Message is a broadcast notification record
type Message struct {
	ID       string
	Title    string
	Body     string
	Audience string
	Priority string
	SentAt   time.Time
}

// Message audience and priority values used for schedule broadcasts
const (
	AudienceAll  = "all"
	PriorityHigh = "high"
)
