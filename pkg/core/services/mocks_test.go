package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

// mockStore is an in-memory test double satisfying the consumer-side store
// interfaces declared by the services
type mockStore struct {
	shifts      map[string]*model.Shift
	users       map[string]*model.User
	templates   map[string]*model.ShiftTemplate
	seasons     map[string]*model.Season
	assignments []model.Assignment
	attendance  []model.AttendanceRecord

	insertedShifts  []*model.Shift
	insertedSeasons []*model.Season
	insertedAssigns []*model.Assignment
	insertedRecords []*model.AttendanceRecord
	updatedShifts   []*model.Shift
	updatedSeasons  []*model.Season
	updatedRecords  []*model.AttendanceRecord

	getShiftErr    error
	insertShiftErr error
	updateShiftErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		shifts:    make(map[string]*model.Shift),
		users:     make(map[string]*model.User),
		templates: make(map[string]*model.ShiftTemplate),
		seasons:   make(map[string]*model.Season),
	}
}

func (m *mockStore) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	if m.getShiftErr != nil {
		return nil, m.getShiftErr
	}
	if s, ok := m.shifts[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, model.NotFound(model.ErrShiftNotFound, id)
}

func (m *mockStore) GetShiftsBySeason(ctx context.Context, seasonID string) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range m.shifts {
		if s.SeasonID == seasonID {
			out = append(out, *s)
		}
	}
	for _, s := range m.insertedShifts {
		if s.SeasonID == seasonID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStore) GetShiftsInRange(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range m.shifts {
		if !s.Date.Before(from) && s.Date.Before(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStore) InsertShift(ctx context.Context, shift *model.Shift) error {
	if m.insertShiftErr != nil {
		return m.insertShiftErr
	}
	m.insertedShifts = append(m.insertedShifts, shift)
	return nil
}

func (m *mockStore) UpdateShift(ctx context.Context, shift *model.Shift) error {
	if m.updateShiftErr != nil {
		return m.updateShiftErr
	}
	copied := *shift
	m.shifts[shift.ID] = &copied
	m.updatedShifts = append(m.updatedShifts, shift)
	return nil
}

func (m *mockStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, model.NotFound(model.ErrUserNotFound, id)
}

func (m *mockStore) GetTemplate(ctx context.Context, id string) (*model.ShiftTemplate, error) {
	if t, ok := m.templates[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, model.NotFound(model.ErrTemplateNotFound, id)
}

func (m *mockStore) GetSeason(ctx context.Context, id string) (*model.Season, error) {
	if s, ok := m.seasons[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, model.NotFound(model.ErrSeasonNotFound, id)
}

func (m *mockStore) InsertSeason(ctx context.Context, season *model.Season) error {
	copied := *season
	m.seasons[season.ID] = &copied
	m.insertedSeasons = append(m.insertedSeasons, season)
	return nil
}

func (m *mockStore) UpdateSeason(ctx context.Context, season *model.Season) error {
	copied := *season
	m.seasons[season.ID] = &copied
	m.updatedSeasons = append(m.updatedSeasons, season)
	return nil
}

func (m *mockStore) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	for _, a := range m.assignments {
		if a.ID == id {
			copied := a
			return &copied, nil
		}
	}
	return nil, model.NotFound(model.ErrAssignmentNotFound, id)
}

func (m *mockStore) GetAssignmentsByShift(ctx context.Context, shiftID string) ([]model.Assignment, error) {
	var out []model.Assignment
	for _, a := range m.assignments {
		if a.ShiftID == shiftID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) GetAssignmentsByUser(ctx context.Context, userID string) ([]model.Assignment, error) {
	var out []model.Assignment
	for _, a := range m.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) InsertAssignment(ctx context.Context, assignment *model.Assignment) error {
	m.assignments = append(m.assignments, *assignment)
	m.insertedAssigns = append(m.insertedAssigns, assignment)
	return nil
}

func (m *mockStore) GetAttendanceRecord(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	for _, r := range m.attendance {
		if r.ID == id {
			copied := r
			return &copied, nil
		}
	}
	return nil, model.NotFound(model.ErrAttendanceNotFound, id)
}

func (m *mockStore) GetAttendanceByAssignment(ctx context.Context, assignmentID string) (*model.AttendanceRecord, error) {
	for _, r := range m.attendance {
		if r.AssignmentID == assignmentID {
			copied := r
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetAttendanceByShift(ctx context.Context, shiftID string) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, r := range m.attendance {
		if r.ShiftID == shiftID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) GetAttendanceByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, r := range m.attendance {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) InsertAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error {
	m.attendance = append(m.attendance, *record)
	m.insertedRecords = append(m.insertedRecords, record)
	return nil
}

func (m *mockStore) UpdateAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error {
	for i := range m.attendance {
		if m.attendance[i].ID == record.ID {
			m.attendance[i] = *record
		}
	}
	m.updatedRecords = append(m.updatedRecords, record)
	return nil
}

// mockSignupService records delegated signup mutations
type mockSignupService struct {
	signUpCalls  int
	cancelCalls  int
	lastShiftID  string
	lastUserID   string
	lastType     model.AssignmentType
	lastReason   string
	signUpErr    error
	cancelErr    error
	assignmentID string
}

func (m *mockSignupService) SignUp(ctx context.Context, shiftID, userID string, assignmentType model.AssignmentType, notes string) (string, error) {
	if m.signUpErr != nil {
		return "", m.signUpErr
	}
	m.signUpCalls++
	m.lastShiftID = shiftID
	m.lastUserID = userID
	m.lastType = assignmentType
	if m.assignmentID == "" {
		m.assignmentID = uuid.New().String()
	}
	return m.assignmentID, nil
}

func (m *mockSignupService) CancelAssignment(ctx context.Context, assignmentID, reason string) error {
	if m.cancelErr != nil {
		return m.cancelErr
	}
	m.cancelCalls++
	m.lastReason = reason
	return nil
}

// mockAttendanceService records delegated attendance mutations
type mockAttendanceService struct {
	checkInCalls  int
	checkOutCalls int
	checkInTime   time.Time
	checkOutTime  time.Time
	hoursWorked   float64
	checkInErr    error
	checkOutErr   error
}

func (m *mockAttendanceService) CheckIn(ctx context.Context, assignmentID, shiftID, qrCodeData, location string) (string, time.Time, error) {
	if m.checkInErr != nil {
		return "", time.Time{}, m.checkInErr
	}
	m.checkInCalls++
	if m.checkInTime.IsZero() {
		m.checkInTime = time.Now().UTC()
	}
	return uuid.New().String(), m.checkInTime, nil
}

func (m *mockAttendanceService) CheckOut(ctx context.Context, assignmentID, notes string) (time.Time, float64, error) {
	if m.checkOutErr != nil {
		return time.Time{}, 0, m.checkOutErr
	}
	m.checkOutCalls++
	if m.checkOutTime.IsZero() {
		m.checkOutTime = time.Now().UTC()
	}
	return m.checkOutTime, m.hoursWorked, nil
}

// mockMessenger records broadcast sends
type mockMessenger struct {
	sendCalls int
	lastTitle string
	lastBody  string
	sendErr   error
}

func (m *mockMessenger) SendMessage(ctx context.Context, title, body, targetAudience, priority string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sendCalls++
	m.lastTitle = title
	m.lastBody = body
	return nil
}
