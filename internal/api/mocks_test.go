package api

import (
	"context"
	"time"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

// mockStore is an in-memory Store for handler tests
type mockStore struct {
	shifts      map[string]*model.Shift
	users       map[string]*model.User
	credentials map[string]credentials // keyed by email
	invites     map[string]*model.InviteCode
	messages    []model.Message
}

type credentials struct {
	userID       string
	passwordHash string
}

func newMockStore() *mockStore {
	return &mockStore{
		shifts:      make(map[string]*model.Shift),
		users:       make(map[string]*model.User),
		credentials: make(map[string]credentials),
		invites:     make(map[string]*model.InviteCode),
	}
}

func (m *mockStore) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, ok := m.shifts[id]
	if !ok {
		return nil, model.NotFound(model.ErrShiftNotFound, id)
	}
	copied := *shift
	return &copied, nil
}

func (m *mockStore) GetShiftsBySeason(ctx context.Context, seasonID string) ([]model.Shift, error) {
	var shifts []model.Shift
	for _, s := range m.shifts {
		if s.SeasonID == seasonID {
			shifts = append(shifts, *s)
		}
	}
	return shifts, nil
}

func (m *mockStore) GetShiftsInRange(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	for _, s := range m.shifts {
		if !s.Date.Before(from) && s.Date.Before(to) {
			shifts = append(shifts, *s)
		}
	}
	return shifts, nil
}

func (m *mockStore) InsertShift(ctx context.Context, shift *model.Shift) error {
	m.shifts[shift.ID] = shift
	return nil
}

func (m *mockStore) UpdateShift(ctx context.Context, shift *model.Shift) error {
	m.shifts[shift.ID] = shift
	return nil
}

func (m *mockStore) ObserveShifts(ctx context.Context, seasonID string) (<-chan []model.Shift, error) {
	out := make(chan []model.Shift)
	close(out)
	return out, nil
}

func (m *mockStore) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	return nil, model.NotFound(model.ErrAssignmentNotFound, id)
}

func (m *mockStore) GetAssignmentsByShift(ctx context.Context, shiftID string) ([]model.Assignment, error) {
	return nil, nil
}

func (m *mockStore) GetAssignmentsByUser(ctx context.Context, userID string) ([]model.Assignment, error) {
	return nil, nil
}

func (m *mockStore) InsertAssignment(ctx context.Context, assignment *model.Assignment) error {
	return nil
}

func (m *mockStore) UpdateAssignment(ctx context.Context, assignment *model.Assignment) error {
	return nil
}

func (m *mockStore) ObserveAssignments(ctx context.Context, shiftID string) (<-chan []model.Assignment, error) {
	out := make(chan []model.Assignment)
	close(out)
	return out, nil
}

func (m *mockStore) GetAttendanceRecord(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	return nil, model.NotFound(model.ErrAttendanceNotFound, id)
}

func (m *mockStore) GetAttendanceByAssignment(ctx context.Context, assignmentID string) (*model.AttendanceRecord, error) {
	return nil, nil
}

func (m *mockStore) GetAttendanceByShift(ctx context.Context, shiftID string) ([]model.AttendanceRecord, error) {
	return nil, nil
}

func (m *mockStore) GetAttendanceByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	return nil, nil
}

func (m *mockStore) InsertAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error {
	return nil
}

func (m *mockStore) UpdateAttendanceRecord(ctx context.Context, record *model.AttendanceRecord) error {
	return nil
}

func (m *mockStore) ObserveAttendance(ctx context.Context, shiftID string) (<-chan []model.AttendanceRecord, error) {
	out := make(chan []model.AttendanceRecord)
	close(out)
	return out, nil
}

func (m *mockStore) GetSeason(ctx context.Context, id string) (*model.Season, error) {
	return nil, model.NotFound(model.ErrSeasonNotFound, id)
}

func (m *mockStore) GetSeasons(ctx context.Context) ([]model.Season, error) { return nil, nil }

func (m *mockStore) InsertSeason(ctx context.Context, season *model.Season) error { return nil }

func (m *mockStore) UpdateSeason(ctx context.Context, season *model.Season) error { return nil }

func (m *mockStore) GetTemplate(ctx context.Context, id string) (*model.ShiftTemplate, error) {
	return nil, model.NotFound(model.ErrTemplateNotFound, id)
}

func (m *mockStore) GetTemplates(ctx context.Context) ([]model.ShiftTemplate, error) {
	return nil, nil
}

func (m *mockStore) InsertTemplate(ctx context.Context, template *model.ShiftTemplate) error {
	return nil
}

func (m *mockStore) UpdateTemplate(ctx context.Context, template *model.ShiftTemplate) error {
	return nil
}

func (m *mockStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, model.NotFound(model.ErrUserNotFound, id)
	}
	copied := *user
	return &copied, nil
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, model.NotFound(model.ErrUserNotFound, email)
}

func (m *mockStore) GetUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockStore) GetUserCredentials(ctx context.Context, email string) (string, string, error) {
	creds, ok := m.credentials[email]
	if !ok {
		return "", "", model.NotFound(model.ErrUserNotFound, email)
	}
	return creds.userID, creds.passwordHash, nil
}

func (m *mockStore) GetHousehold(ctx context.Context, id string) (*model.Household, error) {
	return nil, model.NotFound(model.ErrHouseholdNotFound, id)
}

func (m *mockStore) UpdateHousehold(ctx context.Context, household *model.Household) error {
	return nil
}

func (m *mockStore) GetInviteCode(ctx context.Context, code string) (*model.InviteCode, error) {
	invite, ok := m.invites[code]
	if !ok {
		return nil, model.NotFound(model.ErrInviteCodeNotFound, code)
	}
	copied := *invite
	return &copied, nil
}

func (m *mockStore) InsertInviteCode(ctx context.Context, invite *model.InviteCode) error {
	m.invites[invite.Code] = invite
	return nil
}

func (m *mockStore) UpdateInviteCode(ctx context.Context, invite *model.InviteCode) error {
	m.invites[invite.Code] = invite
	return nil
}

func (m *mockStore) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	return nil, model.NotFound(model.ErrMessageNotFound, id)
}

func (m *mockStore) GetMessages(ctx context.Context) ([]model.Message, error) {
	return m.messages, nil
}

func (m *mockStore) InsertMessage(ctx context.Context, message *model.Message) error {
	m.messages = append(m.messages, *message)
	return nil
}

type mockSignupService struct {
	assignmentID string
	err          error
}

func (m *mockSignupService) SignUp(ctx context.Context, shiftID, userID string, assignmentType model.AssignmentType, notes string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.assignmentID, nil
}

func (m *mockSignupService) CancelAssignment(ctx context.Context, assignmentID, reason string) error {
	return m.err
}

type mockAttendanceService struct{}

func (m *mockAttendanceService) CheckIn(ctx context.Context, assignmentID, shiftID, qrCodeData, location string) (string, time.Time, error) {
	return "record-1", time.Now().UTC(), nil
}

func (m *mockAttendanceService) CheckOut(ctx context.Context, assignmentID, notes string) (time.Time, float64, error) {
	return time.Now().UTC(), 0, nil
}

type mockFamilyService struct {
	linkedScout     string
	linkedHousehold string
}

func (m *mockFamilyService) LinkScoutToHousehold(ctx context.Context, scoutID, householdID string) error {
	m.linkedScout = scoutID
	m.linkedHousehold = householdID
	return nil
}

func (m *mockFamilyService) RegenerateHouseholdLinkCode(ctx context.Context, householdID string) (string, error) {
	return "NEWCODE1", nil
}

type mockMessenger struct {
	sent int
}

func (m *mockMessenger) SendMessage(ctx context.Context, title, body, targetAudience, priority string) error {
	m.sent++
	return nil
}
