package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

func confirmedAssignment(id, shiftID, userID string) model.Assignment {
	return model.Assignment{
		ID:      id,
		ShiftID: shiftID,
		UserID:  userID,
		Type:    model.AssignmentScout,
		Status:  model.AssignmentConfirmed,
	}
}

func committeeMember(id string) *model.User {
	return &model.User{ID: id, FirstName: "Dana", LastName: "Reyes", Role: model.RoleCommittee, Active: true}
}

func TestCheckIn_Success(t *testing.T) {
	store := newMockStore()
	store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "u1"))
	attendance := &mockAttendanceService{}

	result, err := CheckIn(context.Background(), store, attendance, zap.NewNop(), CheckInRequest{
		AssignmentID: "a1",
		QRCodeData:   "qr-payload",
		Location:     "Market Square",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AttendanceRecordID)
	assert.False(t, result.CheckInTime.IsZero())
	assert.Equal(t, 1, attendance.checkInCalls)
}

func TestCheckIn_Rejections(t *testing.T) {
	t.Run("assignment not found", func(t *testing.T) {
		store := newMockStore()
		_, err := CheckIn(context.Background(), store, &mockAttendanceService{}, zap.NewNop(), CheckInRequest{AssignmentID: "missing"})
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrAssignmentNotFound))
	})

	t.Run("cancelled assignment", func(t *testing.T) {
		store := newMockStore()
		a := confirmedAssignment("a1", "s1", "u1")
		a.Status = model.AssignmentCancelled
		store.assignments = append(store.assignments, a)

		_, err := CheckIn(context.Background(), store, &mockAttendanceService{}, zap.NewNop(), CheckInRequest{AssignmentID: "a1"})
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrOperationFailed))
	})

	t.Run("already checked in", func(t *testing.T) {
		store := newMockStore()
		store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "u1"))
		store.attendance = append(store.attendance, model.AttendanceRecord{
			ID: "r1", AssignmentID: "a1", Status: model.AttendanceCheckedIn,
		})
		attendance := &mockAttendanceService{}

		_, err := CheckIn(context.Background(), store, attendance, zap.NewNop(), CheckInRequest{AssignmentID: "a1"})
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrOperationFailed))
		assert.Zero(t, attendance.checkInCalls)
	})

	t.Run("already checked out", func(t *testing.T) {
		store := newMockStore()
		store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "u1"))
		store.attendance = append(store.attendance, model.AttendanceRecord{
			ID: "r1", AssignmentID: "a1", Status: model.AttendanceCheckedOut,
		})

		_, err := CheckIn(context.Background(), store, &mockAttendanceService{}, zap.NewNop(), CheckInRequest{AssignmentID: "a1"})
		require.Error(t, err)
	})
}

func TestCheckIn_ReclaimsNonTerminalRecord(t *testing.T) {
	// A record left in pending or noShow state (e.g. a mistaken no-show
	// marking) must not block the volunteer from checking in
	for _, status := range []model.AttendanceStatus{model.AttendancePending, model.AttendanceNoShow} {
		t.Run(string(status), func(t *testing.T) {
			store := newMockStore()
			store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "u1"))
			store.attendance = append(store.attendance, model.AttendanceRecord{
				ID: "r1", AssignmentID: "a1", Status: status,
			})
			attendance := &mockAttendanceService{}

			result, err := CheckIn(context.Background(), store, attendance, zap.NewNop(), CheckInRequest{AssignmentID: "a1"})
			require.NoError(t, err)
			assert.NotEmpty(t, result.AttendanceRecordID)
			assert.Equal(t, 1, attendance.checkInCalls)
		})
	}
}

func TestCheckIn_PendingAssignmentAllowed(t *testing.T) {
	store := newMockStore()
	a := confirmedAssignment("a1", "s1", "u1")
	a.Status = model.AssignmentPending
	store.assignments = append(store.assignments, a)

	_, err := CheckIn(context.Background(), store, &mockAttendanceService{}, zap.NewNop(), CheckInRequest{AssignmentID: "a1"})
	require.NoError(t, err)
}

func TestCheckOut_Success(t *testing.T) {
	store := newMockStore()
	checkIn := time.Date(2025, 10, 4, 9, 0, 0, 0, time.UTC)
	store.attendance = append(store.attendance, model.AttendanceRecord{
		ID: "r1", AssignmentID: "a1", Status: model.AttendanceCheckedIn, CheckInTime: &checkIn,
	})
	attendance := &mockAttendanceService{
		checkOutTime: time.Date(2025, 10, 4, 13, 30, 0, 0, time.UTC),
		hoursWorked:  4.5,
	}

	result, err := CheckOut(context.Background(), store, attendance, zap.NewNop(), CheckOutRequest{
		AssignmentID: "a1",
		Notes:        "left on time",
	})
	require.NoError(t, err)
	assert.Equal(t, 4.5, result.HoursWorked)
	assert.Equal(t, attendance.checkOutTime, result.CheckOutTime)
}

func TestCheckOut_Rejections(t *testing.T) {
	t.Run("no record", func(t *testing.T) {
		store := newMockStore()
		_, err := CheckOut(context.Background(), store, &mockAttendanceService{}, zap.NewNop(), CheckOutRequest{AssignmentID: "a1"})
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrAttendanceNotFound))
	})

	t.Run("already checked out", func(t *testing.T) {
		store := newMockStore()
		store.attendance = append(store.attendance, model.AttendanceRecord{
			ID: "r1", AssignmentID: "a1", Status: model.AttendanceCheckedOut,
		})
		attendance := &mockAttendanceService{}

		_, err := CheckOut(context.Background(), store, attendance, zap.NewNop(), CheckOutRequest{AssignmentID: "a1"})
		require.Error(t, err)
		assert.Zero(t, attendance.checkOutCalls)
	})
}

func TestMarkNoShow_RequiresLeadership(t *testing.T) {
	store := newMockStore()
	store.users["scout"] = activeScout("scout")
	store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "u1"))

	_, err := MarkNoShow(context.Background(), store, zap.NewNop(), MarkNoShowRequest{
		AssignmentID: "a1",
		RequestedBy:  "scout",
	})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.ErrUnauthorized))
}

func TestMarkNoShow_CreatesRecordWhenNoneExists(t *testing.T) {
	store := newMockStore()
	store.users["c1"] = committeeMember("c1")
	store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "u1"))

	result, err := MarkNoShow(context.Background(), store, zap.NewNop(), MarkNoShowRequest{
		AssignmentID: "a1",
		RequestedBy:  "c1",
		Notes:        "no call, no show",
	})
	require.NoError(t, err)

	require.Len(t, store.insertedRecords, 1)
	record := store.insertedRecords[0]
	assert.Equal(t, result.AttendanceRecordID, record.ID)
	assert.Equal(t, model.AttendanceNoShow, record.Status)
	assert.Equal(t, model.CheckInAdminOverride, record.CheckInMethod)
	assert.Nil(t, record.CheckInTime)
	assert.Nil(t, record.CheckOutTime)
	assert.Contains(t, record.Notes, "Marked as no-show by Dana Reyes")
	assert.Contains(t, record.Notes, "no call, no show")
}

func TestMarkNoShow_UpdatesExistingRecordInPlace(t *testing.T) {
	store := newMockStore()
	store.users["c1"] = committeeMember("c1")
	store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "u1"))
	checkIn := time.Date(2025, 10, 4, 9, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 10, 4, 13, 0, 0, 0, time.UTC)
	hours := 4.0
	store.attendance = append(store.attendance, model.AttendanceRecord{
		ID:           "r1",
		AssignmentID: "a1",
		Status:       model.AttendanceCheckedOut,
		CheckInTime:  &checkIn,
		CheckOutTime: &checkOut,
		HoursWorked:  &hours,
		Notes:        "checked in at booth",
	})

	result, err := MarkNoShow(context.Background(), store, zap.NewNop(), MarkNoShowRequest{
		AssignmentID: "a1",
		RequestedBy:  "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", result.AttendanceRecordID)

	// Updated in place, never a second record
	assert.Empty(t, store.insertedRecords)
	require.Len(t, store.updatedRecords, 1)
	record := store.updatedRecords[0]
	assert.Equal(t, model.AttendanceNoShow, record.Status)
	assert.Nil(t, record.CheckOutTime)
	assert.Nil(t, record.HoursWorked)
	// Prior note text survives, audit line appended
	assert.True(t, strings.HasPrefix(record.Notes, "checked in at booth"))
	assert.Contains(t, record.Notes, "Marked as no-show by Dana Reyes")
}

func TestMarkNoShow_NeverProducesTwoRecords(t *testing.T) {
	store := newMockStore()
	store.users["c1"] = committeeMember("c1")
	store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "u1"))

	_, err := MarkNoShow(context.Background(), store, zap.NewNop(), MarkNoShowRequest{AssignmentID: "a1", RequestedBy: "c1"})
	require.NoError(t, err)
	_, err = MarkNoShow(context.Background(), store, zap.NewNop(), MarkNoShowRequest{AssignmentID: "a1", RequestedBy: "c1"})
	require.NoError(t, err)

	assert.Len(t, store.attendance, 1)
}

func TestUpdateAttendance_ComputedHours(t *testing.T) {
	store := newMockStore()
	store.users["c1"] = committeeMember("c1")
	checkIn := time.Date(2025, 10, 4, 9, 0, 0, 0, time.UTC)
	store.attendance = append(store.attendance, model.AttendanceRecord{
		ID:           "r1",
		AssignmentID: "a1",
		Status:       model.AttendanceCheckedIn,
		CheckInTime:  &checkIn,
		Notes:        "scanned at door",
	})

	checkOut := time.Date(2025, 10, 4, 13, 30, 0, 0, time.UTC)
	status := model.AttendanceCheckedOut
	record, err := UpdateAttendance(context.Background(), store, zap.NewNop(), UpdateAttendanceRequest{
		RecordID:       "r1",
		RequestedBy:    "c1",
		CheckOutTime:   &checkOut,
		Status:         &status,
		OverrideReason: "volunteer forgot to check out",
	})
	require.NoError(t, err)

	// 09:00 to 13:30 with no explicit value computes 4.5 hours
	require.NotNil(t, record.HoursWorked)
	assert.Equal(t, 4.5, *record.HoursWorked)
	assert.Equal(t, model.CheckInAdminOverride, record.CheckInMethod)
	assert.True(t, strings.HasPrefix(record.Notes, "scanned at door"))
	assert.Contains(t, record.Notes, "Admin override by Dana Reyes: volunteer forgot to check out")
}

func TestUpdateAttendance_ExplicitHoursWin(t *testing.T) {
	store := newMockStore()
	store.users["c1"] = committeeMember("c1")
	checkIn := time.Date(2025, 10, 4, 9, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 10, 4, 13, 30, 0, 0, time.UTC)
	store.attendance = append(store.attendance, model.AttendanceRecord{
		ID:           "r1",
		AssignmentID: "a1",
		Status:       model.AttendanceCheckedOut,
		CheckInTime:  &checkIn,
		CheckOutTime: &checkOut,
	})

	explicit := 3.0
	record, err := UpdateAttendance(context.Background(), store, zap.NewNop(), UpdateAttendanceRequest{
		RecordID:       "r1",
		RequestedBy:    "c1",
		HoursWorked:    &explicit,
		OverrideReason: "took a long break",
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, *record.HoursWorked)
}

func TestUpdateAttendance_CorrectionNotesAppended(t *testing.T) {
	store := newMockStore()
	store.users["c1"] = committeeMember("c1")
	store.attendance = append(store.attendance, model.AttendanceRecord{
		ID: "r1", AssignmentID: "a1", Status: model.AttendanceNoShow, Notes: "first line",
	})

	record, err := UpdateAttendance(context.Background(), store, zap.NewNop(), UpdateAttendanceRequest{
		RecordID:        "r1",
		RequestedBy:     "c1",
		OverrideReason:  "was actually present",
		CorrectionNotes: "confirmed by booth lead",
	})
	require.NoError(t, err)
	lines := strings.Split(record.Notes, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "first line", lines[0])
	assert.Contains(t, lines[1], "Admin override by Dana Reyes")
	assert.Equal(t, "confirmed by booth lead", lines[2])
}

func TestUpdateAttendance_Rejections(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		store := newMockStore()
		store.users["scout"] = activeScout("scout")
		_, err := UpdateAttendance(context.Background(), store, zap.NewNop(), UpdateAttendanceRequest{
			RecordID: "r1", RequestedBy: "scout",
		})
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrUnauthorized))
	})

	t.Run("record not found", func(t *testing.T) {
		store := newMockStore()
		store.users["c1"] = committeeMember("c1")
		_, err := UpdateAttendance(context.Background(), store, zap.NewNop(), UpdateAttendanceRequest{
			RecordID: "missing", RequestedBy: "c1",
		})
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.ErrAttendanceNotFound))
	})
}

// startedShift returns a published shift that began an hour ago
func startedShift(id string) *model.Shift {
	now := time.Now().UTC()
	return &model.Shift{
		ID:              id,
		Date:            startOfDay(now),
		StartTime:       now.Add(-time.Hour),
		EndTime:         now.Add(3 * time.Hour),
		RequiredScouts:  4,
		RequiredParents: 2,
		Location:        "Market Square",
		Status:          model.ShiftPublished,
	}
}

func TestAddWalkIn_Success(t *testing.T) {
	store := newMockStore()
	store.shifts["s1"] = startedShift("s1")
	store.users["c1"] = committeeMember("c1")
	store.users["u1"] = activeScout("u1")

	result, err := AddWalkIn(context.Background(), store, zap.NewNop(), AddWalkInRequest{
		ShiftID:     "s1",
		UserID:      "u1",
		RequestedBy: "c1",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.NotEmpty(t, result.AssignmentID)
	assert.NotEmpty(t, result.AttendanceRecordID)
	assert.True(t, result.AutoCheckedIn)

	require.Len(t, store.insertedAssigns, 1)
	assignment := store.insertedAssigns[0]
	assert.Equal(t, model.AssignmentConfirmed, assignment.Status)
	assert.Equal(t, "c1", assignment.AssignedBy)
	assert.Equal(t, model.AssignmentScout, assignment.Type)

	require.Len(t, store.insertedRecords, 1)
	record := store.insertedRecords[0]
	assert.Equal(t, model.AttendanceCheckedIn, record.Status)
	assert.Equal(t, model.CheckInManual, record.CheckInMethod)
	require.NotNil(t, record.CheckInTime)
}

func TestAddWalkIn_ParentGetsParentSlot(t *testing.T) {
	store := newMockStore()
	store.shifts["s1"] = startedShift("s1")
	store.users["c1"] = committeeMember("c1")
	parent := activeScout("p1")
	parent.Role = model.RoleParent
	store.users["p1"] = parent

	result, err := AddWalkIn(context.Background(), store, zap.NewNop(), AddWalkInRequest{
		ShiftID: "s1", UserID: "p1", RequestedBy: "c1",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, model.AssignmentParent, store.insertedAssigns[0].Type)
}

func TestAddWalkIn_ShiftNotStarted(t *testing.T) {
	store := newMockStore()
	future := startedShift("s1")
	future.StartTime = time.Now().UTC().Add(2 * time.Hour)
	future.EndTime = time.Now().UTC().Add(6 * time.Hour)
	store.shifts["s1"] = future
	store.users["c1"] = committeeMember("c1")
	store.users["u1"] = activeScout("u1")

	result, err := AddWalkIn(context.Background(), store, zap.NewNop(), AddWalkInRequest{
		ShiftID: "s1", UserID: "u1", RequestedBy: "c1",
	})
	// Expected outcome, not an error
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Contains(t, result.Message, "haven't started")
	assert.Empty(t, store.insertedAssigns)
	assert.Empty(t, store.insertedRecords)
}

func TestAddWalkIn_AlreadyAssigned(t *testing.T) {
	store := newMockStore()
	store.shifts["s1"] = startedShift("s1")
	store.users["c1"] = committeeMember("c1")
	store.users["u1"] = activeScout("u1")
	store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "u1"))

	result, err := AddWalkIn(context.Background(), store, zap.NewNop(), AddWalkInRequest{
		ShiftID: "s1", UserID: "u1", RequestedBy: "c1",
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Contains(t, result.Message, "already has an assignment")
	assert.Empty(t, store.insertedAssigns)
	assert.Empty(t, store.insertedRecords)
}

func TestAddWalkIn_CheckedInVolunteerMayAdd(t *testing.T) {
	store := newMockStore()
	store.shifts["s1"] = startedShift("s1")
	requester := activeScout("v1")
	store.users["v1"] = requester
	store.users["u1"] = activeScout("u1")
	store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "v1"))
	store.attendance = append(store.attendance, model.AttendanceRecord{
		ID: "r1", AssignmentID: "a1", ShiftID: "s1", UserID: "v1", Status: model.AttendanceCheckedIn,
	})

	result, err := AddWalkIn(context.Background(), store, zap.NewNop(), AddWalkInRequest{
		ShiftID: "s1", UserID: "u1", RequestedBy: "v1",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestAddWalkIn_UncheckedVolunteerUnauthorized(t *testing.T) {
	store := newMockStore()
	store.shifts["s1"] = startedShift("s1")
	store.users["v1"] = activeScout("v1")
	store.users["u1"] = activeScout("u1")
	// Requester holds an assignment but never checked in
	store.assignments = append(store.assignments, confirmedAssignment("a1", "s1", "v1"))

	_, err := AddWalkIn(context.Background(), store, zap.NewNop(), AddWalkInRequest{
		ShiftID: "s1", UserID: "u1", RequestedBy: "v1",
	})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.ErrUnauthorized))
}
