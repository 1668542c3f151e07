package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

func saleTemplate(id string, scouts, parents int) *model.ShiftTemplate {
	return &model.ShiftTemplate{
		ID:              id,
		Name:            "Door sales",
		StartTime:       time.Date(2000, 1, 1, 9, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2000, 1, 1, 13, 0, 0, 0, time.UTC),
		RequiredScouts:  scouts,
		RequiredParents: parents,
		Location:        "Market Square",
		IsActive:        true,
	}
}

func TestGenerateSchedule_ThreeDaysOneTemplate(t *testing.T) {
	store := newMockStore()
	store.templates["t1"] = saleTemplate("t1", 4, 2)

	result, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:        "season-1",
		SeasonName:      "Fall 2025",
		StartDate:       time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC),
		DefaultLocation: "Scout Hall",
		TemplateIDs:     []string{"t1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.ShiftsCreated)
	assert.Equal(t, 3, result.DatesWithShifts)
	assert.Equal(t, 0, result.SpecialEventCount)
	assert.Equal(t, 18, result.TotalVolunteerSlots)

	require.Len(t, store.insertedShifts, 3)
	for _, shift := range store.insertedShifts {
		assert.Equal(t, model.ShiftDraft, shift.Status)
		assert.Equal(t, "season-1", shift.SeasonID)
		assert.Equal(t, "t1", shift.TemplateID)
		assert.Equal(t, 0, shift.CurrentScouts)
		assert.Equal(t, 0, shift.CurrentParents)
		assert.Equal(t, "Market Square", shift.Location)
		assert.True(t, shift.EndTime.After(shift.StartTime))
	}

	// First shift carries the template's time-of-day on the first date
	first := store.insertedShifts[0]
	assert.Equal(t, time.Date(2025, 9, 5, 9, 0, 0, 0, time.UTC), first.StartTime)
	assert.Equal(t, time.Date(2025, 9, 5, 13, 0, 0, 0, time.UTC), first.EndTime)

	// The season record is created in draft
	require.Len(t, store.insertedSeasons, 1)
	assert.Equal(t, "Fall 2025", store.insertedSeasons[0].Name)
	assert.Equal(t, model.SeasonDraft, store.insertedSeasons[0].Status)
}

func TestGenerateSchedule_ExcludedDates(t *testing.T) {
	store := newMockStore()
	store.templates["t1"] = saleTemplate("t1", 2, 1)

	result, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:    "season-1",
		StartDate:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		TemplateIDs: []string{"t1"},
		ExcludedDates: []time.Time{
			time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 9, 4, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.ShiftsCreated)
	assert.Equal(t, 3, result.DatesWithShifts)
	for _, shift := range store.insertedShifts {
		assert.NotEqual(t, "2025-09-02", shift.Date.Format("2006-01-02"))
		assert.NotEqual(t, "2025-09-04", shift.Date.Format("2006-01-02"))
	}
}

func TestGenerateSchedule_SpecialEventOverridesDay(t *testing.T) {
	store := newMockStore()
	store.templates["t1"] = saleTemplate("t1", 4, 2)
	special := saleTemplate("t2", 6, 3)
	special.Name = "Big sale"
	store.templates["t2"] = special

	result, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:    "season-1",
		StartDate:   time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC),
		TemplateIDs: []string{"t1", "t2"},
		SpecialEvents: []model.SpecialEventConfig{
			{
				Date:       time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC),
				TemplateID: "t2",
				Label:      "County fair booth",
				Notes:      "Arrive 30 minutes early",
			},
		},
	})
	require.NoError(t, err)

	// Two normal days at two templates each, one special day with one shift
	assert.Equal(t, 5, result.ShiftsCreated)
	assert.Equal(t, 3, result.DatesWithShifts)
	assert.Equal(t, 1, result.SpecialEventCount)

	var specialShift *model.Shift
	for _, shift := range store.insertedShifts {
		if shift.Date.Equal(time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC)) {
			require.Nil(t, specialShift, "special event day should produce exactly one shift")
			specialShift = shift
		}
	}
	require.NotNil(t, specialShift)
	assert.Equal(t, "County fair booth", specialShift.Label)
	assert.Equal(t, "Arrive 30 minutes early", specialShift.Notes)
	assert.Equal(t, "t2", specialShift.TemplateID)
}

func TestGenerateSchedule_SpecialEventTemplateNotActive(t *testing.T) {
	store := newMockStore()
	store.templates["t1"] = saleTemplate("t1", 2, 1)

	result, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:    "season-1",
		StartDate:   time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC),
		TemplateIDs: []string{"t1"},
		SpecialEvents: []model.SpecialEventConfig{
			{Date: time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC), TemplateID: "missing", Label: "Ignored"},
		},
	})
	require.NoError(t, err)

	// Falls back to normal generation for the day
	assert.Equal(t, 1, result.ShiftsCreated)
	assert.Equal(t, 0, result.SpecialEventCount)
	assert.Equal(t, "Door sales", store.insertedShifts[0].Label)
}

func TestGenerateSchedule_DiscardsMissingAndInactiveTemplates(t *testing.T) {
	store := newMockStore()
	store.templates["active"] = saleTemplate("active", 2, 1)
	inactive := saleTemplate("inactive", 2, 1)
	inactive.IsActive = false
	store.templates["inactive"] = inactive

	result, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:    "season-1",
		StartDate:   time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		TemplateIDs: []string{"active", "inactive", "missing"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ShiftsCreated)
}

func TestGenerateSchedule_NoActiveTemplates(t *testing.T) {
	store := newMockStore()

	result, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:    "season-1",
		StartDate:   time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC),
		TemplateIDs: []string{"missing"},
	})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.ErrOperationFailed))
	assert.Empty(t, store.insertedShifts)
}

func TestGenerateSchedule_EndBeforeStart(t *testing.T) {
	store := newMockStore()
	store.templates["t1"] = saleTemplate("t1", 2, 1)

	_, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:    "season-1",
		StartDate:   time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		TemplateIDs: []string{"t1"},
	})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.ErrOperationFailed))
}

func TestGenerateSchedule_RecurrenceRestrictsDates(t *testing.T) {
	store := newMockStore()
	weekendOnly := saleTemplate("t1", 2, 1)
	weekendOnly.Recurrence = "FREQ=WEEKLY;BYDAY=SA,SU"
	store.templates["t1"] = weekendOnly

	// Mon 2025-09-01 through Sun 2025-09-07: only Sat 6th and Sun 7th match
	result, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:    "season-1",
		StartDate:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC),
		TemplateIDs: []string{"t1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ShiftsCreated)
	assert.Equal(t, 2, result.DatesWithShifts)
	for _, shift := range store.insertedShifts {
		day := shift.Date.Weekday()
		assert.True(t, day == time.Saturday || day == time.Sunday)
	}
}

func TestGenerateSchedule_ExistingSeasonNotRecreated(t *testing.T) {
	store := newMockStore()
	store.templates["t1"] = saleTemplate("t1", 2, 1)
	store.seasons["season-1"] = &model.Season{ID: "season-1", Status: model.SeasonDraft}

	_, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:    "season-1",
		StartDate:   time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		TemplateIDs: []string{"t1"},
	})
	require.NoError(t, err)
	assert.Empty(t, store.insertedSeasons)
}

func TestGenerateSchedule_DefaultLocationFallback(t *testing.T) {
	store := newMockStore()
	noLocation := saleTemplate("t1", 2, 1)
	noLocation.Location = ""
	store.templates["t1"] = noLocation

	_, err := GenerateSchedule(context.Background(), store, zap.NewNop(), GenerateScheduleRequest{
		SeasonID:        "season-1",
		StartDate:       time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		DefaultLocation: "Scout Hall",
		TemplateIDs:     []string{"t1"},
	})
	require.NoError(t, err)
	require.Len(t, store.insertedShifts, 1)
	assert.Equal(t, "Scout Hall", store.insertedShifts[0].Location)
}
