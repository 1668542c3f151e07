package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
	"github.com/trooptools/shiftwise/pkg/db"
)

// CreateShiftRequest creates a single shift outside of bulk generation
type CreateShiftRequest struct {
	Date               time.Time
	StartTime          time.Time
	EndTime            time.Time
	RequiredScouts     int
	RequiredParents    int
	Location           string
	Label              string
	Notes              string
	PublishImmediately bool
	NotifyOnPublish    bool
}

// CreateShiftResult reports the created shift and whether a publish
// notification went out
type CreateShiftResult struct {
	Shift            *model.Shift
	NotificationSent bool
}

// CreateShiftStore defines the database operations needed to create a shift
type CreateShiftStore interface {
	InsertShift(ctx context.Context, shift *model.Shift) error
}

// CreateShift validates and persists a single shift. It is born draft unless
// PublishImmediately is set. A notification failure is swallowed here and
// reported only through NotificationSent; shift creation never fails because
// a broadcast could not be sent.
func CreateShift(ctx context.Context, store CreateShiftStore, messenger db.MessagingService, logger *zap.Logger, req CreateShiftRequest) (*CreateShiftResult, error) {
	location := strings.TrimSpace(req.Location)
	if err := validateShiftFields(req.RequiredScouts, req.RequiredParents, req.StartTime, req.EndTime, location); err != nil {
		return nil, err
	}

	status := model.ShiftDraft
	if req.PublishImmediately {
		status = model.ShiftPublished
	}

	shift := &model.Shift{
		ID:              uuid.New().String(),
		Date:            startOfDay(req.Date),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		RequiredScouts:  req.RequiredScouts,
		RequiredParents: req.RequiredParents,
		Location:        location,
		Label:           strings.TrimSpace(req.Label),
		Notes:           strings.TrimSpace(req.Notes),
		Status:          status,
		CreatedAt:       time.Now().UTC(),
	}

	logger.Info("Creating shift",
		zap.String("shift_id", shift.ID),
		zap.String("date", dateKey(shift.Date)),
		zap.String("status", string(shift.Status)))

	if err := store.InsertShift(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to insert shift: %w", err)
	}

	result := &CreateShiftResult{Shift: shift}

	if req.PublishImmediately && req.NotifyOnPublish {
		err := messenger.SendMessage(ctx, defaultPublishTitle, defaultPublishBody, model.AudienceAll, model.PriorityHigh)
		if err != nil {
			// Best effort: the shift is already saved, record the miss and move on
			logger.Warn("Failed to send shift notification", zap.Error(err))
		} else {
			result.NotificationSent = true
		}
	}

	return result, nil
}

// UpdateShiftRequest applies a partial update to a draft shift. Nil fields
// keep their previous values.
type UpdateShiftRequest struct {
	ShiftID         string
	Date            *time.Time
	StartTime       *time.Time
	EndTime         *time.Time
	RequiredScouts  *int
	RequiredParents *int
	Location        *string
	Label           *string
	Notes           *string
}

// UpdateShiftStore defines the database operations needed to update a shift
type UpdateShiftStore interface {
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	UpdateShift(ctx context.Context, shift *model.Shift) error
}

// UpdateShift merges the supplied fields into an existing draft shift and
// re-validates the result. Volunteer counts are always preserved from the
// stored record. A lone new start or end time is checked against the other,
// unmodified boundary.
func UpdateShift(ctx context.Context, store UpdateShiftStore, logger *zap.Logger, req UpdateShiftRequest) (*model.Shift, error) {
	shift, err := store.GetShift(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}

	if shift.Status != model.ShiftDraft {
		return nil, model.OperationFailed("shift %s is %s; only draft shifts can be edited", shift.ID, shift.Status)
	}

	if req.Date != nil {
		shift.Date = startOfDay(*req.Date)
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if req.RequiredScouts != nil {
		shift.RequiredScouts = *req.RequiredScouts
	}
	if req.RequiredParents != nil {
		shift.RequiredParents = *req.RequiredParents
	}
	if req.Location != nil {
		shift.Location = strings.TrimSpace(*req.Location)
	}
	if req.Label != nil {
		shift.Label = strings.TrimSpace(*req.Label)
	}
	if req.Notes != nil {
		shift.Notes = strings.TrimSpace(*req.Notes)
	}

	if err := validateShiftFields(shift.RequiredScouts, shift.RequiredParents, shift.StartTime, shift.EndTime, shift.Location); err != nil {
		return nil, err
	}

	logger.Info("Updating shift", zap.String("shift_id", shift.ID))

	if err := store.UpdateShift(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to update shift: %w", err)
	}

	return shift, nil
}

// validateShiftFields enforces the shift creation invariants
func validateShiftFields(requiredScouts, requiredParents int, startTime, endTime time.Time, location string) error {
	if requiredScouts < 0 {
		return model.OperationFailed("required scouts must not be negative")
	}
	if requiredParents < 0 {
		return model.OperationFailed("required parents must not be negative")
	}
	if !endTime.After(startTime) {
		return model.OperationFailed("end time must be after start time")
	}
	if location == "" {
		return model.OperationFailed("location must not be empty")
	}
	return nil
}
