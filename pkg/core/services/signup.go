package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
	"github.com/trooptools/shiftwise/pkg/db"
)

// SignUpRequest is a volunteer's self-service claim on a published shift
type SignUpRequest struct {
	ShiftID string
	UserID  string
	Type    model.AssignmentType
	Notes   string
}

// SignUpResult reports the assignment created by the signup service
type SignUpResult struct {
	AssignmentID string
}

// SignUpStore defines the database reads needed to validate a signup
type SignUpStore interface {
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetAssignmentsByShift(ctx context.Context, shiftID string) ([]model.Assignment, error)
}

// SignUp validates eligibility and capacity against a snapshot read, then
// delegates the atomic assignment-plus-counter mutation to the signup
// service. The shift-in-the-past check is at day granularity: signups stay
// open for the whole of the shift's calendar day.
func SignUp(ctx context.Context, store SignUpStore, signup db.SignupService, logger *zap.Logger, req SignUpRequest) (*SignUpResult, error) {
	if !req.Type.IsValid() {
		return nil, model.OperationFailed("invalid assignment type %q", req.Type)
	}

	shift, err := store.GetShift(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}

	if shift.Status != model.ShiftPublished {
		return nil, model.OperationFailed("shift %s is not published", shift.ID)
	}
	if startOfDay(shift.Date).Before(startOfDay(time.Now().UTC())) {
		return nil, model.OperationFailed("shift %s is in the past", shift.ID)
	}

	user, err := store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, model.OperationFailed("user %s is not active", user.ID)
	}

	assignments, err := store.GetAssignmentsByShift(ctx, req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift assignments: %w", err)
	}
	for _, a := range assignments {
		if a.UserID == req.UserID && a.IsActive() {
			return nil, model.OperationFailed("user %s already has an assignment on shift %s", req.UserID, req.ShiftID)
		}
	}

	if shift.IsFull(req.Type) {
		return nil, model.OperationFailed("shift %s has no remaining %s slots", shift.ID, req.Type)
	}

	logger.Info("Signing up volunteer",
		zap.String("shift_id", req.ShiftID),
		zap.String("user_id", req.UserID),
		zap.String("type", string(req.Type)))

	assignmentID, err := signup.SignUp(ctx, req.ShiftID, req.UserID, req.Type, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}

	logger.Info("Signup complete", zap.String("assignment_id", assignmentID))

	return &SignUpResult{AssignmentID: assignmentID}, nil
}

// CancelSignupRequest cancels an active assignment before its shift starts
type CancelSignupRequest struct {
	AssignmentID string
	Reason       string
}

// CancelSignupStore defines the database reads needed to validate a
// cancellation
type CancelSignupStore interface {
	GetAssignment(ctx context.Context, id string) (*model.Assignment, error)
	GetShift(ctx context.Context, id string) (*model.Shift, error)
}

// CancelSignup validates that the assignment is still active and its shift
// has not started, then delegates the atomic cancel-plus-decrement to the
// signup service. Unlike SignUp, the started check compares the full start
// timestamp.
func CancelSignup(ctx context.Context, store CancelSignupStore, signup db.SignupService, logger *zap.Logger, req CancelSignupRequest) error {
	assignment, err := store.GetAssignment(ctx, req.AssignmentID)
	if err != nil {
		return err
	}
	if !assignment.IsActive() {
		return model.OperationFailed("assignment %s is already cancelled", assignment.ID)
	}

	shift, err := store.GetShift(ctx, assignment.ShiftID)
	if err != nil {
		return err
	}
	if !time.Now().UTC().Before(shift.StartTime) {
		return model.OperationFailed("shift %s has already started", shift.ID)
	}

	logger.Info("Cancelling assignment",
		zap.String("assignment_id", req.AssignmentID),
		zap.String("shift_id", shift.ID))

	if err := signup.CancelAssignment(ctx, req.AssignmentID, req.Reason); err != nil {
		return fmt.Errorf("failed to cancel assignment: %w", err)
	}

	return nil
}
