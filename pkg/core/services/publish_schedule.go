package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
	"github.com/trooptools/shiftwise/pkg/db"
)

// Default broadcast copy used when the caller supplies no custom text
const (
	defaultPublishTitle = "New shifts available!"
	defaultPublishBody  = "The shift schedule has been published. Sign up for your shifts now."
)

// PublishScheduleRequest transitions a season's draft shifts to published
type PublishScheduleRequest struct {
	SeasonID         string
	SendNotification bool
	Title            string
	Body             string
}

// PublishScheduleResult summarizes a publish run
type PublishScheduleResult struct {
	ShiftsPublished  int
	NotificationSent bool
}

// PublishScheduleStore defines the database operations needed to publish a
// season's schedule
type PublishScheduleStore interface {
	GetSeason(ctx context.Context, id string) (*model.Season, error)
	GetShiftsBySeason(ctx context.Context, seasonID string) ([]model.Shift, error)
	UpdateShift(ctx context.Context, shift *model.Shift) error
	UpdateSeason(ctx context.Context, season *model.Season) error
}

// PublishSchedule publishes every draft shift in the season and activates
// the season. A notification failure is returned to the caller even though
// the shift and season updates have already been written; there is no
// rollback.
func PublishSchedule(ctx context.Context, store PublishScheduleStore, messenger db.MessagingService, logger *zap.Logger, req PublishScheduleRequest) (*PublishScheduleResult, error) {
	logger.Info("Publishing schedule", zap.String("season_id", req.SeasonID))

	season, err := store.GetSeason(ctx, req.SeasonID)
	if err != nil {
		return nil, err
	}

	shifts, err := store.GetShiftsBySeason(ctx, req.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch season shifts: %w", err)
	}

	drafts := make([]model.Shift, 0, len(shifts))
	for _, shift := range shifts {
		if shift.Status == model.ShiftDraft {
			drafts = append(drafts, shift)
		}
	}

	if len(drafts) == 0 {
		return nil, model.OperationFailed("season %s has no draft shifts to publish", req.SeasonID)
	}

	logger.Debug("Found draft shifts", zap.Int("count", len(drafts)))

	for i := range drafts {
		drafts[i].Status = model.ShiftPublished
		if err := store.UpdateShift(ctx, &drafts[i]); err != nil {
			return nil, fmt.Errorf("failed to publish shift %s: %w", drafts[i].ID, err)
		}
	}

	// Activate the season; skip the write entirely when already active
	if season.Status != model.SeasonActive {
		season.Status = model.SeasonActive
		if err := store.UpdateSeason(ctx, season); err != nil {
			return nil, fmt.Errorf("failed to activate season: %w", err)
		}
		logger.Info("Season activated", zap.String("season_id", season.ID))
	}

	result := &PublishScheduleResult{ShiftsPublished: len(drafts)}

	if req.SendNotification {
		title := req.Title
		if title == "" {
			title = defaultPublishTitle
		}
		body := req.Body
		if body == "" {
			body = defaultPublishBody
		}

		logger.Info("Sending publish notification", zap.String("title", title))
		if err := messenger.SendMessage(ctx, title, body, model.AudienceAll, model.PriorityHigh); err != nil {
			// The shift and season writes are already committed; surface the
			// failure rather than hiding it
			return nil, fmt.Errorf("schedule published but notification failed: %w", err)
		}
		result.NotificationSent = true
	}

	logger.Info("Schedule published",
		zap.String("season_id", req.SeasonID),
		zap.Int("shifts_published", result.ShiftsPublished),
		zap.Bool("notification_sent", result.NotificationSent))

	return result, nil
}
