package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

// GenerateScheduleRequest describes a bulk generation run over a season's
// date range
type GenerateScheduleRequest struct {
	SeasonID        string
	SeasonName      string
	StartDate       time.Time
	EndDate         time.Time
	DefaultLocation string
	TemplateIDs     []string
	ExcludedDates   []time.Time
	SpecialEvents   []model.SpecialEventConfig
}

// GenerateScheduleResult summarizes what a generation run produced
type GenerateScheduleResult struct {
	ShiftsCreated       int
	DatesWithShifts     int
	SpecialEventCount   int
	TotalVolunteerSlots int
}

// GenerateScheduleStore defines the database operations needed to generate
// a schedule
type GenerateScheduleStore interface {
	GetTemplate(ctx context.Context, id string) (*model.ShiftTemplate, error)
	GetSeason(ctx context.Context, id string) (*model.Season, error)
	InsertSeason(ctx context.Context, season *model.Season) error
	InsertShift(ctx context.Context, shift *model.Shift) error
}

// GenerateSchedule builds draft shifts for every date in the season range.
// Templates that are missing or inactive are discarded; a date with a
// matching special event produces exactly one shift from the special
// template, every other date produces one shift per active template. A
// template carrying a recurrence rule only generates on the dates the rule
// matches.
func GenerateSchedule(ctx context.Context, store GenerateScheduleStore, logger *zap.Logger, req GenerateScheduleRequest) (*GenerateScheduleResult, error) {
	start := startOfDay(req.StartDate)
	end := startOfDay(req.EndDate)
	if end.Before(start) {
		return nil, model.OperationFailed("end date %s is before start date %s", dateKey(end), dateKey(start))
	}

	logger.Info("Generating schedule",
		zap.String("season_id", req.SeasonID),
		zap.String("start", dateKey(start)),
		zap.String("end", dateKey(end)),
		zap.Int("template_count", len(req.TemplateIDs)))

	// Resolve templates, discarding missing and inactive ones
	templates := make([]model.ShiftTemplate, 0, len(req.TemplateIDs))
	for _, id := range req.TemplateIDs {
		template, err := store.GetTemplate(ctx, id)
		if err != nil {
			if model.IsKind(err, model.ErrTemplateNotFound) {
				logger.Warn("Template not found, skipping", zap.String("template_id", id))
				continue
			}
			return nil, fmt.Errorf("failed to fetch template %s: %w", id, err)
		}
		if !template.IsActive {
			logger.Warn("Template inactive, skipping", zap.String("template_id", id))
			continue
		}
		templates = append(templates, *template)
	}

	if len(templates) == 0 {
		return nil, model.OperationFailed("no active templates to generate from")
	}

	templatesByID := make(map[string]model.ShiftTemplate, len(templates))
	for _, t := range templates {
		templatesByID[t.ID] = t
	}

	// Precompute the allowed date set for templates with a recurrence rule
	recurrenceDates, err := resolveRecurrences(templates, start, end)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(req.ExcludedDates))
	for _, d := range req.ExcludedDates {
		excluded[dateKey(d)] = true
	}

	specialByDate := make(map[string]model.SpecialEventConfig, len(req.SpecialEvents))
	for _, ev := range req.SpecialEvents {
		specialByDate[dateKey(ev.Date)] = ev
	}

	// Ensure the season record exists before attaching shifts to it
	if err := ensureSeason(ctx, store, logger, req, start, end); err != nil {
		return nil, err
	}

	result := &GenerateScheduleResult{}
	now := time.Now().UTC()

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		key := dateKey(date)
		if excluded[key] {
			logger.Debug("Date excluded, skipping", zap.String("date", key))
			continue
		}

		created := 0
		if ev, ok := specialByDate[key]; ok {
			if template, active := templatesByID[ev.TemplateID]; active {
				shift := shiftFromTemplate(template, date, req, now)
				shift.Label = ev.Label
				shift.Notes = ev.Notes
				if err := store.InsertShift(ctx, shift); err != nil {
					return nil, fmt.Errorf("failed to insert special event shift for %s: %w", key, err)
				}
				result.SpecialEventCount++
				result.TotalVolunteerSlots += template.RequiredScouts + template.RequiredParents
				created++
			} else {
				logger.Warn("Special event template not in active set, generating normally",
					zap.String("date", key),
					zap.String("template_id", ev.TemplateID))
			}
		}

		if created == 0 {
			for _, template := range templates {
				if allowed, restricted := recurrenceDates[template.ID]; restricted && !allowed[key] {
					continue
				}
				shift := shiftFromTemplate(template, date, req, now)
				if err := store.InsertShift(ctx, shift); err != nil {
					return nil, fmt.Errorf("failed to insert shift for %s: %w", key, err)
				}
				result.TotalVolunteerSlots += template.RequiredScouts + template.RequiredParents
				created++
			}
		}

		if created > 0 {
			result.DatesWithShifts++
			result.ShiftsCreated += created
		}
	}

	logger.Info("Schedule generated",
		zap.String("season_id", req.SeasonID),
		zap.Int("shifts_created", result.ShiftsCreated),
		zap.Int("dates_with_shifts", result.DatesWithShifts),
		zap.Int("special_events", result.SpecialEventCount),
		zap.Int("volunteer_slots", result.TotalVolunteerSlots))

	return result, nil
}

// ensureSeason inserts the season record in draft status when it does not
// already exist
func ensureSeason(ctx context.Context, store GenerateScheduleStore, logger *zap.Logger, req GenerateScheduleRequest, start, end time.Time) error {
	_, err := store.GetSeason(ctx, req.SeasonID)
	if err == nil {
		return nil
	}
	if !model.IsKind(err, model.ErrSeasonNotFound) {
		return fmt.Errorf("failed to fetch season: %w", err)
	}

	logger.Info("Creating season record", zap.String("season_id", req.SeasonID), zap.String("name", req.SeasonName))
	season := &model.Season{
		ID:        req.SeasonID,
		Name:      req.SeasonName,
		StartDate: start,
		EndDate:   end,
		Status:    model.SeasonDraft,
	}
	if err := store.InsertSeason(ctx, season); err != nil {
		return fmt.Errorf("failed to insert season: %w", err)
	}
	return nil
}

// resolveRecurrences expands each template's recurrence rule into the set of
// allowed dates within the range. Templates without a rule are unrestricted.
func resolveRecurrences(templates []model.ShiftTemplate, start, end time.Time) (map[string]map[string]bool, error) {
	allowed := make(map[string]map[string]bool)
	for _, template := range templates {
		if template.Recurrence == "" {
			continue
		}
		rule, err := rrule.StrToRRule(template.Recurrence)
		if err != nil {
			return nil, model.OperationFailed("invalid recurrence rule on template %s: %v", template.ID, err)
		}
		rule.DTStart(start)
		dates := make(map[string]bool)
		for _, d := range rule.Between(start, end.AddDate(0, 0, 1), true) {
			dates[dateKey(d)] = true
		}
		allowed[template.ID] = dates
	}
	return allowed, nil
}

// shiftFromTemplate builds a draft shift for one date from a template
func shiftFromTemplate(template model.ShiftTemplate, date time.Time, req GenerateScheduleRequest, now time.Time) *model.Shift {
	location := template.Location
	if location == "" {
		location = req.DefaultLocation
	}
	return &model.Shift{
		ID:              uuid.New().String(),
		Date:            date,
		StartTime:       combineDateTime(date, template.StartTime),
		EndTime:         combineDateTime(date, template.EndTime),
		RequiredScouts:  template.RequiredScouts,
		RequiredParents: template.RequiredParents,
		Location:        location,
		Label:           template.Name,
		Status:          model.ShiftDraft,
		SeasonID:        req.SeasonID,
		TemplateID:      template.ID,
		CreatedAt:       now,
	}
}
