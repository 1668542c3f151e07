package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trooptools/shiftwise/pkg/core/model"
	"github.com/trooptools/shiftwise/pkg/core/services"
)

type specialEventDTO struct {
	Date       time.Time `json:"date" binding:"required"`
	TemplateID string    `json:"templateId" binding:"required"`
	Label      string    `json:"label"`
	Notes      string    `json:"notes"`
}

type generateScheduleDTO struct {
	SeasonID        string            `json:"seasonId" binding:"required"`
	SeasonName      string            `json:"seasonName"`
	StartDate       time.Time         `json:"startDate" binding:"required"`
	EndDate         time.Time         `json:"endDate" binding:"required"`
	DefaultLocation string            `json:"defaultLocation"`
	TemplateIDs     []string          `json:"templateIds" binding:"required,min=1"`
	ExcludedDates   []time.Time       `json:"excludedDates"`
	SpecialEvents   []specialEventDTO `json:"specialEvents"`
}

func (s *Server) generateSchedule(c *gin.Context) {
	var dto generateScheduleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := services.GenerateScheduleRequest{
		SeasonID:        dto.SeasonID,
		SeasonName:      dto.SeasonName,
		StartDate:       dto.StartDate,
		EndDate:         dto.EndDate,
		DefaultLocation: dto.DefaultLocation,
		TemplateIDs:     dto.TemplateIDs,
		ExcludedDates:   dto.ExcludedDates,
	}
	for _, ev := range dto.SpecialEvents {
		req.SpecialEvents = append(req.SpecialEvents, model.SpecialEventConfig{
			Date:       ev.Date,
			TemplateID: ev.TemplateID,
			Label:      ev.Label,
			Notes:      ev.Notes,
		})
	}

	result, err := services.GenerateSchedule(c.Request.Context(), s.store, s.logger, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type publishScheduleDTO struct {
	SeasonID         string `json:"seasonId" binding:"required"`
	SendNotification bool   `json:"sendNotification"`
	Title            string `json:"title"`
	Body             string `json:"body"`
}

func (s *Server) publishSchedule(c *gin.Context) {
	var dto publishScheduleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.PublishSchedule(c.Request.Context(), s.store, s.messenger, s.logger, services.PublishScheduleRequest{
		SeasonID:         dto.SeasonID,
		SendNotification: dto.SendNotification,
		Title:            dto.Title,
		Body:             dto.Body,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createShiftDTO struct {
	Date               time.Time `json:"date" binding:"required"`
	StartTime          time.Time `json:"startTime" binding:"required"`
	EndTime            time.Time `json:"endTime" binding:"required"`
	RequiredScouts     int       `json:"requiredScouts"`
	RequiredParents    int       `json:"requiredParents"`
	Location           string    `json:"location" binding:"required"`
	Label              string    `json:"label"`
	Notes              string    `json:"notes"`
	PublishImmediately bool      `json:"publishImmediately"`
	NotifyOnPublish    bool      `json:"notifyOnPublish"`
}

func (s *Server) createShift(c *gin.Context) {
	var dto createShiftDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.CreateShift(c.Request.Context(), s.store, s.messenger, s.logger, services.CreateShiftRequest{
		Date:               dto.Date,
		StartTime:          dto.StartTime,
		EndTime:            dto.EndTime,
		RequiredScouts:     dto.RequiredScouts,
		RequiredParents:    dto.RequiredParents,
		Location:           dto.Location,
		Label:              dto.Label,
		Notes:              dto.Notes,
		PublishImmediately: dto.PublishImmediately,
		NotifyOnPublish:    dto.NotifyOnPublish,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updateShiftDTO struct {
	Date            *time.Time `json:"date"`
	StartTime       *time.Time `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	RequiredScouts  *int       `json:"requiredScouts"`
	RequiredParents *int       `json:"requiredParents"`
	Location        *string    `json:"location"`
	Label           *string    `json:"label"`
	Notes           *string    `json:"notes"`
}

func (s *Server) updateShift(c *gin.Context) {
	var dto updateShiftDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shift, err := services.UpdateShift(c.Request.Context(), s.store, s.logger, services.UpdateShiftRequest{
		ShiftID:         c.Param("id"),
		Date:            dto.Date,
		StartTime:       dto.StartTime,
		EndTime:         dto.EndTime,
		RequiredScouts:  dto.RequiredScouts,
		RequiredParents: dto.RequiredParents,
		Location:        dto.Location,
		Label:           dto.Label,
		Notes:           dto.Notes,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

type signUpDTO struct {
	Type  model.AssignmentType `json:"type" binding:"required"`
	Notes string               `json:"notes"`
}

func (s *Server) signUp(c *gin.Context) {
	var dto signUpDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.SignUp(c.Request.Context(), s.store, s.signup, s.logger, services.SignUpRequest{
		ShiftID: c.Param("id"),
		UserID:  c.GetString(ctxUserID),
		Type:    dto.Type,
		Notes:   dto.Notes,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type cancelSignupDTO struct {
	Reason string `json:"reason"`
}

func (s *Server) cancelSignup(c *gin.Context) {
	var dto cancelSignupDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := services.CancelSignup(c.Request.Context(), s.store, s.signup, s.logger, services.CancelSignupRequest{
		AssignmentID: c.Param("id"),
		Reason:       dto.Reason,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type checkInDTO struct {
	QRCodeData string `json:"qrCodeData"`
	Location   string `json:"location"`
}

func (s *Server) checkIn(c *gin.Context) {
	var dto checkInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.CheckIn(c.Request.Context(), s.store, s.attendance, s.logger, services.CheckInRequest{
		AssignmentID: c.Param("id"),
		QRCodeData:   dto.QRCodeData,
		Location:     dto.Location,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type checkOutDTO struct {
	Notes string `json:"notes"`
}

func (s *Server) checkOut(c *gin.Context) {
	var dto checkOutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.CheckOut(c.Request.Context(), s.store, s.attendance, s.logger, services.CheckOutRequest{
		AssignmentID: c.Param("id"),
		Notes:        dto.Notes,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type markNoShowDTO struct {
	Notes string `json:"notes"`
}

func (s *Server) markNoShow(c *gin.Context) {
	var dto markNoShowDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.MarkNoShow(c.Request.Context(), s.store, s.logger, services.MarkNoShowRequest{
		AssignmentID: c.Param("id"),
		RequestedBy:  c.GetString(ctxUserID),
		Notes:        dto.Notes,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateAttendanceDTO struct {
	CheckInTime     *time.Time              `json:"checkInTime"`
	CheckOutTime    *time.Time              `json:"checkOutTime"`
	Status          *model.AttendanceStatus `json:"status"`
	HoursWorked     *float64                `json:"hoursWorked"`
	CorrectionNotes string                  `json:"correctionNotes"`
	OverrideReason  string                  `json:"overrideReason"`
}

func (s *Server) updateAttendance(c *gin.Context) {
	var dto updateAttendanceDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := services.UpdateAttendance(c.Request.Context(), s.store, s.logger, services.UpdateAttendanceRequest{
		RecordID:        c.Param("id"),
		RequestedBy:     c.GetString(ctxUserID),
		CheckInTime:     dto.CheckInTime,
		CheckOutTime:    dto.CheckOutTime,
		Status:          dto.Status,
		HoursWorked:     dto.HoursWorked,
		CorrectionNotes: dto.CorrectionNotes,
		OverrideReason:  dto.OverrideReason,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type addWalkInDTO struct {
	UserID string `json:"userId" binding:"required"`
	Notes  string `json:"notes"`
}

func (s *Server) addWalkIn(c *gin.Context) {
	var dto addWalkInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := services.AddWalkIn(c.Request.Context(), s.store, s.logger, services.AddWalkInRequest{
		ShiftID:     c.Param("id"),
		UserID:      dto.UserID,
		RequestedBy: c.GetString(ctxUserID),
		Notes:       dto.Notes,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) getMyShifts(c *gin.Context) {
	entries, err := services.GetMyShifts(c.Request.Context(), s.store, s.logger, c.GetString(ctxUserID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shifts": entries})
}

func (s *Server) getShiftDetails(c *gin.Context) {
	details, err := services.GetShiftDetails(c.Request.Context(), s.store, s.logger, c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) getWeekSchedule(c *gin.Context) {
	reference := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		reference = parsed
	}

	week, err := services.GetWeekSchedule(c.Request.Context(), s.store, s.logger, reference)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, week)
}

func (s *Server) getMyAttendance(c *gin.Context) {
	history, err := services.GetAttendanceHistory(c.Request.Context(), s.store, s.logger, c.GetString(ctxUserID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) getUserAttendance(c *gin.Context) {
	history, err := services.GetAttendanceHistory(c.Request.Context(), s.store, s.logger, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) getShiftAttendance(c *gin.Context) {
	details, err := services.GetShiftAttendance(c.Request.Context(), s.store, s.logger, c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

type redeemInviteDTO struct {
	Code string `json:"code" binding:"required"`
}

func (s *Server) redeemInvite(c *gin.Context) {
	var dto redeemInviteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invite, err := s.store.GetInviteCode(c.Request.Context(), dto.Code)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if invite.Redeemed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invite code has already been redeemed"})
		return
	}
	if time.Now().UTC().After(invite.ExpiresAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invite code has expired"})
		return
	}

	if err := s.family.LinkScoutToHousehold(c.Request.Context(), c.GetString(ctxUserID), invite.HouseholdID); err != nil {
		s.respondError(c, err)
		return
	}

	invite.Redeemed = true
	if err := s.store.UpdateInviteCode(c.Request.Context(), invite); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"householdId": invite.HouseholdID})
}

type linkScoutDTO struct {
	ScoutID string `json:"scoutId" binding:"required"`
}

func (s *Server) linkScout(c *gin.Context) {
	var dto linkScoutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.family.LinkScoutToHousehold(c.Request.Context(), dto.ScoutID, c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) regenerateLinkCode(c *gin.Context) {
	code, err := s.family.RegenerateHouseholdLinkCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"linkCode": code})
}

func (s *Server) listMessages(c *gin.Context) {
	messages, err := s.store.GetMessages(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
