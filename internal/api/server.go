package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trooptools/shiftwise/pkg/core/model"
	"github.com/trooptools/shiftwise/pkg/db"
)

// Store is the full set of persistence operations the HTTP layer needs
type Store interface {
	db.ShiftStore
	db.AssignmentStore
	db.AttendanceStore
	db.SeasonStore
	db.TemplateStore
	db.UserStore
	db.HouseholdStore
	db.InviteCodeStore
	db.MessageStore
}

// CredentialStore resolves login credentials for the auth handler
type CredentialStore interface {
	GetUserCredentials(ctx context.Context, email string) (userID, passwordHash string, err error)
}

// Server wires the use-case layer behind a gin router
type Server struct {
	store      Store
	creds      CredentialStore
	signup     db.SignupService
	attendance db.AttendanceService
	family     db.FamilyService
	messenger  db.MessagingService
	logger     *zap.Logger
	jwtSecret  []byte
	tokenTTL   time.Duration
}

// NewServer creates a Server around the given adapters
func NewServer(store Store, creds CredentialStore, signup db.SignupService, attendance db.AttendanceService,
	family db.FamilyService, messenger db.MessagingService, logger *zap.Logger, jwtSecret string, tokenTTL time.Duration) *Server {
	return &Server{
		store:      store,
		creds:      creds,
		signup:     signup,
		attendance: attendance,
		family:     family,
		messenger:  messenger,
		logger:     logger,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.POST("/api/login", s.login)

	api := r.Group("/api", s.jwtAuth())

	api.GET("/me/shifts", s.getMyShifts)
	api.GET("/me/attendance", s.getMyAttendance)

	api.GET("/schedule/week", s.getWeekSchedule)
	api.GET("/shifts/:id", s.getShiftDetails)
	api.POST("/shifts/:id/signup", s.signUp)
	api.POST("/assignments/:id/cancel", s.cancelSignup)

	api.POST("/assignments/:id/checkin", s.checkIn)
	api.POST("/assignments/:id/checkout", s.checkOut)
	api.POST("/invites/redeem", s.redeemInvite)

	admin := api.Group("", s.requireLeadership())
	admin.POST("/schedule/generate", s.generateSchedule)
	admin.POST("/schedule/publish", s.publishSchedule)
	admin.POST("/shifts", s.createShift)
	admin.PATCH("/shifts/:id", s.updateShift)
	admin.GET("/shifts/:id/attendance", s.getShiftAttendance)
	admin.POST("/assignments/:id/noshow", s.markNoShow)
	admin.PATCH("/attendance/:id", s.updateAttendance)
	admin.GET("/users/:id/attendance", s.getUserAttendance)
	admin.POST("/households/:id/scouts", s.linkScout)
	admin.POST("/households/:id/linkcode", s.regenerateLinkCode)
	admin.GET("/messages", s.listMessages)

	// Walk-ins are also open to checked-in volunteers; the use case decides
	api.POST("/shifts/:id/walkins", s.addWalkIn)

	return r
}

// respondError maps domain error kinds onto HTTP status codes
func (s *Server) respondError(c *gin.Context, err error) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		s.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// Remaining kinds are all not-found variants
	status := http.StatusNotFound
	switch domainErr.Kind {
	case model.ErrUnauthorized:
		status = http.StatusForbidden
	case model.ErrNetwork:
		status = http.StatusBadGateway
	case model.ErrOperationFailed:
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"error": domainErr.Error()})
}
