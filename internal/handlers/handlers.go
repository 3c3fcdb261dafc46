package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yogastudio/internal/auth"
	"yogastudio/internal/database"
	"yogastudio/internal/repository"
	"yogastudio/internal/services"
)

// Handler serves the studio's HTTP API
type Handler struct {
	store      *repository.Store
	tokens     *auth.TokenManager
	groups     *services.GroupService
	attendance *services.AttendanceService
	qr         *services.QRService
	reminders  *services.ReminderScheduler
	email      *services.EmailService
	log        *zap.Logger
	release    bool
	adminEmail string
}

// Deps are the collaborators a Handler needs
type Deps struct {
	Store      *repository.Store
	Tokens     *auth.TokenManager
	Groups     *services.GroupService
	Attendance *services.AttendanceService
	QR         *services.QRService
	Reminders  *services.ReminderScheduler
	Email      *services.EmailService
	Log        *zap.Logger
	Release    bool
	// AdminEmail registers as an admin instead of a member
	AdminEmail string
}

func New(d Deps) *Handler {
	return &Handler{
		store:      d.Store,
		tokens:     d.Tokens,
		groups:     d.Groups,
		attendance: d.Attendance,
		qr:         d.QR,
		reminders:  d.Reminders,
		email:      d.Email,
		log:        d.Log.With(zap.String("component", "http")),
		release:    d.Release,
		adminEmail: services.NormalizeEmail(d.AdminEmail),
	}
}

// handleError maps service errors onto HTTP status codes and logs server faults
func (h *Handler) handleError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
		body := gin.H{"error": message}
		if !h.release {
			body["detail"] = err.Error()
		}
		c.JSON(status, body)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrQRExpired),
		errors.Is(err, services.ErrQRExhausted),
		errors.Is(err, services.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// badRequest reports a binding or parameter error
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid input: %s", err.Error())})
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
}

// HomeHandler handles requests to the root path "/"
func (h *Handler) HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to the yoga studio API!")
}

// HealthHandler reports liveness and database reachability
func (h *Handler) HealthHandler(c *gin.Context) {
	if err := database.Ping(h.store.DB()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}
