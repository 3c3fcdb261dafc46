package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"yogastudio/internal/auth"
	"yogastudio/internal/geo"
	"yogastudio/internal/models"
	"yogastudio/internal/services"
)

// GenerateQR issues a check-in code for one session
func (h *Handler) GenerateQR(c *gin.Context) {
	var req models.GenerateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, err := h.qr.Generate(c.Request.Context(), services.GenerateQRInput{
		GroupID:     req.GroupID,
		SessionDate: req.SessionDate,
		TTL:         time.Duration(req.TTLMinutes) * time.Minute,
		MaxUsage:    req.MaxUsage,
		Geofence:    req.Geofence,
		CreatedBy:   auth.CurrentUserID(c),
	})
	if err != nil {
		h.handleError(c, "Failed to generate QR code", err)
		return
	}
	c.JSON(http.StatusCreated, models.NewQRCodeView(code, time.Now()))
}

// ScanQR validates a scanned code and records the scanner's attendance
func (h *Handler) ScanQR(c *gin.Context) {
	var req models.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var location *geo.Point
	if req.Latitude != nil && req.Longitude != nil {
		location = &geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	record, err := h.attendance.CheckIn(c.Request.Context(), req.Token, auth.CurrentUserID(c), location)
	if err != nil {
		h.handleError(c, "Failed to check in", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "checked in", "attendance": newAttendanceView(record)})
}

// GetQR returns a code with its current status
func (h *Handler) GetQR(c *gin.Context) {
	view, err := h.qr.Info(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.handleError(c, "Failed to load QR code", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) DeactivateQR(c *gin.Context) {
	if err := h.qr.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, "Failed to deactivate QR code", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "qr code deactivated"})
}

// ListGroupQR lists every code issued for a group
func (h *Handler) ListGroupQR(c *gin.Context) {
	views, err := h.qr.ListByGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, "Failed to list QR codes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_codes": views})
}
