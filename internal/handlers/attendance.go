package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yogastudio/internal/auth"
	"yogastudio/internal/models"
	"yogastudio/internal/repository"
	"yogastudio/internal/services"
	"yogastudio/internal/utils"
)

type attendanceView struct {
	models.Attendance
	DurationMinutes int `json:"duration_minutes"`
}

func newAttendanceView(a *models.Attendance) attendanceView {
	return attendanceView{Attendance: *a, DurationMinutes: int(a.ActualDuration().Minutes())}
}

func newAttendanceViews(records []models.Attendance) []attendanceView {
	views := make([]attendanceView, 0, len(records))
	for i := range records {
		views = append(views, newAttendanceView(&records[i]))
	}
	return views
}

// MarkAttendance records a manual check-in by staff
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	record, err := h.attendance.Mark(c.Request.Context(), services.MarkInput{
		UserID:      req.UserID,
		GroupID:     req.GroupID,
		SessionDate: req.SessionDate,
		Status:      req.Status,
		Method:      models.CheckInManual,
		MarkedBy:    auth.CurrentUserID(c),
		Notes:       req.Notes,
	})
	if err != nil {
		h.handleError(c, "Failed to mark attendance", err)
		return
	}
	c.JSON(http.StatusCreated, newAttendanceView(record))
}

func attendanceFilter(c *gin.Context) repository.AttendanceFilter {
	limit, offset := utils.Pagination(c)
	return repository.AttendanceFilter{
		UserID:   c.Query("user_id"),
		GroupID:  c.Query("group_id"),
		FromDate: c.Query("from"),
		ToDate:   c.Query("to"),
		Status:   models.AttendanceStatus(c.Query("status")),
		Page:     repository.Page{Limit: limit, Offset: offset},
	}
}

func (h *Handler) ListAttendance(c *gin.Context) {
	filter := attendanceFilter(c)
	records, total, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, "Failed to list attendance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": newAttendanceViews(records), "total": total})
}

// MyAttendance lists the current user's own records
func (h *Handler) MyAttendance(c *gin.Context) {
	filter := attendanceFilter(c)
	filter.UserID = auth.CurrentUserID(c)
	records, total, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, "Failed to list attendance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": newAttendanceViews(records), "total": total})
}

func (h *Handler) UpdateAttendance(c *gin.Context) {
	var req models.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	record, err := h.attendance.Update(c.Request.Context(), c.Param("id"), services.UpdateAttendanceInput{
		Status:     req.Status,
		Notes:      req.Notes,
		CheckOutAt: req.CheckOutAt,
	})
	if err != nil {
		h.handleError(c, "Failed to update attendance", err)
		return
	}
	c.JSON(http.StatusOK, newAttendanceView(record))
}
