package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yogastudio/internal/models"
)

// Stats summarises studio activity for the admin dashboard
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.store.Users.Count(ctx)
	if err != nil {
		h.handleError(c, "Failed to load stats", err)
		return
	}
	groups, err := h.store.Groups.Count(ctx)
	if err != nil {
		h.handleError(c, "Failed to load stats", err)
		return
	}
	recent, err := h.store.Attendance.CountSince(ctx, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		h.handleError(c, "Failed to load stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active_users":        users,
		"active_groups":       groups,
		"attendance_last_30d": recent,
		"generated_at":        time.Now().UTC(),
	})
}

func (h *Handler) ListInstructors(c *gin.Context) {
	instructors, err := h.store.Instructors.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.handleError(c, "Failed to list instructors", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instructors": instructors})
}

func (h *Handler) GetInstructor(c *gin.Context) {
	instructor, err := h.store.Instructors.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, "Failed to load instructor", err)
		return
	}
	c.JSON(http.StatusOK, instructor)
}

func (h *Handler) CreateInstructor(c *gin.Context) {
	var req models.InstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	instructor := &models.Instructor{Active: true}
	applyInstructor(instructor, req)

	if err := h.store.Instructors.Create(c.Request.Context(), instructor); err != nil {
		h.handleError(c, "Failed to create instructor", err)
		return
	}
	c.JSON(http.StatusCreated, instructor)
}

func (h *Handler) UpdateInstructor(c *gin.Context) {
	var req models.InstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	instructor, err := h.store.Instructors.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, "Failed to load instructor", err)
		return
	}
	applyInstructor(instructor, req)

	if err := h.store.Instructors.Update(c.Request.Context(), instructor); err != nil {
		h.handleError(c, "Failed to update instructor", err)
		return
	}
	c.JSON(http.StatusOK, instructor)
}

func (h *Handler) DeleteInstructor(c *gin.Context) {
	if err := h.store.Instructors.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, "Failed to delete instructor", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "instructor deleted"})
}

func applyInstructor(i *models.Instructor, req models.InstructorRequest) {
	i.UserID = req.UserID
	i.Name = req.Name
	i.Email = req.Email
	i.Bio = req.Bio
	i.Specialties = models.StringList(req.Specialties)
	if i.Specialties == nil {
		i.Specialties = models.StringList{}
	}
	if req.Active != nil {
		i.Active = *req.Active
	}
}

// RunReminders triggers one reminder cycle immediately
func (h *Handler) RunReminders(c *gin.Context) {
	result := h.reminders.ProcessReminders(c.Request.Context())
	h.log.Info("manual reminder cycle",
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped),
		zap.Int("failures", result.Failures))
	c.JSON(http.StatusOK, result)
}
