package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"yogastudio/internal/auth"
	"yogastudio/internal/models"
	"yogastudio/internal/repository"
	"yogastudio/internal/utils"
)

// SubmitHealthForm stores an intake form for the current user
func (h *Handler) SubmitHealthForm(c *gin.Context) {
	var req models.HealthFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !req.Consent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "consent is required"})
		return
	}

	form := &models.HealthForm{
		UserID:                auth.CurrentUserID(c),
		Conditions:            models.StringList(req.Conditions),
		Injuries:              req.Injuries,
		Medications:           req.Medications,
		Pregnant:              req.Pregnant,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		Answers:               req.Answers,
		Consent:               req.Consent,
	}
	if err := h.store.HealthForms.Create(c.Request.Context(), form); err != nil {
		h.handleError(c, "Failed to submit health form", err)
		return
	}
	c.JSON(http.StatusCreated, form)
}

// MyHealthForms lists the current user's submissions, newest first
func (h *Handler) MyHealthForms(c *gin.Context) {
	forms, err := h.store.HealthForms.ListForUser(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		h.handleError(c, "Failed to list health forms", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

func (h *Handler) ListHealthForms(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	forms, total, err := h.store.HealthForms.List(c.Request.Context(),
		models.HealthFormStatus(c.Query("status")), repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		h.handleError(c, "Failed to list health forms", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms, "total": total})
}

// GetHealthForm returns a form to its owner or to staff
func (h *Handler) GetHealthForm(c *gin.Context) {
	form, err := h.store.HealthForms.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, "Failed to load health form", err)
		return
	}
	if form.UserID != auth.CurrentUserID(c) && !auth.CurrentRole(c).IsStaff() {
		forbidden(c)
		return
	}
	c.JSON(http.StatusOK, form)
}

func (h *Handler) ReviewHealthForm(c *gin.Context) {
	var req models.ReviewHealthFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	if err := h.store.HealthForms.MarkReviewed(c.Request.Context(), id, auth.CurrentUserID(c), req.Notes, time.Now().UTC()); err != nil {
		h.handleError(c, "Failed to review health form", err)
		return
	}
	form, err := h.store.HealthForms.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "Failed to load health form", err)
		return
	}
	c.JSON(http.StatusOK, form)
}
