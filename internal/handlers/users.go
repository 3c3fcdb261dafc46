package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yogastudio/internal/auth"
	"yogastudio/internal/models"
	"yogastudio/internal/repository"
	"yogastudio/internal/utils"
)

// ListUsers lists accounts with optional role, active and search filters
func (h *Handler) ListUsers(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	filter := repository.UserFilter{
		Role:   models.Role(c.Query("role")),
		Active: utils.QueryBool(c, "active"),
		Query:  c.Query("q"),
		Page:   repository.Page{Limit: limit, Offset: offset},
	}

	users, total, err := h.store.Users.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, "Failed to list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total, "limit": limit, "offset": offset})
}

func (h *Handler) GetUser(c *gin.Context) {
	id := c.Param("id")
	if !auth.IsSelfOrAdmin(c, id) {
		forbidden(c)
		return
	}
	user, err := h.store.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "Failed to load user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser changes a profile; only admins may change role or active state
func (h *Handler) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	if !auth.IsSelfOrAdmin(c, id) {
		forbidden(c)
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	isAdmin := auth.CurrentRole(c) == models.RoleAdmin
	if (req.Role != nil || req.Active != nil) && !isAdmin {
		forbidden(c)
		return
	}

	user, err := h.store.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, "Failed to load user", err)
		return
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := h.store.Users.Update(c.Request.Context(), user); err != nil {
		h.handleError(c, "Failed to update user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeactivateUser soft-deletes an account
func (h *Handler) DeactivateUser(c *gin.Context) {
	if err := h.store.Users.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, "Failed to deactivate user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deactivated"})
}

// ListNotifications returns a user's in-app inbox, newest first
func (h *Handler) ListNotifications(c *gin.Context) {
	id := c.Param("id")
	if !auth.IsSelfOrAdmin(c, id) {
		forbidden(c)
		return
	}
	limit, offset := utils.Pagination(c)
	notifications, total, err := h.store.Notifications.ListForUser(c.Request.Context(), id, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		h.handleError(c, "Failed to list notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "total": total})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id := c.Param("id")
	if auth.CurrentUserID(c) != id {
		forbidden(c)
		return
	}
	if err := h.store.Notifications.MarkRead(c.Request.Context(), id, c.Param("nid")); err != nil {
		h.handleError(c, "Failed to update notification", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}
