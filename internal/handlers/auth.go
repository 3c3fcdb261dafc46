package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yogastudio/internal/auth"
	"yogastudio/internal/models"
	"yogastudio/internal/repository"
	"yogastudio/internal/services"
)

// Register creates a member account and signs it in. The configured admin
// email registers with the admin role.
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := services.NormalizeEmail(req.Email)
	role := models.RoleMember
	if h.adminEmail != "" && email == h.adminEmail {
		role = models.RoleAdmin
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         role,
		Active:       true,
	}
	if err := h.store.Users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is already registered"})
			return
		}
		h.handleError(c, "Failed to create account", err)
		return
	}

	if h.email != nil && h.email.Enabled() {
		if err := h.email.SendWelcomeEmail(c.Request.Context(), user); err != nil {
			h.log.Warn("failed to send welcome email", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	h.issueToken(c, http.StatusCreated, user)
}

// Login checks credentials and issues a JWT token
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.store.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.handleError(c, "Failed to log in", err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.Active {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account is deactivated"})
		return
	}

	now := time.Now().UTC()
	if err := h.store.Users.UpdateLastLogin(c.Request.Context(), user.ID, now); err != nil {
		h.log.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLogin = &now

	h.issueToken(c, http.StatusOK, user)
}

func (h *Handler) issueToken(c *gin.Context, status int, user *models.User) {
	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		h.handleError(c, "Failed to generate token", err)
		return
	}
	auth.SetAuthCookie(c, token, h.tokens.Expiry())
	c.JSON(status, gin.H{
		"token":      token,
		"expires_in": int(h.tokens.Expiry().Seconds()),
		"user":       user,
	})
}

// Logout clears the auth cookie
func (h *Handler) Logout(c *gin.Context) {
	auth.ClearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

// Me returns the currently authenticated user
func (h *Handler) Me(c *gin.Context) {
	user := auth.CurrentUser(c)
	if user == nil {
		h.handleError(c, "Not authenticated", services.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, user)
}

// AddDeviceToken registers a push token for the current user
func (h *Handler) AddDeviceToken(c *gin.Context) {
	var req models.DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.Users.AddDeviceToken(c.Request.Context(), auth.CurrentUserID(c), req.Token); err != nil {
		h.handleError(c, "Failed to register device", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "device registered"})
}

// RemoveDeviceToken unregisters a push token of the current user
func (h *Handler) RemoveDeviceToken(c *gin.Context) {
	var req models.DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.Users.RemoveDeviceTokens(c.Request.Context(), auth.CurrentUserID(c), []string{req.Token}); err != nil {
		h.handleError(c, "Failed to remove device", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "device removed"})
}
