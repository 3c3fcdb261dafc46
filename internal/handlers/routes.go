package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"yogastudio/internal/auth"
	"yogastudio/internal/models"
	"yogastudio/internal/ratelimit"
)

// RouteOptions tunes middleware shared by the routes
type RouteOptions struct {
	Limiter   ratelimit.Limiter
	ScanLimit int
}

// RegisterRoutes mounts every endpoint on router
func (h *Handler) RegisterRoutes(router *gin.Engine, opts RouteOptions) {
	router.GET("/", h.HomeHandler)
	router.GET("/health", h.HealthHandler)

	requireAuth := auth.Middleware(h.tokens, h.store.Users, h.log)
	admin := auth.RequireRole(models.RoleAdmin)
	staff := auth.RequireRole(models.RoleAdmin, models.RoleInstructor)

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/logout", h.Logout)
		authRoutes.GET("/me", requireAuth, h.Me)
		authRoutes.POST("/device-tokens", requireAuth, h.AddDeviceToken)
		authRoutes.DELETE("/device-tokens", requireAuth, h.RemoveDeviceToken)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("", admin, h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", admin, h.DeactivateUser)
		users.GET("/:id/notifications", h.ListNotifications)
		users.POST("/:id/notifications/:nid/read", h.MarkNotificationRead)
	}

	groups := api.Group("/groups", requireAuth)
	{
		groups.GET("", h.ListGroups)
		groups.GET("/:id", h.GetGroup)
		groups.POST("", admin, h.CreateGroup)
		groups.PUT("/:id", admin, h.UpdateGroup)
		groups.DELETE("/:id", admin, h.DeleteGroup)
		groups.GET("/:id/members", staff, h.ListMembers)
		groups.POST("/:id/members", h.AddMember)
		groups.PATCH("/:id/members/:userId", admin, h.UpdateMember)
		groups.DELETE("/:id/members/:userId", h.RemoveMember)
		groups.GET("/:id/qr", staff, h.ListGroupQR)
	}

	attendance := api.Group("/attendance", requireAuth)
	{
		attendance.POST("", staff, h.MarkAttendance)
		attendance.GET("", staff, h.ListAttendance)
		attendance.GET("/me", h.MyAttendance)
		attendance.PATCH("/:id", staff, h.UpdateAttendance)
	}

	scanLimit := ratelimit.Middleware(opts.Limiter, opts.ScanLimit, time.Minute, auth.CurrentUserID)
	qr := api.Group("/qr", requireAuth)
	{
		qr.POST("/generate", staff, h.GenerateQR)
		qr.POST("/scan", scanLimit, h.ScanQR)
		qr.GET("/:token", staff, h.GetQR)
		qr.PATCH("/:id/deactivate", staff, h.DeactivateQR)
	}

	adminRoutes := api.Group("/admin", requireAuth, admin)
	{
		adminRoutes.GET("/stats", h.Stats)
		adminRoutes.GET("/instructors", h.ListInstructors)
		adminRoutes.POST("/instructors", h.CreateInstructor)
		adminRoutes.GET("/instructors/:id", h.GetInstructor)
		adminRoutes.PUT("/instructors/:id", h.UpdateInstructor)
		adminRoutes.DELETE("/instructors/:id", h.DeleteInstructor)
		adminRoutes.POST("/reminders/run", h.RunReminders)
	}

	sched := api.Group("/schedule", requireAuth)
	{
		sched.GET("", h.Schedule)
		sched.GET("/groups/:id", h.GroupSchedule)
	}

	health := api.Group("/health", requireAuth)
	{
		health.POST("/forms", h.SubmitHealthForm)
		health.GET("/forms/me", h.MyHealthForms)
		health.GET("/forms", staff, h.ListHealthForms)
		health.GET("/forms/:id", h.GetHealthForm)
		health.PUT("/forms/:id/review", staff, h.ReviewHealthForm)
	}
}
