package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"yogastudio/internal/auth"
	"yogastudio/internal/config"
	"yogastudio/internal/database"
	"yogastudio/internal/handlers"
	"yogastudio/internal/logger"
	"yogastudio/internal/ratelimit"
	"yogastudio/internal/repository"
	"yogastudio/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(cfg, log)
	if err != nil {
		return err
	}
	store := repository.NewStore(db)
	if err := services.EnsureAdmin(ctx, store, cfg.Admin.Email, log); err != nil {
		return err
	}

	mailer, err := services.NewMailer(ctx, cfg, log)
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer)

	var pusher services.Pusher = services.NewNoopPusher(log)
	if cfg.Firebase.CredentialsPath != "" {
		fcm, err := services.NewFCMPusher(ctx, cfg.Firebase.CredentialsPath)
		if err != nil {
			return err
		}
		pusher = fcm
		log.Info("push notifications via firebase")
	} else {
		log.Info("push notifications disabled: no firebase credentials configured")
	}

	geocoder, err := services.NewGeocoder(cfg.GoogleMaps.APIKey, log)
	if err != nil {
		return err
	}

	dispatcher := services.NewDispatcher(store, pusher, log)
	qrService := services.NewQRService(store, cfg.QR, time.Now, log)
	attendanceService := services.NewAttendanceService(store, qrService, time.Now, log)
	groupService := services.NewGroupService(store, geocoder, log)
	reminders := services.NewReminderScheduler(store, dispatcher, emailService, cfg.Reminder.Interval, time.Now, log)

	if cfg.Reminder.Enabled {
		if err := reminders.Start(ctx); err != nil {
			return err
		}
		defer reminders.Stop()
	}

	routeOpts := handlers.RouteOptions{ScanLimit: cfg.QR.ScanLimit}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, scan limiter will fail open", zap.Error(err))
		}
		routeOpts.Limiter = ratelimit.NewRedisLimiter(rdb, log)
	} else {
		log.Info("scan rate limiting disabled: no redis address configured")
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(log))
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.Origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := handlers.New(handlers.Deps{
		Store:      store,
		Tokens:     auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry),
		Groups:     groupService,
		Attendance: attendanceService,
		QR:         qrService,
		Reminders:  reminders,
		Email:      emailService,
		Log:        log,
		AdminEmail: cfg.Admin.Email,
		Release:    cfg.IsRelease(),
	})
	h.RegisterRoutes(router, routeOpts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
