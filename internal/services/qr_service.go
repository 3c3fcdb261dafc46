package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"yogastudio/internal/config"
	"yogastudio/internal/geo"
	"yogastudio/internal/models"
	"yogastudio/internal/repository"
)

const qrTokenBytes = 32

// GenerateQRInput describes a new session code
type GenerateQRInput struct {
	GroupID     string
	SessionDate string
	TTL         time.Duration
	MaxUsage    int
	Geofence    *models.Geofence
	CreatedBy   string
}

// QRService issues session QR codes and validates scans against them
type QRService struct {
	store *repository.Store
	cfg   config.QRConfig
	now   func() time.Time
	log   *zap.Logger
}

func NewQRService(store *repository.Store, cfg config.QRConfig, now func() time.Time, log *zap.Logger) *QRService {
	if now == nil {
		now = time.Now
	}
	return &QRService{
		store: store,
		cfg:   cfg,
		now:   now,
		log:   log.With(zap.String("component", "qr")),
	}
}

// Generate creates a code for one session of a group
func (s *QRService) Generate(ctx context.Context, in GenerateQRInput) (*models.SessionQRCode, error) {
	group, err := s.store.Groups.GetByID(ctx, in.GroupID)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", in.GroupID, err)
	}
	if !group.Active {
		return nil, fmt.Errorf("%w: group is not active", ErrValidation)
	}

	now := s.now().UTC()

	sessionDate := in.SessionDate
	if sessionDate == "" {
		sessionDate = localDate(now, group.Schedule.Timezone)
	} else if _, err := time.Parse(models.DateLayout, sessionDate); err != nil {
		return nil, fmt.Errorf("%w: session date must be YYYY-MM-DD", ErrValidation)
	}

	ttl := in.TTL
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}
	maxUsage := in.MaxUsage
	if maxUsage <= 0 {
		maxUsage = s.cfg.DefaultMaxUsage
	}

	var fence models.Geofence
	if in.Geofence != nil && in.Geofence.Enabled {
		fence = *in.Geofence
		if fence.RadiusMeters <= 0 {
			return nil, fmt.Errorf("%w: geofence radius must be positive", ErrValidation)
		}
		if fence.Latitude == 0 && fence.Longitude == 0 {
			if !group.Location.HasCoordinates() {
				return nil, fmt.Errorf("%w: geofence needs a center and the group has no coordinates", ErrValidation)
			}
			fence.Latitude = group.Location.Latitude
			fence.Longitude = group.Location.Longitude
		}
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	code := &models.SessionQRCode{
		Token:       token,
		GroupID:     group.ID,
		SessionDate: sessionDate,
		ExpiresAt:   now.Add(ttl),
		MaxUsage:    maxUsage,
		Active:      true,
		Geofence:    fence,
	}
	if in.CreatedBy != "" {
		code.CreatedBy = &in.CreatedBy
	}

	if err := s.store.QRCodes.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("create qr code: %w", err)
	}

	s.log.Info("qr code generated",
		zap.String("group_id", group.ID),
		zap.String("session_date", sessionDate),
		zap.Time("expires_at", code.ExpiresAt),
		zap.Int("max_usage", maxUsage),
		zap.Bool("geofence", fence.Enabled))
	return code, nil
}

// ValidateAndUse checks a scanned token and consumes one use of it
func (s *QRService) ValidateAndUse(ctx context.Context, token, userID string, location *geo.Point) (*models.SessionQRCode, error) {
	return s.validateAndUse(ctx, s.store, token, userID, location)
}

func (s *QRService) validateAndUse(ctx context.Context, store *repository.Store, token, userID string, location *geo.Point) (*models.SessionQRCode, error) {
	code, err := store.QRCodes.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !code.Active {
		return nil, ErrNotFound
	}

	switch code.Status(s.now()) {
	case models.QRExpired:
		return nil, ErrQRExpired
	case models.QRExhausted:
		return nil, ErrQRExhausted
	}

	if code.Geofence.Enabled && location != nil {
		center := geo.Point{Latitude: code.Geofence.Latitude, Longitude: code.Geofence.Longitude}
		if !geo.Within(center, *location, code.Geofence.RadiusMeters) {
			s.log.Info("scan outside geofence",
				zap.String("qr_code_id", code.ID),
				zap.String("user_id", userID),
				zap.Float64("distance_m", geo.Distance(center, *location)),
				zap.Float64("radius_m", code.Geofence.RadiusMeters))
			return nil, ErrOutOfRange
		}
	}

	used, err := store.QRCodes.IncrementUsage(ctx, code.ID)
	if err != nil {
		return nil, fmt.Errorf("consume qr use: %w", err)
	}
	if !used {
		return nil, ErrQRExhausted
	}
	code.UsageCount++

	return code, nil
}

// Info returns a code with its derived status
func (s *QRService) Info(ctx context.Context, token string) (models.QRCodeView, error) {
	code, err := s.store.QRCodes.GetByToken(ctx, token)
	if err != nil {
		return models.QRCodeView{}, err
	}
	return models.NewQRCodeView(code, s.now()), nil
}

func (s *QRService) Deactivate(ctx context.Context, id string) error {
	if err := s.store.QRCodes.Deactivate(ctx, id); err != nil {
		return err
	}
	s.log.Info("qr code deactivated", zap.String("qr_code_id", id))
	return nil
}

func (s *QRService) ListByGroup(ctx context.Context, groupID string) ([]models.QRCodeView, error) {
	codes, err := s.store.QRCodes.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]models.QRCodeView, 0, len(codes))
	for i := range codes {
		views = append(views, models.NewQRCodeView(&codes[i], now))
	}
	return views, nil
}

func newToken() (string, error) {
	b := make([]byte, qrTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// localDate formats now as a calendar date in the named zone (UTC when unknown)
func localDate(now time.Time, zone string) string {
	if loc, err := time.LoadLocation(zone); err == nil && zone != "" {
		now = now.In(loc)
	}
	return now.Format(models.DateLayout)
}
