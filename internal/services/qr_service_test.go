package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yogastudio/internal/geo"
	"yogastudio/internal/models"
)

var qrNow = time.Date(2024, 6, 3, 5, 50, 0, 0, time.UTC)

func TestGenerateAppliesDefaults(t *testing.T) {
	store := newTestStore(t)
	group := seedGroup(t, store, mondaySchedule(), studio)
	svc := NewQRService(store, testQRConfig(), fixedClock(qrNow), nopLogger())

	code, err := svc.Generate(context.Background(), GenerateQRInput{GroupID: group.ID, CreatedBy: "admin"})
	require.NoError(t, err)

	assert.Len(t, code.Token, 64)
	assert.Equal(t, "2024-06-03", code.SessionDate)
	assert.Equal(t, qrNow.Add(30*time.Minute), code.ExpiresAt)
	assert.Equal(t, 100, code.MaxUsage)
	assert.True(t, code.Active)
	assert.False(t, code.Geofence.Enabled)
}

func TestGenerateGeofenceUsesStudioCoordinates(t *testing.T) {
	store := newTestStore(t)
	group := seedGroup(t, store, mondaySchedule(), studio)
	svc := NewQRService(store, testQRConfig(), fixedClock(qrNow), nopLogger())

	code, err := svc.Generate(context.Background(), GenerateQRInput{
		GroupID:  group.ID,
		Geofence: &models.Geofence{Enabled: true, RadiusMeters: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, studio.Latitude, code.Geofence.Latitude)
	assert.Equal(t, studio.Longitude, code.Geofence.Longitude)

	_, err = svc.Generate(context.Background(), GenerateQRInput{
		GroupID:  group.ID,
		Geofence: &models.Geofence{Enabled: true},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGenerateUnknownGroup(t *testing.T) {
	store := newTestStore(t)
	svc := NewQRService(store, testQRConfig(), fixedClock(qrNow), nopLogger())

	_, err := svc.Generate(context.Background(), GenerateQRInput{GroupID: "7f8b3c1e-0000-4000-8000-000000000000"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateAndUse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	group := seedGroup(t, store, mondaySchedule(), studio)
	center := geo.Point{Latitude: studio.Latitude, Longitude: studio.Longitude}

	newCode := func(t *testing.T, mutate func(*models.SessionQRCode)) *models.SessionQRCode {
		t.Helper()
		code := &models.SessionQRCode{
			Token:       t.Name(),
			GroupID:     group.ID,
			SessionDate: "2024-06-03",
			ExpiresAt:   qrNow.Add(time.Hour),
			MaxUsage:    5,
			Active:      true,
		}
		if mutate != nil {
			mutate(code)
		}
		require.NoError(t, store.QRCodes.Create(ctx, code))
		return code
	}

	svc := NewQRService(store, testQRConfig(), fixedClock(qrNow), nopLogger())

	t.Run("consumes one use", func(t *testing.T) {
		code := newCode(t, nil)
		used, err := svc.ValidateAndUse(ctx, code.Token, "u1", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, used.UsageCount)

		stored, err := store.QRCodes.GetByID(ctx, code.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.UsageCount)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.ValidateAndUse(ctx, "nope", "u1", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("inactive", func(t *testing.T) {
		code := newCode(t, nil)
		require.NoError(t, svc.Deactivate(ctx, code.ID))
		_, err := svc.ValidateAndUse(ctx, code.Token, "u1", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		code := newCode(t, func(c *models.SessionQRCode) { c.ExpiresAt = qrNow })
		_, err := svc.ValidateAndUse(ctx, code.Token, "u1", nil)
		assert.ErrorIs(t, err, ErrQRExpired)
	})

	t.Run("exhausted before expiry", func(t *testing.T) {
		code := newCode(t, func(c *models.SessionQRCode) { c.UsageCount = 5 })
		_, err := svc.ValidateAndUse(ctx, code.Token, "u1", nil)
		assert.ErrorIs(t, err, ErrQRExhausted)
	})

	t.Run("last use then exhausted", func(t *testing.T) {
		code := newCode(t, func(c *models.SessionQRCode) { c.MaxUsage = 1 })
		_, err := svc.ValidateAndUse(ctx, code.Token, "u1", nil)
		require.NoError(t, err)
		_, err = svc.ValidateAndUse(ctx, code.Token, "u2", nil)
		assert.ErrorIs(t, err, ErrQRExhausted)
	})

	t.Run("geofence", func(t *testing.T) {
		code := newCode(t, func(c *models.SessionQRCode) {
			c.Geofence = models.Geofence{
				Enabled:      true,
				Latitude:     center.Latitude,
				Longitude:    center.Longitude,
				RadiusMeters: 100,
			}
		})

		far := offsetNorth(center, 500)
		_, err := svc.ValidateAndUse(ctx, code.Token, "u1", &far)
		assert.ErrorIs(t, err, ErrOutOfRange)

		near := offsetNorth(center, 50)
		_, err = svc.ValidateAndUse(ctx, code.Token, "u1", &near)
		assert.NoError(t, err)

		_, err = svc.ValidateAndUse(ctx, code.Token, "u2", nil)
		assert.NoError(t, err, "scans without a location skip the geofence")
	})
}

func TestInfoReportsStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	group := seedGroup(t, store, mondaySchedule(), studio)
	svc := NewQRService(store, testQRConfig(), fixedClock(qrNow), nopLogger())

	code, err := svc.Generate(ctx, GenerateQRInput{GroupID: group.ID, MaxUsage: 2})
	require.NoError(t, err)

	view, err := svc.Info(ctx, code.Token)
	require.NoError(t, err)
	assert.Equal(t, models.QRActive, view.Status)
	assert.True(t, view.IsValid)
	assert.Equal(t, 2, view.RemainingUses)

	later := NewQRService(store, testQRConfig(), fixedClock(qrNow.Add(time.Hour)), nopLogger())
	view, err = later.Info(ctx, code.Token)
	require.NoError(t, err)
	assert.Equal(t, models.QRExpired, view.Status)
	assert.False(t, view.IsValid)

	views, err := svc.ListByGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}
