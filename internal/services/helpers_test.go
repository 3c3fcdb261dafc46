package services

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yogastudio/internal/config"
	"yogastudio/internal/geo"
	"yogastudio/internal/models"
	"yogastudio/internal/repository"
	"yogastudio/internal/testutil"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakePusher struct {
	mu      sync.Mutex
	sent    []PushMessage
	invalid map[string]bool
	failing map[string]bool
}

func (p *fakePusher) Send(_ context.Context, msg PushMessage) (PushResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)

	var result PushResult
	for _, tok := range msg.Tokens {
		switch {
		case p.invalid[tok]:
			result.Invalid = append(result.Invalid, tok)
		case p.failing[tok]:
			result.Failed = append(result.Failed, tok)
		default:
			result.Sent++
		}
	}
	return result, nil
}

func (p *fakePusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type sentMail struct {
	to      string
	subject string
	html    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Enabled() bool { return true }

func (m *fakeMailer) Send(_ context.Context, toEmail, _, subject, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: toEmail, subject: subject, html: body})
	return nil
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	return repository.NewStore(testutil.NewDB(t))
}

func testQRConfig() config.QRConfig {
	return config.QRConfig{DefaultTTL: 30 * time.Minute, DefaultMaxUsage: 100, ScanLimit: 10}
}

func seedUser(t *testing.T, store *repository.Store, email string, tokens ...string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		Role:         models.RoleMember,
		Active:       true,
		DeviceTokens: models.StringList(tokens),
	}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

func seedGroup(t *testing.T, store *repository.Store, sched models.Schedule, loc models.Location) *models.Group {
	t.Helper()
	group := &models.Group{
		Name:     "Morning Flow",
		Level:    models.LevelAll,
		Capacity: 20,
		Active:   true,
		Schedule: sched,
		Location: loc,
	}
	require.NoError(t, store.Groups.Create(context.Background(), group))
	return group
}

func seedMember(t *testing.T, store *repository.Store, groupID, userID string) {
	t.Helper()
	require.NoError(t, store.Members.Add(context.Background(), &models.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Status:  models.MemberActive,
	}))
}

func mondaySchedule() models.Schedule {
	return models.Schedule{
		Days:      []string{"Monday"},
		StartTime: "06:00",
		EndTime:   "07:00",
		StartDate: "2024-01-01",
		EndDate:   "2024-12-31",
		Timezone:  "UTC",
	}
}

var studio = models.Location{
	Type:      models.LocationStudio,
	Name:      "Main Studio",
	Latitude:  52.5200,
	Longitude: 13.4050,
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

// offsetNorth returns the point the given number of meters due north of p
func offsetNorth(p geo.Point, meters float64) geo.Point {
	return geo.Point{
		Latitude:  p.Latitude + (meters/geo.EarthRadiusMeters)*180/math.Pi,
		Longitude: p.Longitude,
	}
}
