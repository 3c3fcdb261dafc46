package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yogastudio/internal/auth"
	"yogastudio/internal/config"
	"yogastudio/internal/models"
	"yogastudio/internal/repository"
	"yogastudio/internal/services"
	"yogastudio/internal/testutil"
)

type testServer struct {
	router *gin.Engine
	store  *repository.Store
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithAdmin(t, "")
}

func newTestServerWithAdmin(t *testing.T, adminEmail string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	store := repository.NewStore(testutil.NewDB(t))
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	qrCfg := config.QRConfig{DefaultTTL: 30 * time.Minute, DefaultMaxUsage: 100, ScanLimit: 10}

	email := services.NewEmailService(services.NewNoopMailer(log))
	dispatcher := services.NewDispatcher(store, services.NewNoopPusher(log), log)
	qr := services.NewQRService(store, qrCfg, time.Now, log)

	h := New(Deps{
		Store:      store,
		Tokens:     tokens,
		Groups:     services.NewGroupService(store, nil, log),
		Attendance: services.NewAttendanceService(store, qr, time.Now, log),
		QR:         qr,
		Reminders:  services.NewReminderScheduler(store, dispatcher, email, 15*time.Minute, time.Now, log),
		Email:      email,
		Log:        log,
		AdminEmail: adminEmail,
	})

	router := gin.New()
	h.RegisterRoutes(router, RouteOptions{})
	return &testServer{router: router, store: store, tokens: tokens}
}

func (s *testServer) user(t *testing.T, email string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := auth.HashPassword("namaste123")
	require.NoError(t, err)
	user := &models.User{Email: email, PasswordHash: hash, FirstName: "Test", Role: role, Active: true}
	require.NoError(t, s.store.Users.Create(context.Background(), user))
	token, err := s.tokens.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func groupBody() gin.H {
	return gin.H{
		"name":     "Sunrise Hatha",
		"capacity": 10,
		"schedule": gin.H{
			"days":       []string{"Monday", "Wednesday", "Friday"},
			"start_time": "06:00",
			"end_time":   "07:00",
			"start_date": "2024-01-01",
		},
		"location": gin.H{"type": "studio", "name": "Main Studio", "latitude": 52.52, "longitude": 13.405},
	}
}

func (s *testServer) createGroup(t *testing.T, adminToken string) models.Group {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/groups", adminToken, groupBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var group models.Group
	decode(t, w, &group)
	return group
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", services.ErrConflict), http.StatusBadRequest},
		{services.ErrQRExpired, http.StatusBadRequest},
		{services.ErrQRExhausted, http.StatusBadRequest},
		{services.ErrOutOfRange, http.StatusBadRequest},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{repository.ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestHealthAndHome(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	w = s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)

	body := gin.H{"email": "Asha@Example.com", "password": "namaste123", "first_name": "Asha"}
	w := s.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "asha@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "asha@example.com", "password": "namaste123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, models.RoleMember, login.User.Role)
	assert.NotEmpty(t, w.Result().Cookies())

	w = s.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decode(t, w, &me)
	assert.Equal(t, "asha@example.com", me.Email)

	w = s.do(t, http.MethodPost, "/api/auth/device-tokens", login.Token, gin.H{"token": "device-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	stored, err := s.store.Users.GetByID(context.Background(), me.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"device-1"}, []string(stored.DeviceTokens))
}

func TestRegisterBootstrapAdmin(t *testing.T) {
	s := newTestServerWithAdmin(t, "Owner@Studio.example")

	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "owner@studio.example", "password": "namaste123", "first_name": "Rae"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var owner struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, w, &owner)
	assert.Equal(t, models.RoleAdmin, owner.User.Role)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/users", owner.Token, nil).Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "guest@studio.example", "password": "namaste123", "first_name": "Sam"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var guest struct {
		User models.User `json:"user"`
	}
	decode(t, w, &guest)
	assert.Equal(t, models.RoleMember, guest.User.Role)
}

func TestUserPermissions(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@example.com", models.RoleAdmin)
	member, memberToken := s.user(t, "m@example.com", models.RoleMember)
	other, _ := s.user(t, "o@example.com", models.RoleMember)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/users", memberToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/users", adminToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/users/"+member.ID, memberToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/users/"+other.ID, memberToken, nil).Code)

	w := s.do(t, http.MethodPut, "/api/users/"+member.ID, memberToken, gin.H{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code, "members cannot promote themselves")

	w = s.do(t, http.MethodPut, "/api/users/"+member.ID, memberToken, gin.H{"phone": "555-0100"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/users/"+other.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	stored, err := s.store.Users.GetByID(context.Background(), other.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestGroupLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@example.com", models.RoleAdmin)
	member, memberToken := s.user(t, "m@example.com", models.RoleMember)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/groups", memberToken, groupBody()).Code)

	bad := groupBody()
	bad["schedule"].(gin.H)["days"] = []string{"Blursday"}
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/groups", adminToken, bad).Code)

	group := s.createGroup(t, adminToken)
	assert.Equal(t, "UTC", group.Schedule.Timezone)

	w := s.do(t, http.MethodPost, "/api/groups/"+group.ID+"/members", memberToken, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/groups/"+group.ID+"/members", memberToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/groups/"+group.ID+"/members", memberToken, nil).Code)
	w = s.do(t, http.MethodGet, "/api/groups/"+group.ID+"/members", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members struct {
		Total int `json:"total"`
	}
	decode(t, w, &members)
	assert.Equal(t, 1, members.Total)

	w = s.do(t, http.MethodPatch, "/api/groups/"+group.ID+"/members/"+member.ID, adminToken, gin.H{"status": "paused"})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/groups/"+group.ID+"/members/"+member.ID, memberToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/groups/"+group.ID, adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/groups/"+group.ID, adminToken, nil).Code)
}

func TestJoinGroupWithoutBody(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@example.com", models.RoleAdmin)
	member, memberToken := s.user(t, "m@example.com", models.RoleMember)
	group := s.createGroup(t, adminToken)

	w := s.do(t, http.MethodPost, "/api/groups/"+group.ID+"/members", memberToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var joined models.GroupMember
	decode(t, w, &joined)
	assert.Equal(t, member.ID, joined.UserID)

	w = s.do(t, http.MethodPost, "/api/groups/"+group.ID+"/members", memberToken, "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code, "malformed bodies are still rejected")
}

func TestQRCheckInFlow(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@example.com", models.RoleAdmin)
	_, memberToken := s.user(t, "m@example.com", models.RoleMember)
	group := s.createGroup(t, adminToken)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/groups/"+group.ID+"/members", memberToken, gin.H{}).Code)

	assert.Equal(t, http.StatusForbidden,
		s.do(t, http.MethodPost, "/api/qr/generate", memberToken, gin.H{"group_id": group.ID}).Code)

	w := s.do(t, http.MethodPost, "/api/qr/generate", adminToken, gin.H{
		"group_id":    group.ID,
		"ttl_minutes": 10,
		"geofence":    gin.H{"enabled": true, "radius_meters": 100},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var code models.QRCodeView
	decode(t, w, &code)
	assert.Equal(t, models.QRActive, code.Status)

	w = s.do(t, http.MethodPost, "/api/qr/scan", memberToken, gin.H{"token": code.Token, "latitude": 52.5245, "longitude": 13.405})
	assert.Equal(t, http.StatusBadRequest, w.Code, "about 500m away")

	w = s.do(t, http.MethodPost, "/api/qr/scan", memberToken, gin.H{"token": code.Token, "latitude": 52.5204, "longitude": 13.405})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/qr/scan", memberToken, gin.H{"token": code.Token})
	assert.Equal(t, http.StatusBadRequest, w.Code, "second check-in for the same day")

	w = s.do(t, http.MethodGet, "/api/attendance/me", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &mine)
	assert.EqualValues(t, 1, mine.Total)

	w = s.do(t, http.MethodGet, "/api/qr/"+code.Token, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info models.QRCodeView
	decode(t, w, &info)
	assert.Equal(t, 1, info.UsageCount)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/api/qr/"+code.ID+"/deactivate", adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/qr/scan", memberToken, gin.H{"token": code.Token}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/qr/scan", memberToken, gin.H{"token": "unknown"}).Code)
}

func TestManualAttendance(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@example.com", models.RoleAdmin)
	member, memberToken := s.user(t, "m@example.com", models.RoleMember)
	group := s.createGroup(t, adminToken)

	body := gin.H{"user_id": member.ID, "group_id": group.ID, "session_date": "2024-06-03"}
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/attendance", adminToken, body).Code, "not a member yet")

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/groups/"+group.ID+"/members", memberToken, gin.H{}).Code)

	w := s.do(t, http.MethodPost, "/api/attendance", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var record models.Attendance
	decode(t, w, &record)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/attendance", adminToken, body).Code)

	w = s.do(t, http.MethodPatch, "/api/attendance/"+record.ID, adminToken, gin.H{"status": "late"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/attendance?group_id="+group.ID+"&status=late", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &list)
	assert.EqualValues(t, 1, list.Total)
}

func TestScheduleEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@example.com", models.RoleAdmin)
	_, memberToken := s.user(t, "m@example.com", models.RoleMember)
	group := s.createGroup(t, adminToken)

	w := s.do(t, http.MethodGet, "/api/schedule?from=2024-06-03&to=2024-06-10", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Sessions []sessionView `json:"sessions"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Sessions, 3)
	assert.Equal(t, time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC), resp.Sessions[0].StartsAt)
	require.NotNil(t, resp.Sessions[0].EndsAt)
	assert.Equal(t, time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC), *resp.Sessions[0].EndsAt)

	w = s.do(t, http.MethodGet, "/api/schedule/groups/"+group.ID+"?from=2024-06-04T00:00:00Z&to=2024-06-05T00:00:00Z", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Empty(t, resp.Sessions, "nothing on a Tuesday")

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/schedule?from=2024-01-01&to=2024-06-01", memberToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/schedule?from=yesterday", memberToken, nil).Code)
}

func TestHealthForms(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@example.com", models.RoleAdmin)
	_, memberToken := s.user(t, "m@example.com", models.RoleMember)
	_, otherToken := s.user(t, "o@example.com", models.RoleMember)

	body := gin.H{
		"conditions":              []string{"asthma"},
		"emergency_contact_name":  "Ravi",
		"emergency_contact_phone": "555-0101",
		"answers":                 gin.H{"experience": "beginner"},
	}
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/health/forms", memberToken, body).Code, "consent required")

	body["consent"] = true
	w := s.do(t, http.MethodPost, "/api/health/forms", memberToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var form models.HealthForm
	decode(t, w, &form)
	assert.Equal(t, models.HealthFormSubmitted, form.Status)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/health/forms/"+form.ID, memberToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/health/forms/"+form.ID, otherToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/health/forms", memberToken, nil).Code)

	w = s.do(t, http.MethodPut, "/api/health/forms/"+form.ID+"/review", adminToken, gin.H{"notes": "cleared"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &form)
	assert.Equal(t, models.HealthFormReviewed, form.Status)
	assert.Equal(t, "cleared", form.ReviewNotes)

	w = s.do(t, http.MethodGet, "/api/health/forms?status=reviewed", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &list)
	assert.EqualValues(t, 1, list.Total)
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@example.com", models.RoleAdmin)
	_, memberToken := s.user(t, "m@example.com", models.RoleMember)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/admin/stats", memberToken, nil).Code)

	w := s.do(t, http.MethodPost, "/api/admin/instructors", adminToken, gin.H{"name": "Maya", "specialties": []string{"yin"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var instructor models.Instructor
	decode(t, w, &instructor)
	assert.True(t, instructor.Active)

	w = s.do(t, http.MethodPut, "/api/admin/instructors/"+instructor.ID, adminToken, gin.H{"name": "Maya R", "active": false})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &instructor)
	assert.False(t, instructor.Active)

	w = s.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]interface{}
	decode(t, w, &stats)
	assert.EqualValues(t, 2, stats["active_users"])

	w = s.do(t, http.MethodPost, "/api/admin/reminders/run", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/admin/instructors/"+instructor.ID, adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/admin/instructors/"+instructor.ID, adminToken, nil).Code)
}
