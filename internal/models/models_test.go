package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionQRCode_Status(t *testing.T) {
	now := time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		code SessionQRCode
		want QRStatus
	}{
		{"active", SessionQRCode{Active: true, ExpiresAt: now.Add(time.Minute), MaxUsage: 2}, QRActive},
		{"inactive", SessionQRCode{Active: false, ExpiresAt: now.Add(time.Minute), MaxUsage: 2}, QRInactive},
		{"expired at boundary", SessionQRCode{Active: true, ExpiresAt: now, MaxUsage: 2}, QRExpired},
		{"exhausted", SessionQRCode{Active: true, ExpiresAt: now.Add(time.Hour), UsageCount: 2, MaxUsage: 2}, QRExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.Status(now))
			assert.Equal(t, tt.want == QRActive, tt.code.IsValid(now))
		})
	}
}

func TestSessionQRCode_RemainingUses(t *testing.T) {
	assert.Equal(t, 3, (&SessionQRCode{UsageCount: 2, MaxUsage: 5}).RemainingUses())
	assert.Equal(t, 0, (&SessionQRCode{UsageCount: 7, MaxUsage: 5}).RemainingUses())
}

func TestAttendance_ActualDuration(t *testing.T) {
	in := time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC)
	out := in.Add(75 * time.Minute)

	a := Attendance{CheckedInAt: in}
	assert.Zero(t, a.ActualDuration())

	a.CheckOutAt = &out
	assert.Equal(t, 75*time.Minute, a.ActualDuration())

	early := in.Add(-time.Minute)
	a.CheckOutAt = &early
	assert.Zero(t, a.ActualDuration())
}

func TestJSONColumns_ScanBytesAndString(t *testing.T) {
	var s Schedule
	require.NoError(t, s.Scan([]byte(`{"days":["Monday"],"start_time":"06:00","start_date":"2024-01-01"}`)))
	assert.Equal(t, []string{"Monday"}, s.Days)

	var l Location
	require.NoError(t, l.Scan(`{"type":"studio","latitude":51.5,"longitude":-0.12}`))
	assert.True(t, l.HasCoordinates())

	var list StringList
	require.NoError(t, list.Scan(nil))
	assert.NotNil(t, list)
	assert.Empty(t, list)

	assert.Error(t, list.Scan(42))
}

func TestStringList_Value(t *testing.T) {
	v, err := StringList{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
	assert.True(t, StringList{"x"}.Contains("x"))
}

func TestRole_IsStaff(t *testing.T) {
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleInstructor.IsStaff())
	assert.False(t, RoleMember.IsStaff())
}

func TestSessionKey(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	occ := time.Date(2024, 6, 3, 8, 0, 0, 0, loc)
	assert.Equal(t, "2024-06-03T06:00:00Z", SessionKey(occ))
}
