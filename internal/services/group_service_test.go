package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yogastudio/internal/models"
)

func groupRequest() models.GroupRequest {
	return models.GroupRequest{
		Name:     "  Vinyasa Basics ",
		Capacity: 1,
		Schedule: models.Schedule{
			Days:      []string{"mon", "Wed"},
			StartTime: "18:30",
			EndTime:   "19:30",
			StartDate: "2024-01-01",
		},
		Location: studio,
	}
}

func TestGroupServiceCreate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewGroupService(store, nil, nopLogger())

	group, err := svc.Create(ctx, groupRequest())
	require.NoError(t, err)
	assert.Equal(t, "Vinyasa Basics", group.Name)
	assert.Equal(t, models.LevelAll, group.Level)
	assert.Equal(t, "UTC", group.Schedule.Timezone)
	assert.True(t, group.Active)

	bad := groupRequest()
	bad.Schedule.Days = []string{"Someday"}
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, ErrValidation)

	online := groupRequest()
	online.Location = models.Location{Type: models.LocationOnline}
	_, err = svc.Create(ctx, online)
	assert.ErrorIs(t, err, ErrValidation)

	missing := "5b0c3c8e-0000-4000-8000-000000000000"
	withInstructor := groupRequest()
	withInstructor.InstructorID = &missing
	_, err = svc.Create(ctx, withInstructor)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGroupServiceUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewGroupService(store, nil, nopLogger())

	group, err := svc.Create(ctx, groupRequest())
	require.NoError(t, err)

	inactive := false
	req := groupRequest()
	req.Name = "Evening Vinyasa"
	req.Active = &inactive
	updated, err := svc.Update(ctx, group.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Evening Vinyasa", updated.Name)
	assert.False(t, updated.Active)

	_, err = svc.Update(ctx, "0d5e6f70-0000-4000-8000-000000000000", req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupServiceMembershipCapacity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewGroupService(store, nil, nopLogger())
	group, err := svc.Create(ctx, groupRequest())
	require.NoError(t, err)

	a := seedUser(t, store, "lea@example.com")
	b := seedUser(t, store, "max@example.com")

	_, err = svc.AddMember(ctx, group.ID, a.ID)
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, group.ID, a.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.AddMember(ctx, group.ID, b.ID)
	assert.ErrorIs(t, err, ErrValidation, "capacity of one is taken")

	_, err = svc.UpdateMemberStatus(ctx, group.ID, a.ID, models.MemberPaused)
	require.NoError(t, err)

	member, err := svc.AddMember(ctx, group.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberActive, member.Status)

	require.NoError(t, svc.RemoveMember(ctx, group.ID, b.ID))
	assert.ErrorIs(t, svc.RemoveMember(ctx, group.ID, b.ID), ErrNotFound)
}
