package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yogastudio/internal/models"
	"yogastudio/internal/repository"
)

func TestDispatcherPrunesInvalidTokens(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := seedUser(t, store, "eve@example.com", "good", "gone", "flaky")

	pusher := &fakePusher{
		invalid: map[string]bool{"gone": true},
		failing: map[string]bool{"flaky": true},
	}
	d := NewDispatcher(store, pusher, nopLogger())

	result, err := d.Send(ctx, user.ID, "Hello", "Body", map[string]string{"k": "v"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, 1, result.Pruned)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.Recorded)

	reloaded, err := store.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"good", "flaky"}, []string(reloaded.DeviceTokens))

	inbox, total, err := store.Notifications.ListForUser(ctx, user.ID, repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Hello", inbox[0].Title)
	assert.Equal(t, "v", inbox[0].Data["k"])
	assert.Equal(t, 1, inbox[0].Delivered)
}

func TestDispatcherFallsBackWithoutTokens(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := seedUser(t, store, "finn@example.com")
	pusher := &fakePusher{}
	d := NewDispatcher(store, pusher, nopLogger())

	var emailed *models.User
	result, err := d.Send(ctx, user.ID, "Hi", "Body", nil, func(_ context.Context, u *models.User) error {
		emailed = u
		return nil
	})
	require.NoError(t, err)
	assert.True(t, result.Emailed)
	require.NotNil(t, emailed)
	assert.Equal(t, user.Email, emailed.Email)
	assert.Zero(t, pusher.count())
}

func TestDispatcherUnknownUser(t *testing.T) {
	store := newTestStore(t)
	d := NewDispatcher(store, &fakePusher{}, nopLogger())

	_, err := d.Send(context.Background(), "missing", "t", "b", nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
