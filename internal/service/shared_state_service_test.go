package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smarthotel-mr/internal/domain"
	"smarthotel-mr/internal/events"
	"smarthotel-mr/internal/repository"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestSharedStateService() (SharedStateService, *fakeClock, *fakePublisher) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	pub := &fakePublisher{}
	store := repository.NewMemoryDocumentStore[domain.SharedState]()
	return NewSharedStateService(store, pub, clock.Now, zap.NewNop()), clock, pub
}

func TestSharedState_GetMissing(t *testing.T) {
	svc, _, _ := newTestSharedStateService()
	_, err := svc.Get(context.Background(), "set-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSharedState_UpdateCreatesThenUpdates(t *testing.T) {
	svc, clock, pub := newTestSharedStateService()
	ctx := context.Background()
	created := clock.t

	st, err := svc.Update(ctx, "set-1", SharedStateUpdate{CurrentSelectedSpace: "F1"})
	require.NoError(t, err)
	assert.Equal(t, created, st.CreatedAt)
	assert.Equal(t, created, st.UpdatedAt)
	assert.NotNil(t, st.ToggledSensorPanels)

	clock.t = clock.t.Add(time.Hour)
	st, err = svc.Update(ctx, "set-1", SharedStateUpdate{
		CurrentSelectedSpace: "R1",
		ToggledSensorPanels:  map[string]bool{"d1": true},
	})
	require.NoError(t, err)
	assert.Equal(t, created, st.CreatedAt)
	assert.Equal(t, clock.t, st.UpdatedAt)

	got, err := svc.Get(ctx, "set-1")
	require.NoError(t, err)
	assert.Equal(t, "R1", got.CurrentSelectedSpace)
	assert.Equal(t, map[string]bool{"d1": true}, got.ToggledSensorPanels)
	assert.True(t, got.CreatedAt.Equal(created))

	assert.Equal(t, []string{events.SharedStateUpdated, events.SharedStateUpdated}, pub.types())
}

func TestSharedState_TogglePanel(t *testing.T) {
	svc, clock, _ := newTestSharedStateService()
	ctx := context.Background()

	_, err := svc.TogglePanel(ctx, "set-1", "d1", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Update(ctx, "set-1", SharedStateUpdate{})
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Minute)
	st, err := svc.TogglePanel(ctx, "set-1", "d1", true)
	require.NoError(t, err)
	assert.True(t, st.ToggledSensorPanels["d1"])
	assert.Equal(t, clock.t, st.UpdatedAt)

	st, err = svc.TogglePanel(ctx, "set-1", "d1", false)
	require.NoError(t, err)
	assert.False(t, st.ToggledSensorPanels["d1"])

	_, err = svc.TogglePanel(ctx, "set-1", "", true)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
