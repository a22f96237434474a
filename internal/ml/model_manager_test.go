package ml

import (
	"context"
	"testing"
	"time"

	"burnout-risk/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewRegistry(store)
}

func TestRegistry_RegisterActivateRollback(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Active()
	require.ErrorIs(t, err, storage.ErrNotFound)

	older := trainedArtifact(6)
	older.CreatedAt = time.Now().Add(-time.Hour).UTC()
	newer := trainedArtifact(8)

	require.NoError(t, reg.Register(older))
	require.NoError(t, reg.Register(newer))
	require.NoError(t, reg.Activate(newer.Version))

	active, err := reg.Active()
	require.NoError(t, err)
	assert.Equal(t, newer.Version, active.Version)

	versions, err := reg.List()
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, newer.Version, versions[0].Version)
	assert.True(t, versions[0].IsActive)
	assert.False(t, versions[1].IsActive)

	prev, err := reg.Rollback()
	require.NoError(t, err)
	assert.Equal(t, older.Version, prev.Version)

	_, err = reg.Rollback()
	assert.Error(t, err, "nothing older than the oldest version")
}

func TestRegistry_ActivateUnknown(t *testing.T) {
	reg := newTestRegistry(t)
	assert.ErrorIs(t, reg.Activate("nope"), storage.ErrNotFound)
}

func TestRegistry_RecordRun(t *testing.T) {
	reg := newTestRegistry(t)

	table, labels := syntheticTable(6)
	trained, err := Train(context.Background(), table, labels, TrainOptions{})
	require.NoError(t, err)

	for i := range labels {
		labels[i].CloseToBurnout = false
	}
	skipped, err := Train(context.Background(), table, labels, TrainOptions{})
	require.NoError(t, err)
	skipped.StartedAt = trained.StartedAt.Add(time.Second)

	require.NoError(t, reg.RecordRun(trained))
	require.NoError(t, reg.RecordRun(skipped))

	runs, err := reg.Runs(time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, string(StatusTrained), runs[0].Status)
	assert.Equal(t, trained.Artifact.Version, runs[0].Version)
	assert.Equal(t, string(StatusSkipped), runs[1].Status)
	assert.Equal(t, ReasonInsufficientClasses, runs[1].Reason)
	assert.Empty(t, runs[1].Version)
}
