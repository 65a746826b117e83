package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vasu1712/scenyx-live/internal/models"
	"github.com/Vasu1712/scenyx-live/internal/storage"
)

func TestPresetStoreSeededWithDefault(t *testing.T) {
	s := NewPresetStore()

	p, err := s.Get(context.Background(), models.DefaultPresetID)
	require.NoError(t, err)
	assert.Equal(t, "Default", p.Name)
	assert.True(t, p.Effects.BassReactive)

	_, err = s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPresetStoreGetReturnsCopy(t *testing.T) {
	s := NewPresetStore()
	ctx := context.Background()

	p, err := s.Get(ctx, models.DefaultPresetID)
	require.NoError(t, err)
	p.Name = "mutated"

	again, err := s.Get(ctx, models.DefaultPresetID)
	require.NoError(t, err)
	assert.Equal(t, "Default", again.Name)
}

func TestPresetStoreSaveAndList(t *testing.T) {
	s := NewPresetStore()
	ctx := context.Background()

	neon := &models.Preset{Name: "Neon", Type: models.PresetTypeParticle, IsPublic: true}
	require.NoError(t, s.Save(ctx, neon))
	assert.NotEmpty(t, neon.ID)
	assert.False(t, neon.CreatedAt.IsZero())

	private := &models.Preset{ID: "mine", Name: "Mine"}
	require.NoError(t, s.Save(ctx, private))

	require.NoError(t, s.IncrementUsage(ctx, neon.ID))
	require.NoError(t, s.IncrementUsage(ctx, neon.ID))
	require.NoError(t, s.IncrementUsage(ctx, models.DefaultPresetID))

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, neon.ID, list[0].ID)
	assert.Equal(t, int64(2), list[0].UsageCount)
	assert.Equal(t, models.DefaultPresetID, list[1].ID)

	list, err = s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, s.IncrementUsage(ctx, "ghost"), storage.ErrNotFound)
}
