package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Vasu1712/scenyx-live/internal/models"
	"github.com/Vasu1712/scenyx-live/internal/storage"
)

// setupInMemoryDB creates a throwaway SQLite database per test.
func setupInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Open("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestPresetStoreGet(t *testing.T) {
	s := NewPresetStore(setupInMemoryDB(t))
	ctx := context.Background()

	require.NoError(t, s.EnsureDefault(ctx))
	require.NoError(t, s.EnsureDefault(ctx))

	p, err := s.Get(ctx, models.DefaultPresetID)
	require.NoError(t, err)
	assert.Equal(t, "Default", p.Name)
	assert.True(t, p.Effects.BassReactive)
	assert.Equal(t, 1.0, p.Settings.Intensity)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPresetStoreSaveRoundTripsSerializedFields(t *testing.T) {
	s := NewPresetStore(setupInMemoryDB(t))
	ctx := context.Background()

	p := &models.Preset{
		Name:     "Aurora",
		Type:     models.PresetType3D,
		Colors:   models.PresetColors{Primary: "#112233", Accent: []string{"#FF0000", "#00FF00"}},
		Settings: models.PresetSettings{Intensity: 0.4},
		Tags:     []string{"calm", "ambient"},
		IsPublic: true,
	}
	require.NoError(t, s.Save(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"#FF0000", "#00FF00"}, got.Colors.Accent)
	assert.Equal(t, []string{"calm", "ambient"}, got.Tags)
	assert.Equal(t, 0.4, got.Settings.Intensity)
}

func TestPresetStoreIncrementUsageAndList(t *testing.T) {
	s := NewPresetStore(setupInMemoryDB(t))
	ctx := context.Background()
	require.NoError(t, s.EnsureDefault(ctx))

	hot := &models.Preset{ID: "hot", Name: "Hot", IsPublic: true}
	hidden := &models.Preset{ID: "hidden", Name: "Hidden"}
	require.NoError(t, s.Save(ctx, hot))
	require.NoError(t, s.Save(ctx, hidden))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.IncrementUsage(ctx, "hot"))
	}
	require.NoError(t, s.IncrementUsage(ctx, models.DefaultPresetID))
	assert.ErrorIs(t, s.IncrementUsage(ctx, "ghost"), storage.ErrNotFound)

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hot", list[0].ID)
	assert.Equal(t, int64(3), list[0].UsageCount)
	assert.Equal(t, models.DefaultPresetID, list[1].ID)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "")
	assert.Error(t, err)
}
