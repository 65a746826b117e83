package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/models"
	"github.com/Vasu1712/scenyx-live/internal/storage"
)

// PresetStore keeps presets in memory. It is seeded with the default preset.
type PresetStore struct {
	mu      sync.RWMutex
	presets map[string]*models.Preset
}

func NewPresetStore(seed ...models.Preset) *PresetStore {
	s := &PresetStore{presets: make(map[string]*models.Preset)}

	def := models.DefaultPreset()
	now := time.Now().UTC()
	def.CreatedAt, def.UpdatedAt = now, now
	s.presets[def.ID] = &def

	for i := range seed {
		p := seed[i]
		s.presets[p.ID] = &p
	}
	return s
}

// Get returns a copy of the preset with the given ID.
func (s *PresetStore) Get(ctx context.Context, id string) (*models.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presets[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// List returns public presets, most used first.
func (s *PresetStore) List(ctx context.Context, limit int) ([]models.Preset, error) {
	s.mu.RLock()
	out := make([]models.Preset, 0, len(s.presets))
	for _, p := range s.presets {
		if p.IsPublic {
			out = append(out, *p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Save inserts or replaces a preset. An empty ID gets a generated one.
func (s *PresetStore) Save(ctx context.Context, preset *models.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if preset.ID == "" {
		preset.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if preset.CreatedAt.IsZero() {
		preset.CreatedAt = now
	}
	preset.UpdatedAt = now

	cp := *preset
	s.presets[cp.ID] = &cp

	logrus.WithFields(logrus.Fields{
		"function":  "Save",
		"preset_id": cp.ID,
	}).Debug("Preset saved")
	return nil
}

func (s *PresetStore) IncrementUsage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.presets[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.UsageCount++
	return nil
}
