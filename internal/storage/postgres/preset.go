package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Vasu1712/scenyx-live/internal/models"
	"github.com/Vasu1712/scenyx-live/internal/storage"
)

// PresetStore implements storage.PresetStore with gorm.
type PresetStore struct {
	db *gorm.DB
}

func NewPresetStore(db *gorm.DB) *PresetStore {
	return &PresetStore{db: db}
}

// EnsureDefault inserts the built-in default preset if it is missing.
func (s *PresetStore) EnsureDefault(ctx context.Context) error {
	def := models.DefaultPreset()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&def).Error
	if err != nil {
		return fmt.Errorf("failed to seed default preset: %w", err)
	}
	return nil
}

func (s *PresetStore) Get(ctx context.Context, id string) (*models.Preset, error) {
	var p models.Preset
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load preset %s: %w", id, err)
	}
	return &p, nil
}

// List returns public presets ordered by usage, most used first.
func (s *PresetStore) List(ctx context.Context, limit int) ([]models.Preset, error) {
	q := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("usage_count DESC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var presets []models.Preset
	if err := q.Find(&presets).Error; err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	return presets, nil
}

func (s *PresetStore) Save(ctx context.Context, preset *models.Preset) error {
	if preset.ID == "" {
		preset.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Save(preset).Error; err != nil {
		return fmt.Errorf("failed to save preset %s: %w", preset.ID, err)
	}
	return nil
}

// IncrementUsage bumps usage_count atomically in the database.
func (s *PresetStore) IncrementUsage(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Preset{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment usage of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
