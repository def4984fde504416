package core

import (
	"context"
	"errors"
	"fmt"

	"enrollhub-backend-go/internal/db"
	"enrollhub-backend-go/internal/models"
)

// settingsService implements the SettingsService interface.
type settingsService struct {
	settingsRepo db.SettingsRepository
}

// NewSettingsService creates a new SettingsService instance.
func NewSettingsService(settingsRepo db.SettingsRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo}
}

// Fetch returns the user's settings document, or (nil, nil) when the user
// has never saved any.
func (s *settingsService) Fetch(ctx context.Context, userID string) (*models.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return settings, nil
}

// Save merge-writes a partial settings document: keys present overwrite,
// keys omitted survive. No optimistic-concurrency check; the last writer
// wins, and callers wanting more must layer their own version field.
func (s *settingsService) Save(ctx context.Context, userID string, values map[string]interface{}) error {
	if len(values) == 0 {
		return nil
	}
	if err := s.settingsRepo.Merge(ctx, userID, values); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}
