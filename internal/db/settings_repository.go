package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"enrollhub-backend-go/internal/models"
)

const settingsCollection = "settings"

// firestoreSettingsRepository implements SettingsRepository using Firestore.
type firestoreSettingsRepository struct {
	client *firestore.Client
}

// NewFirestoreSettingsRepository creates a new instance of firestoreSettingsRepository.
func NewFirestoreSettingsRepository(client *firestore.Client) SettingsRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SettingsRepository.")
	}
	return &firestoreSettingsRepository{client: client}
}

// Get retrieves the settings document for a user. ErrNotFound when the user
// has never saved settings.
func (r *firestoreSettingsRepository) Get(ctx context.Context, userID string) (*models.Settings, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for Get operation")
	}
	docSnap, err := r.client.Collection(settingsCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("settings for user '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get settings for user '%s': %w", userID, err)
	}

	var settings models.Settings
	if err := docSnap.DataTo(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings data for user '%s': %w", userID, err)
	}
	settings.UserID = docSnap.Ref.ID

	return &settings, nil
}

// Merge writes only the provided keys into the settings document. Set with
// MergeAll merges nested map fields, so keys omitted from values are left
// untouched. There is no version check; last writer wins.
func (r *firestoreSettingsRepository) Merge(ctx context.Context, userID string, values map[string]interface{}) error {
	if userID == "" {
		return errors.New("userID cannot be empty for Merge operation")
	}
	_, err := r.client.Collection(settingsCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"values": values,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to merge settings for user '%s': %w", userID, err)
	}
	return nil
}
