package db

import (
	"context"

	"enrollhub-backend-go/internal/models"
)

// EnrollmentRepository defines the interface for enrollment record storage.
type EnrollmentRepository interface {
	GetByID(ctx context.Context, accountID string) (*models.Enrollment, error)
	// GetByOrderID resolves an enrollment by its gateway order tag; used by
	// the finalizer to detect a repeated finalize call for the same purchase.
	GetByOrderID(ctx context.Context, orderID string) (*models.Enrollment, error)
	// Upsert writes the record keyed by account ID. Writing the same record
	// twice leaves a single document.
	Upsert(ctx context.Context, enrollment *models.Enrollment) error
}

// NotificationRepository defines the interface for notification storage and
// the live per-recipient feed.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) (string, error)
	// ExistsForOrder reports whether an enrollment notification tagged with
	// the given order ID already exists for the recipient.
	ExistsForOrder(ctx context.Context, recipientID, orderID string) (bool, error)
	GetRecent(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
	// Listen streams the recipient's newest-first notification set: one
	// initial snapshot (possibly empty), then a full list on every change.
	// The returned stop function cancels the stream; calling it more than
	// once is safe.
	Listen(ctx context.Context, recipientID string, limit int, onUpdate func([]*models.Notification), onError func(error)) (stop func())
	// MarkRead flips a single notification to read iff it belongs to
	// recipientID; a foreign document returns ErrForbidden. A second call,
	// or a call against a deleted document, is a no-op.
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	// MarkAllRead flips every unread notification of the recipient in one
	// atomic batch and returns the number changed.
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	// DeleteOne removes a single notification iff it belongs to recipientID;
	// a foreign document returns ErrForbidden, an absent one is a no-op.
	DeleteOne(ctx context.Context, recipientID, notificationID string) error
	// DeleteAll removes every notification of the recipient in one atomic
	// batch and returns the number removed.
	DeleteAll(ctx context.Context, recipientID string) (int, error)
}

// SettingsRepository defines the interface for the per-user settings document.
type SettingsRepository interface {
	Get(ctx context.Context, userID string) (*models.Settings, error)
	// Merge writes only the given keys; keys absent from values survive in
	// the stored document. Last writer wins.
	Merge(ctx context.Context, userID string, values map[string]interface{}) error
}

// AuditRepository defines the interface for audit log storage.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
