package core

import (
	"context"
	"net/url"

	"enrollhub-backend-go/internal/gateway"
	"enrollhub-backend-go/internal/models"
)

// CheckoutService issues payment links for enrollment purchases.
type CheckoutService interface {
	// IssueLink validates the purchase, seals the buyer's credential secret,
	// and asks the gateway for a payment link with a fresh idempotency key.
	IssueLink(ctx context.Context, req models.IssueLinkRequest) (*gateway.PaymentLink, error)
}

// EnrollmentService finalizes a completed payment into an account and a
// persisted enrollment record.
type EnrollmentService interface {
	// Finalize decodes the redirect state, creates (or resolves) the
	// identity-provider account, and writes the enrollment record tagged
	// with orderID. Repeated calls for the same orderID return the same
	// account ID and leave exactly one record.
	Finalize(ctx context.Context, orderID string, state url.Values) (string, error)
	GetByAccountID(ctx context.Context, accountID string) (*models.Enrollment, error)
}

// NotificationService keeps per-recipient notification state in sync across
// concurrently connected devices.
type NotificationService interface {
	// Subscribe starts a live feed of the recipient's newest notifications.
	// An empty recipientID yields an inert subscription whose unsubscribe is
	// a no-op, so UI mounted before auth resolves cannot crash the caller.
	Subscribe(recipientID string, onUpdate func([]*models.Notification), onError func(error)) (unsubscribe func())
	GetRecent(ctx context.Context, recipientID string) ([]*models.Notification, error)
	// MarkRead and DeleteOne mutate a single notification only when it
	// belongs to recipientID; a foreign document surfaces db.ErrForbidden.
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	DeleteOne(ctx context.Context, recipientID, notificationID string) error
	DeleteAll(ctx context.Context, recipientID string) (int, error)
}

// SettingsService reads and merge-writes the per-user settings document.
type SettingsService interface {
	// Fetch returns (nil, nil) when the user has never saved settings.
	Fetch(ctx context.Context, userID string) (*models.Settings, error)
	Save(ctx context.Context, userID string, values map[string]interface{}) error
}

// AuditService records audit trail events.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
