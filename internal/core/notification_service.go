package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"enrollhub-backend-go/internal/db"
	"enrollhub-backend-go/internal/models"
)

// recentFeedLimit is how many notifications the live feed and the one-shot
// snapshot carry, newest first.
const recentFeedLimit = 20

// notificationService implements the NotificationService interface. It adds
// no locking of its own: every mutation is a single-document or atomic-batch
// operation at the store, which is the only concurrency primitive this
// design relies on.
type notificationService struct {
	notificationRepo db.NotificationRepository
	auditService     AuditService
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(notificationRepo db.NotificationRepository, auditService AuditService) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		auditService:     auditService,
	}
}

// Subscribe starts a live feed for the recipient. The repository delivers
// one initial snapshot (empty when the recipient has no notifications) and
// a full refreshed list after every change.
//
// An empty recipientID is a caller-side programming error, typically UI
// mounted before auth resolves; it gets an inert subscription instead of a
// panic. The returned unsubscribe is safe to call more than once.
func (s *notificationService) Subscribe(recipientID string, onUpdate func([]*models.Notification), onError func(error)) func() {
	if recipientID == "" {
		log.Println("NotificationService: Subscribe called with empty recipientID; returning inert subscription.")
		return func() {}
	}

	// The feed outlives the request that opened it; its lifetime is bounded
	// only by the unsubscribe call.
	stop := s.notificationRepo.Listen(context.Background(), recipientID, recentFeedLimit, onUpdate, onError)

	var once sync.Once
	return func() {
		once.Do(stop)
	}
}

// GetRecent returns a one-shot snapshot of the recipient's feed.
func (s *notificationService) GetRecent(ctx context.Context, recipientID string) ([]*models.Notification, error) {
	notifications, err := s.notificationRepo.GetRecent(ctx, recipientID, recentFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return notifications, nil
}

// MarkRead flips one of the recipient's notifications to read. Read state is
// monotonic, so a second call finds it already true and changes nothing. A
// notification owned by another recipient surfaces db.ErrForbidden as is.
func (s *notificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	if err := s.notificationRepo.MarkRead(ctx, recipientID, notificationID); err != nil {
		if errors.Is(err, db.ErrForbidden) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// MarkAllRead flips every unread notification of the recipient in one
// atomic batch and returns the count, 0 when nothing was unread. Two
// devices racing this call both succeed and converge on all-read; the
// operation is idempotent and commutative with itself.
func (s *notificationService) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	count, err := s.notificationRepo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if count > 0 {
		s.audit(ctx, models.AuditLog{
			UserID:     recipientID,
			Action:     "NOTIFICATIONS_MARKED_READ",
			TargetType: "NOTIFICATION",
			Details:    map[string]interface{}{"count": count},
		})
	}
	return count, nil
}

// DeleteOne removes one of the recipient's notifications; deleting an absent
// one is a no-op, a foreign one surfaces db.ErrForbidden as is.
func (s *notificationService) DeleteOne(ctx context.Context, recipientID, notificationID string) error {
	if err := s.notificationRepo.DeleteOne(ctx, recipientID, notificationID); err != nil {
		if errors.Is(err, db.ErrForbidden) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// DeleteAll clears the recipient's notifications in one atomic batch and
// returns the count removed.
func (s *notificationService) DeleteAll(ctx context.Context, recipientID string) (int, error) {
	count, err := s.notificationRepo.DeleteAll(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if count > 0 {
		s.audit(ctx, models.AuditLog{
			UserID:     recipientID,
			Action:     "NOTIFICATIONS_CLEARED",
			TargetType: "NOTIFICATION",
			Details:    map[string]interface{}{"count": count},
		})
	}
	return count, nil
}

func (s *notificationService) audit(ctx context.Context, entry models.AuditLog) {
	if s.auditService == nil {
		return
	}
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		log.Printf("NotificationService: audit log write failed (action %s): %v", entry.Action, err)
	}
}
