package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"enrollhub-backend-go/internal/models"
)

const notificationsCollection = "notifications"

// ErrForbidden means the document exists but belongs to a different
// recipient than the caller.
var ErrForbidden = errors.New("document does not belong to the caller")

// firestoreNotificationRepository implements NotificationRepository using Firestore.
type firestoreNotificationRepository struct {
	client *firestore.Client
}

// NewFirestoreNotificationRepository creates a new instance of firestoreNotificationRepository.
func NewFirestoreNotificationRepository(client *firestore.Client) NotificationRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for NotificationRepository.")
	}
	return &firestoreNotificationRepository{client: client}
}

// recentQuery is the shared newest-first query for a recipient's feed.
func (r *firestoreNotificationRepository) recentQuery(recipientID string, limit int) firestore.Query {
	return r.client.Collection(notificationsCollection).
		Where("recipientId", "==", recipientID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit)
}

// Create adds a new notification document with an auto-generated ID.
func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *models.Notification) (string, error) {
	if notification.RecipientID == "" {
		return "", errors.New("recipientID cannot be empty for Create operation")
	}
	docRef := r.client.Collection(notificationsCollection).NewDoc()
	notification.ID = docRef.ID

	// CreatedAt is handled by the serverTimestamp tag in the model.
	if _, err := docRef.Create(ctx, notification); err != nil {
		return "", fmt.Errorf("failed to create notification: %w", err)
	}
	return docRef.ID, nil
}

// ExistsForOrder reports whether an enrollment notification with the given
// order tag already exists for the recipient.
func (r *firestoreNotificationRepository) ExistsForOrder(ctx context.Context, recipientID, orderID string) (bool, error) {
	if recipientID == "" || orderID == "" {
		return false, errors.New("recipientID and orderID cannot be empty for ExistsForOrder operation")
	}

	iter := r.client.Collection(notificationsCollection).
		Where("recipientId", "==", recipientID).
		Where("orderId", "==", orderID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query notification by order '%s': %w", orderID, err)
	}
	return true, nil
}

// GetRecent returns the recipient's newest notifications, newest first.
func (r *firestoreNotificationRepository) GetRecent(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	if recipientID == "" {
		return nil, errors.New("recipientID cannot be empty for GetRecent operation")
	}

	iter := r.recentQuery(recipientID, limit).Documents(ctx)
	defer iter.Stop()

	return collectNotifications(iter, recipientID)
}

// Listen establishes a snapshot listener over the recipient's recent feed.
// Firestore delivers an initial snapshot immediately (empty when the
// recipient has no notifications) and a fresh one on every insert, update
// or delete in the result set. Batched writes surface as a single snapshot,
// so a reader never observes a partially applied bulk mutation.
func (r *firestoreNotificationRepository) Listen(ctx context.Context, recipientID string, limit int, onUpdate func([]*models.Notification), onError func(error)) func() {
	listenCtx, cancel := context.WithCancel(ctx)
	snapIter := r.recentQuery(recipientID, limit).Snapshots(listenCtx)

	go func() {
		defer snapIter.Stop()
		for {
			snap, err := snapIter.Next()
			if err != nil {
				// Cancellation through stop() is the normal end of a feed.
				if status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
					return
				}
				if onError != nil {
					onError(fmt.Errorf("notification feed for recipient '%s': %w", recipientID, err))
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				if onError != nil {
					onError(fmt.Errorf("read notification snapshot for recipient '%s': %w", recipientID, err))
				}
				return
			}

			notifications := make([]*models.Notification, 0, len(docs))
			for _, doc := range docs {
				var n models.Notification
				if err := doc.DataTo(&n); err != nil {
					log.Printf("Error decoding notification (ID: %s) for recipient '%s': %v. Skipping.", doc.Ref.ID, recipientID, err)
					continue
				}
				n.ID = doc.Ref.ID
				notifications = append(notifications, &n)
			}
			onUpdate(notifications)
		}
	}()

	return cancel
}

// MarkRead flips a single notification document to read, after verifying it
// belongs to recipientID. A missing document is treated as a no-op so a
// repeat call after a delete does not error; a document owned by someone
// else returns ErrForbidden untouched.
func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	if recipientID == "" || notificationID == "" {
		return errors.New("recipientID and notificationID cannot be empty for MarkRead operation")
	}

	docRef, err := r.ownedDoc(ctx, recipientID, notificationID)
	if err != nil || docRef == nil {
		return err
	}

	_, err = docRef.Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
	})
	if err != nil {
		// Deleted between the ownership read and the update; still a no-op.
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("failed to mark notification '%s' read: %w", notificationID, err)
	}
	return nil
}

// MarkAllRead flips every unread notification of the recipient inside one
// WriteBatch commit. The batch is all-or-nothing, so a concurrent listener
// sees either the old feed or the fully flipped one, never a mix.
func (r *firestoreNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	if recipientID == "" {
		return 0, errors.New("recipientID cannot be empty for MarkAllRead operation")
	}

	docs, err := r.client.Collection(notificationsCollection).
		Where("recipientId", "==", recipientID).
		Where("read", "==", false).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to query unread notifications for recipient '%s': %w", recipientID, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := r.client.Batch()
	for _, doc := range docs {
		batch.Update(doc.Ref, []firestore.Update{{Path: "read", Value: true}})
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit mark-all-read batch for recipient '%s': %w", recipientID, err)
	}
	return len(docs), nil
}

// DeleteOne removes a single notification, after verifying it belongs to
// recipientID. An absent document is a no-op; a document owned by someone
// else returns ErrForbidden untouched.
func (r *firestoreNotificationRepository) DeleteOne(ctx context.Context, recipientID, notificationID string) error {
	if recipientID == "" || notificationID == "" {
		return errors.New("recipientID and notificationID cannot be empty for DeleteOne operation")
	}

	docRef, err := r.ownedDoc(ctx, recipientID, notificationID)
	if err != nil || docRef == nil {
		return err
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete notification '%s': %w", notificationID, err)
	}
	return nil
}

// ownedDoc resolves a notification document reference iff it belongs to
// recipientID. (nil, nil) means the document is absent, so single-document
// mutations stay idempotent.
func (r *firestoreNotificationRepository) ownedDoc(ctx context.Context, recipientID, notificationID string) (*firestore.DocumentRef, error) {
	docSnap, err := r.client.Collection(notificationsCollection).Doc(notificationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification '%s': %w", notificationID, err)
	}

	var n models.Notification
	if err := docSnap.DataTo(&n); err != nil {
		return nil, fmt.Errorf("failed to decode notification '%s': %w", notificationID, err)
	}
	if n.RecipientID != recipientID {
		return nil, fmt.Errorf("notification '%s': %w", notificationID, ErrForbidden)
	}
	return docSnap.Ref, nil
}

// DeleteAll removes every notification of the recipient inside one
// WriteBatch commit, with the same atomicity as MarkAllRead.
func (r *firestoreNotificationRepository) DeleteAll(ctx context.Context, recipientID string) (int, error) {
	if recipientID == "" {
		return 0, errors.New("recipientID cannot be empty for DeleteAll operation")
	}

	docs, err := r.client.Collection(notificationsCollection).
		Where("recipientId", "==", recipientID).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to query notifications for recipient '%s': %w", recipientID, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := r.client.Batch()
	for _, doc := range docs {
		batch.Delete(doc.Ref)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit delete-all batch for recipient '%s': %w", recipientID, err)
	}
	return len(docs), nil
}

// collectNotifications drains a document iterator into a notification slice.
func collectNotifications(iter *firestore.DocumentIterator, recipientID string) ([]*models.Notification, error) {
	var notifications []*models.Notification
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate notifications for recipient '%s': %w", recipientID, err)
		}

		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			log.Printf("Error decoding notification (ID: %s) for recipient '%s': %v. Skipping.", doc.Ref.ID, recipientID, err)
			continue
		}
		n.ID = doc.Ref.ID
		notifications = append(notifications, &n)
	}
	return notifications, nil
}
