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

const enrollmentsCollection = "enrollments"

// ErrNotFound is the common error for when a document is not found in Firestore.
var ErrNotFound = errors.New("document not found")

// firestoreEnrollmentRepository implements EnrollmentRepository using Firestore.
type firestoreEnrollmentRepository struct {
	client *firestore.Client
}

// NewFirestoreEnrollmentRepository creates a new instance of firestoreEnrollmentRepository.
func NewFirestoreEnrollmentRepository(client *firestore.Client) EnrollmentRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for EnrollmentRepository.")
	}
	return &firestoreEnrollmentRepository{client: client}
}

// GetByID retrieves an enrollment document by account ID (Firebase Auth UID).
func (r *firestoreEnrollmentRepository) GetByID(ctx context.Context, accountID string) (*models.Enrollment, error) {
	if accountID == "" {
		return nil, errors.New("accountID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(enrollmentsCollection).Doc(accountID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("enrollment for account '%s' not found: %w", accountID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get enrollment for account '%s': %w", accountID, err)
	}

	var enrollment models.Enrollment
	if err := docSnap.DataTo(&enrollment); err != nil {
		return nil, fmt.Errorf("failed to decode enrollment data for account '%s': %w", accountID, err)
	}
	enrollment.ID = docSnap.Ref.ID

	return &enrollment, nil
}

// GetByOrderID retrieves an enrollment by its gateway order tag.
func (r *firestoreEnrollmentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Enrollment, error) {
	if orderID == "" {
		return nil, errors.New("orderID cannot be empty for GetByOrderID operation")
	}

	iter := r.client.Collection(enrollmentsCollection).
		Where("gatewayOrderId", "==", orderID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("enrollment for order '%s' not found: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollment by order '%s': %w", orderID, err)
	}

	var enrollment models.Enrollment
	if err := doc.DataTo(&enrollment); err != nil {
		return nil, fmt.Errorf("failed to decode enrollment data for order '%s': %w", orderID, err)
	}
	enrollment.ID = doc.Ref.ID

	return &enrollment, nil
}

// Upsert writes the enrollment document keyed by account ID. A plain Set is
// already idempotent here: a repeated finalize for the same order rewrites
// the same document instead of creating a second one. MergeAll is not an
// option; the client only accepts it with map data, not a struct.
func (r *firestoreEnrollmentRepository) Upsert(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		return errors.New("enrollment ID cannot be empty for Upsert operation")
	}
	_, err := r.client.Collection(enrollmentsCollection).Doc(enrollment.ID).Set(ctx, enrollment)
	if err != nil {
		return fmt.Errorf("failed to upsert enrollment for account '%s': %w", enrollment.ID, err)
	}
	return nil
}
