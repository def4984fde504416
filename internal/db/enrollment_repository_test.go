package db

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrollhub-backend-go/internal/models"
)

// newOfflineClient returns a real Firestore client aimed at an address
// nothing listens on. Client-side write construction still runs in full, so
// a payload the client refuses to serialize fails before any dial, while a
// valid write fails only at the transport.
func newOfflineClient(t *testing.T) *firestore.Client {
	t.Helper()
	t.Setenv("FIRESTORE_EMULATOR_HOST", "localhost:1")
	client, err := firestore.NewClient(context.Background(), "test-project")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestUpsertPassesWriteConstruction(t *testing.T) {
	repo := NewFirestoreEnrollmentRepository(newOfflineClient(t))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := repo.Upsert(ctx, &models.Enrollment{
		ID:             "uid-1",
		GivenName:      "Ada",
		FamilyName:     "Lovelace",
		Email:          "ada@example.com",
		AmountPaid:     19900,
		Currency:       "USD",
		ProgramID:      "teen-programs",
		ProgramTitle:   "Teen Coding Bootcamp",
		GatewayOrderID: "ORD1",
	})

	// No server is listening, so the commit itself must fail; what must NOT
	// happen is a serialization rejection of the struct payload, which would
	// make every enrollment write dead on arrival.
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "MergeAll")
	assert.NotContains(t, err.Error(), "map data")
}

func TestUpsertRejectsEmptyAccountID(t *testing.T) {
	repo := NewFirestoreEnrollmentRepository(newOfflineClient(t))
	err := repo.Upsert(context.Background(), &models.Enrollment{GatewayOrderID: "ORD1"})
	assert.Error(t, err)
}
