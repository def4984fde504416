package core

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrollhub-backend-go/internal/config"
	"enrollhub-backend-go/internal/crypto"
	"enrollhub-backend-go/internal/db"
	"enrollhub-backend-go/internal/identity"
	"enrollhub-backend-go/internal/models"
	"enrollhub-backend-go/internal/redirect"
)

type finalizerFixture struct {
	svc         EnrollmentService
	enrollments *fakeEnrollmentRepo
	feed        *fakeNotificationRepo
	accounts    *fakeIdentity
	audit       *fakeAuditRepo
}

func newFinalizerFixture(t *testing.T) *finalizerFixture {
	t.Helper()
	f := &finalizerFixture{
		enrollments: newFakeEnrollmentRepo(),
		feed:        newFakeNotificationRepo(),
		accounts:    newFakeIdentity(),
		audit:       &fakeAuditRepo{},
	}
	svc, err := NewEnrollmentService(
		f.enrollments, f.feed, f.accounts,
		NewAuditService(f.audit),
		&config.Config{StateSealKey: testSealKeyB64},
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

// sealedState builds the query-parameter state a buyer carries back from the
// payment redirect, with the credential secret sealed the way the checkout
// side seals it.
func sealedState(t *testing.T) url.Values {
	t.Helper()
	key, err := crypto.DecodeKey(testSealKeyB64)
	require.NoError(t, err)
	sealed, err := crypto.SealSecret("hunter2", key)
	require.NoError(t, err)

	encoded := redirect.Encode(models.EnrollmentIntent{
		ProgramID:        "teen-programs",
		ProgramTitle:     "Teen Coding Bootcamp",
		GivenName:        "Ada",
		FamilyName:       "Lovelace",
		Email:            "ada@example.com",
		CredentialSecret: sealed,
		PriceMinorUnits:  19900,
		Currency:         "USD",
	})
	state, err := url.ParseQuery(encoded)
	require.NoError(t, err)
	return state
}

func TestFinalizeProvisionsAccountAndRecord(t *testing.T) {
	f := newFinalizerFixture(t)

	accountID, err := f.svc.Finalize(context.Background(), "ORD1", sealedState(t))
	require.NoError(t, err)
	require.NotEmpty(t, accountID)

	enrollment, err := f.enrollments.GetByID(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", enrollment.Email)
	assert.Equal(t, "teen-programs", enrollment.ProgramID)
	assert.Equal(t, int64(19900), enrollment.AmountPaid)
	assert.Equal(t, "ORD1", enrollment.GatewayOrderID)

	// Welcome notification is tagged with the order for dedup.
	feed, err := f.feed.GetRecent(context.Background(), accountID, 20)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "ORD1", feed[0].OrderID)
	assert.False(t, feed[0].Read)
	assert.Contains(t, feed[0].Message, "Teen Coding Bootcamp")

	assert.Contains(t, f.audit.actions(), "ENROLLMENT_FINALIZED")
}

func TestFinalizeRejectsMalformedStateWithoutSideEffects(t *testing.T) {
	f := newFinalizerFixture(t)

	tests := []struct {
		name    string
		orderID string
		state   url.Values
	}{
		{name: "missing order id", orderID: "", state: sealedState(t)},
		{name: "empty state", orderID: "ORD1", state: url.Values{}},
		{name: "missing email", orderID: "ORD1", state: func() url.Values {
			s := sealedState(t)
			s.Del("email")
			return s
		}()},
		{name: "unsealed plaintext password", orderID: "ORD1", state: func() url.Values {
			s := sealedState(t)
			s.Set("password", "hunter2")
			return s
		}()},
		{name: "tampered sealed secret", orderID: "ORD1", state: func() url.Values {
			s := sealedState(t)
			s.Set("password", s.Get("password")+"AAAA")
			return s
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Finalize(context.Background(), tt.orderID, tt.state)
			assert.ErrorIs(t, err, redirect.ErrMalformedState)
		})
	}

	assert.Zero(t, f.accounts.createCalls, "no account may be created from malformed state")
	assert.Zero(t, f.enrollments.count())
}

func TestFinalizeDuplicateOrderShortCircuits(t *testing.T) {
	f := newFinalizerFixture(t)
	state := sealedState(t)

	first, err := f.svc.Finalize(context.Background(), "ORD1", state)
	require.NoError(t, err)
	second, err := f.svc.Finalize(context.Background(), "ORD1", state)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.enrollments.count(), "replaying the redirect must not write a second record")
	assert.Equal(t, 1, f.accounts.createCalls)

	feed, err := f.feed.GetRecent(context.Background(), first, 20)
	require.NoError(t, err)
	assert.Len(t, feed, 1, "replaying the redirect must not duplicate the welcome notification")
}

func TestFinalizeContinuesWhenAccountAlreadyExists(t *testing.T) {
	f := newFinalizerFixture(t)

	existingID, err := f.accounts.CreateAccount(context.Background(), "ada@example.com", "hunter2", "Ada Lovelace")
	require.NoError(t, err)

	accountID, err := f.svc.Finalize(context.Background(), "ORD1", sealedState(t))
	require.NoError(t, err)
	assert.Equal(t, existingID, accountID, "existing account is resolved, not errored")

	enrollment, err := f.enrollments.GetByID(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, "ORD1", enrollment.GatewayOrderID)
}

func TestFinalizeRecordWriteFailureIsPartialProvisioning(t *testing.T) {
	f := newFinalizerFixture(t)
	f.enrollments.upsertErr = assert.AnError

	_, err := f.svc.Finalize(context.Background(), "ORD1", sealedState(t))
	require.Error(t, err)

	var partial *PartialProvisioningError
	require.ErrorAs(t, err, &partial)
	assert.NotEmpty(t, partial.AccountID, "the created account must be reported for reconciliation")
	assert.Equal(t, "ORD1", partial.OrderID)
	assert.ErrorIs(t, partial.Err, assert.AnError)

	assert.Contains(t, f.audit.actions(), "ENROLLMENT_PARTIAL_PROVISIONING")
}

func TestFinalizeSurvivesCallerCancellation(t *testing.T) {
	f := newFinalizerFixture(t)

	// Cancel as soon as the account exists; the record write must still land.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	accountID, err := f.svc.Finalize(ctx, "ORD1", sealedState(t))
	require.NoError(t, err)
	assert.Equal(t, 1, f.enrollments.count())
	_, err = f.enrollments.GetByID(context.Background(), accountID)
	assert.NoError(t, err)
}

func TestGetByAccountID(t *testing.T) {
	f := newFinalizerFixture(t)

	t.Run("absent record surfaces not found", func(t *testing.T) {
		_, err := f.svc.GetByAccountID(context.Background(), "uid-missing")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("present record round trips", func(t *testing.T) {
		accountID, err := f.svc.Finalize(context.Background(), "ORD1", sealedState(t))
		require.NoError(t, err)

		enrollment, err := f.svc.GetByAccountID(context.Background(), accountID)
		require.NoError(t, err)
		assert.Equal(t, accountID, enrollment.ID)
	})
}

func TestFinalizeProviderFailureBeforeAccount(t *testing.T) {
	f := newFinalizerFixture(t)
	f.accounts.createErr = identity.ErrProviderUnavailable

	_, err := f.svc.Finalize(context.Background(), "ORD1", sealedState(t))
	assert.ErrorIs(t, err, identity.ErrProviderUnavailable)
	assert.Zero(t, f.enrollments.count())
}
