package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"enrollhub-backend-go/internal/config"
	"enrollhub-backend-go/internal/crypto"
	"enrollhub-backend-go/internal/db"
	"enrollhub-backend-go/internal/identity"
	"enrollhub-backend-go/internal/models"
	"enrollhub-backend-go/internal/redirect"
)

// finalizeState names the steps of a single finalize invocation. The state
// is per-call and never persisted; its job is to make "how far did we get"
// explicit when a step fails, in particular the account-created-but-no-
// record case.
type finalizeState string

const (
	stateReceived       finalizeState = "RECEIVED"
	stateDecoded        finalizeState = "DECODED"
	stateAccountCreated finalizeState = "ACCOUNT_CREATED"
	stateRecordWritten  finalizeState = "RECORD_WRITTEN"
)

// enrollmentService implements the EnrollmentService interface.
type enrollmentService struct {
	enrollmentRepo   db.EnrollmentRepository
	notificationRepo db.NotificationRepository
	identityProvider identity.Provider
	auditService     AuditService
	sealKey          []byte
}

// NewEnrollmentService creates a new EnrollmentService instance.
func NewEnrollmentService(
	enrollmentRepo db.EnrollmentRepository,
	notificationRepo db.NotificationRepository,
	identityProvider identity.Provider,
	auditService AuditService,
	appConfig *config.Config,
) (EnrollmentService, error) {
	sealKey, err := crypto.DecodeKey(appConfig.StateSealKey)
	if err != nil {
		return nil, fmt.Errorf("enrollment service: invalid STATE_SEAL_KEY: %w", err)
	}
	return &enrollmentService{
		enrollmentRepo:   enrollmentRepo,
		notificationRepo: notificationRepo,
		identityProvider: identityProvider,
		auditService:     auditService,
		sealKey:          sealKey,
	}, nil
}

// Finalize runs the provisioning state machine:
//
//	RECEIVED -> DECODED -> ACCOUNT_CREATED -> RECORD_WRITTEN
//
// Malformed state aborts before any side effect. An already-existing
// account is resolved to its ID and treated as success-path continuation,
// so a back-button replay of the redirect does not error the buyer. Any
// failure after the account exists surfaces as *PartialProvisioningError.
//
// Note: nothing here confirms orderID against the gateway; the pipeline
// trusts the order identifier the client carried back from the redirect.
// See DESIGN.md before tightening this, since verification changes
// observable behavior.
func (s *enrollmentService) Finalize(ctx context.Context, orderID string, state url.Values) (string, error) {
	current := stateReceived
	if orderID == "" {
		return "", fmt.Errorf("%w: missing order id", redirect.ErrMalformedState)
	}

	intent, err := redirect.Decode(state)
	if err != nil {
		return "", fmt.Errorf("finalize at %s: %w", current, err)
	}
	secret, err := crypto.OpenSecret(intent.CredentialSecret, s.sealKey)
	if err != nil {
		// A secret that fails to unseal means the URL was tampered with or
		// truncated; same contract as any other undecodable state.
		return "", fmt.Errorf("finalize at %s: %w: credential secret cannot be unsealed", current, redirect.ErrMalformedState)
	}
	current = stateDecoded

	// A record tagged with this order means a previous invocation already
	// reached RECORD_WRITTEN; short-circuit to the same outcome.
	if existing, err := s.enrollmentRepo.GetByOrderID(ctx, orderID); err == nil {
		return existing.ID, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("finalize at %s: %w: %v", current, ErrStore, err)
	}

	displayName := intent.GivenName + " " + intent.FamilyName
	accountID, err := s.identityProvider.CreateAccount(ctx, intent.Email, secret, displayName)
	if err != nil {
		if !errors.Is(err, identity.ErrAccountExists) {
			return "", fmt.Errorf("finalize at %s: %w", current, err)
		}
		// Duplicate finalize call (browser back-button, double submit): the
		// account is there, resolve its ID and continue to the record write.
		accountID, err = s.identityProvider.LookupByEmail(ctx, intent.Email)
		if err != nil {
			return "", fmt.Errorf("finalize at %s: resolve existing account: %w", current, err)
		}
	}
	current = stateAccountCreated

	// Past this point an abort is worse than finishing: a cancelled record
	// write strands an account with no enrollment. Detach from the caller's
	// cancellation and run to a terminal state.
	ctx = context.WithoutCancel(ctx)

	enrollment := &models.Enrollment{
		ID:             accountID,
		GivenName:      intent.GivenName,
		FamilyName:     intent.FamilyName,
		Email:          intent.Email,
		AmountPaid:     intent.PriceMinorUnits,
		Currency:       intent.Currency,
		ProgramID:      intent.ProgramID,
		ProgramTitle:   intent.ProgramTitle,
		GatewayOrderID: orderID,
	}
	if err := s.enrollmentRepo.Upsert(ctx, enrollment); err != nil {
		provisioningErr := &PartialProvisioningError{AccountID: accountID, OrderID: orderID, Err: err}
		s.audit(ctx, models.AuditLog{
			UserID:     accountID,
			Action:     "ENROLLMENT_PARTIAL_PROVISIONING",
			TargetType: "ENROLLMENT",
			TargetID:   orderID,
			Details:    map[string]interface{}{"error": err.Error()},
		})
		return "", provisioningErr
	}
	current = stateRecordWritten

	s.createWelcomeNotification(ctx, accountID, orderID, intent.ProgramTitle)
	s.audit(ctx, models.AuditLog{
		UserID:     accountID,
		Action:     "ENROLLMENT_FINALIZED",
		TargetType: "ENROLLMENT",
		TargetID:   orderID,
		Details:    map[string]interface{}{"programId": intent.ProgramID, "state": string(current)},
	})

	return accountID, nil
}

// GetByAccountID returns the enrollment record for a learner's dashboard.
func (s *enrollmentService) GetByAccountID(ctx context.Context, accountID string) (*models.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return enrollment, nil
}

// createWelcomeNotification writes the enrollment's welcome notification,
// keyed by orderID so a repeated finalize does not create a duplicate.
// Best-effort: provisioning already reached its terminal state, so a
// notification failure is logged rather than surfaced to the buyer.
func (s *enrollmentService) createWelcomeNotification(ctx context.Context, accountID, orderID, programTitle string) {
	exists, err := s.notificationRepo.ExistsForOrder(ctx, accountID, orderID)
	if err != nil {
		log.Printf("Finalize: could not check welcome notification for order %s: %v", orderID, err)
		return
	}
	if exists {
		return
	}
	_, err = s.notificationRepo.Create(ctx, &models.Notification{
		RecipientID: accountID,
		Message:     fmt.Sprintf("Welcome! Your enrollment in %s is confirmed.", programTitle),
		OrderID:     orderID,
	})
	if err != nil {
		log.Printf("Finalize: could not create welcome notification for order %s: %v", orderID, err)
	}
}

func (s *enrollmentService) audit(ctx context.Context, entry models.AuditLog) {
	if s.auditService == nil {
		return
	}
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		log.Printf("Finalize: audit log write failed (action %s): %v", entry.Action, err)
	}
}
