package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"enrollhub-backend-go/internal/config"
	"enrollhub-backend-go/internal/crypto"
	"enrollhub-backend-go/internal/gateway"
	"enrollhub-backend-go/internal/models"
	"enrollhub-backend-go/internal/redirect"
)

const defaultCurrency = "USD"

// finalizePath is where the gateway sends the buyer's browser after
// payment. The gateway appends its order id to the query; everything else
// on the URL is our encoded enrollment state.
const finalizePath = "/enroll/complete"

// checkoutService implements the CheckoutService interface.
type checkoutService struct {
	paymentGateway gateway.PaymentGateway
	locationID     string
	clientURL      string
	sealKey        []byte
}

// NewCheckoutService creates a new CheckoutService instance. The state seal
// key is decoded eagerly so a bad key fails startup, not the first purchase.
func NewCheckoutService(paymentGateway gateway.PaymentGateway, appConfig *config.Config) (CheckoutService, error) {
	sealKey, err := crypto.DecodeKey(appConfig.StateSealKey)
	if err != nil {
		return nil, fmt.Errorf("checkout service: invalid STATE_SEAL_KEY: %w", err)
	}
	return &checkoutService{
		paymentGateway: paymentGateway,
		locationID:     appConfig.SquareLocationID,
		clientURL:      strings.TrimRight(appConfig.ClientURL, "/"),
		sealKey:        sealKey,
	}, nil
}

// IssueLink validates preconditions, encodes the enrollment state into the
// redirect URL, and creates a payment link at the gateway.
//
// A fresh idempotency key is generated on every call: a retried attempt is
// a new attempt with a new key, so this method performs no silent retries
// that could mask a gateway-side duplicate link. All resulting state lives
// at the gateway and in the returned URL; nothing is persisted locally.
func (s *checkoutService) IssueLink(ctx context.Context, req models.IssueLinkRequest) (*gateway.PaymentLink, error) {
	// Fail fast, before any network call.
	if req.PriceMinorUnits <= 0 {
		return nil, fmt.Errorf("%w: price must be positive, got %d", ErrConfiguration, req.PriceMinorUnits)
	}
	if s.locationID == "" {
		return nil, fmt.Errorf("%w: settlement location is not configured", ErrConfiguration)
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	sealedSecret, err := crypto.SealSecret(req.Password, s.sealKey)
	if err != nil {
		return nil, fmt.Errorf("seal credential secret: %w", err)
	}

	state := redirect.Encode(models.EnrollmentIntent{
		ProgramID:        req.CourseID,
		ProgramTitle:     req.Course,
		GivenName:        req.Firstname,
		FamilyName:       req.Lastname,
		Email:            req.Email,
		CredentialSecret: sealedSecret,
		PriceMinorUnits:  req.PriceMinorUnits,
		Currency:         currency,
	})
	redirectURL := s.clientURL + finalizePath + "?" + state

	link, err := s.paymentGateway.CreatePaymentLink(ctx, gateway.CreatePaymentLinkRequest{
		IdempotencyKey:  uuid.NewString(),
		Name:            req.Course,
		PriceMinorUnits: req.PriceMinorUnits,
		Currency:        currency,
		RedirectURL:     redirectURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment link: %w", err)
	}
	return link, nil
}
