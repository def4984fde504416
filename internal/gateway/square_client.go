package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"enrollhub-backend-go/internal/config"
)

// ErrGateway wraps any transport or non-2xx failure from the payment
// gateway. Callers retry by issuing a whole new link with a fresh
// idempotency key; this client never retries on its own, so a gateway-side
// duplicate link can't be masked.
var ErrGateway = errors.New("payment gateway request failed")

// PaymentGateway is the boundary to the external payment-link provider.
type PaymentGateway interface {
	CreatePaymentLink(ctx context.Context, req CreatePaymentLinkRequest) (*PaymentLink, error)
}

// CreatePaymentLinkRequest carries one line item plus the redirect target.
type CreatePaymentLinkRequest struct {
	IdempotencyKey  string
	Name            string
	PriceMinorUnits int64
	Currency        string
	RedirectURL     string
}

// PaymentLink is the application's read reference to a gateway-owned link.
type PaymentLink struct {
	URL            string
	GatewayOrderID string
	IdempotencyKey string
}

type squareClientImpl struct {
	httpClient  *http.Client
	baseAPIURL  string
	accessToken string
	locationID  string
}

// NewSquareClient builds a payment-links client for the Square Checkout API.
func NewSquareClient(cfg *config.Config) PaymentGateway {
	return &squareClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseAPIURL:  cfg.SquareAPIBaseURL,
		accessToken: cfg.SquareAccessToken,
		locationID:  cfg.SquareLocationID,
	}
}

// Wire types for POST /v2/online-checkout/payment-links.
type priceMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type quickPay struct {
	Name       string     `json:"name"`
	PriceMoney priceMoney `json:"price_money"`
	LocationID string     `json:"location_id"`
}

type checkoutOptions struct {
	RedirectURL string `json:"redirect_url"`
}

type createPaymentLinkPayload struct {
	IdempotencyKey  string          `json:"idempotency_key"`
	QuickPay        quickPay        `json:"quick_pay"`
	CheckoutOptions checkoutOptions `json:"checkout_options"`
}

type paymentLinkResult struct {
	PaymentLink struct {
		ID      string `json:"id"`
		URL     string `json:"url"`
		OrderID string `json:"order_id"`
	} `json:"payment_link"`
}

func (c *squareClientImpl) CreatePaymentLink(ctx context.Context, req CreatePaymentLinkRequest) (*PaymentLink, error) {
	payload := createPaymentLinkPayload{
		IdempotencyKey: req.IdempotencyKey,
		QuickPay: quickPay{
			Name: req.Name,
			PriceMoney: priceMoney{
				Amount:   req.PriceMinorUnits,
				Currency: req.Currency,
			},
			LocationID: c.locationID,
		},
		CheckoutOptions: checkoutOptions{
			RedirectURL: req.RedirectURL,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseAPIURL+"/v2/online-checkout/payment-links",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, string(b))
	}

	var result paymentLinkResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	if result.PaymentLink.URL == "" || result.PaymentLink.OrderID == "" {
		return nil, fmt.Errorf("%w: response missing payment link url or order id", ErrGateway)
	}

	return &PaymentLink{
		URL:            result.PaymentLink.URL,
		GatewayOrderID: result.PaymentLink.OrderID,
		IdempotencyKey: req.IdempotencyKey,
	}, nil
}
