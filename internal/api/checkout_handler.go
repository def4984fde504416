package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"enrollhub-backend-go/internal/core"
	"enrollhub-backend-go/internal/gateway"
	"enrollhub-backend-go/internal/models"
)

// CheckoutHandler handles payment-link issuance endpoints.
type CheckoutHandler struct {
	checkoutService core.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(cs core.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: cs}
}

// mapCheckoutErrorToStatus maps checkout service errors to HTTP responses.
func mapCheckoutErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrConfiguration):
		// Not retryable; the deployment or the request is wrong.
		log.Printf("Checkout Configuration Error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Checkout is not available", Details: err.Error()})
	case errors.Is(err, gateway.ErrGateway):
		// Retryable: the client re-invokes the whole flow, which mints a new
		// idempotency key.
		log.Printf("Payment Gateway Error: %v", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Payment provider error", Details: "Could not create the payment link. Please try again."})
	default:
		log.Printf("Internal Server Error in CheckoutHandler: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// IssuePaymentLink handles POST /checkout/payment-link.
func (h *CheckoutHandler) IssuePaymentLink(c *gin.Context) {
	var req models.IssueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	link, err := h.checkoutService.IssueLink(c.Request.Context(), req)
	if err != nil {
		mapCheckoutErrorToStatus(c, err)
		return
	}

	c.JSON(http.StatusOK, IssueLinkResponse{URL: link.URL, OrderID: link.GatewayOrderID})
}
