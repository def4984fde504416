package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means a precondition of link issuance (positive
	// price, configured settlement location) is not met. Fatal for the
	// attempt, never retried, and raised before any network call.
	ErrConfiguration = errors.New("checkout configuration incomplete")

	// ErrStore wraps document-store failures. For single-document operations
	// no partial success is implied; for batched operations the batch is
	// all-or-nothing, so none of it applied.
	ErrStore = errors.New("document store operation failed")
)

// PartialProvisioningError reports the one state this system must never
// swallow: an identity-provider account was created but the enrollment
// record write failed. Operators reconcile these by account and order ID.
type PartialProvisioningError struct {
	AccountID string
	OrderID   string
	Err       error
}

func (e *PartialProvisioningError) Error() string {
	return fmt.Sprintf("partial provisioning: account %q created but enrollment record for order %q not written: %v", e.AccountID, e.OrderID, e.Err)
}

func (e *PartialProvisioningError) Unwrap() error { return e.Err }
