package api

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"enrollhub-backend-go/internal/core"
	"enrollhub-backend-go/internal/db"
	"enrollhub-backend-go/internal/identity"
	"enrollhub-backend-go/internal/models"
	"enrollhub-backend-go/internal/redirect"
)

// EnrollmentHandler handles enrollment finalization and dashboard reads.
type EnrollmentHandler struct {
	enrollmentService core.EnrollmentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(es core.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: es}
}

// mapFinalizeErrorToStatus maps finalizer errors to HTTP responses. The
// essential distinction it preserves: "nothing happened" (4xx) versus
// "something happened, verify state" (partial provisioning).
func mapFinalizeErrorToStatus(c *gin.Context, err error) {
	var provisioningErr *core.PartialProvisioningError

	switch {
	case errors.Is(err, redirect.ErrMalformedState):
		// No side effects occurred; the link is bad, not the server.
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid or expired enrollment link"})
	case errors.Is(err, identity.ErrInvalidCredential):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid account details", Details: err.Error()})
	case errors.Is(err, identity.ErrProviderUnavailable):
		log.Printf("Identity Provider Error: %v", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Account service temporarily unavailable. Please try again."})
	case errors.As(err, &provisioningErr):
		// Never swallowed: the account exists without a record and needs
		// operator reconciliation.
		log.Printf("PARTIAL_PROVISIONING: account %s, order %s: %v", provisioningErr.AccountID, provisioningErr.OrderID, provisioningErr.Err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Enrollment could not be completed",
			Details: "An account was created but the enrollment record failed; support can finish the enrollment for account " + provisioningErr.AccountID,
		})
	case errors.Is(err, core.ErrStore):
		log.Printf("Store Error in EnrollmentHandler: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Storage error", Details: "Could not persist the enrollment. Please try again."})
	default:
		log.Printf("Internal Server Error in EnrollmentHandler: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// Finalize handles POST /enrollment/finalize. The client posts back the
// redirect parameters it carried through the gateway; they are re-encoded
// as query values so the service applies the same decode contract the
// redirect URL itself obeys.
func (h *EnrollmentHandler) Finalize(c *gin.Context) {
	var req models.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	state := url.Values{}
	state.Set("courseId", req.UserDetails.CourseID)
	state.Set("course", req.UserDetails.Course)
	state.Set("firstname", req.UserDetails.Firstname)
	state.Set("lastname", req.UserDetails.Lastname)
	state.Set("email", req.UserDetails.Email)
	state.Set("password", req.UserDetails.Password)
	state.Set("amount", strconv.FormatInt(req.UserDetails.Amount, 10))
	state.Set("currency", req.UserDetails.Currency)

	accountID, err := h.enrollmentService.Finalize(c.Request.Context(), req.OrderID, state)
	if err != nil {
		mapFinalizeErrorToStatus(c, err)
		return
	}

	c.JSON(http.StatusOK, FinalizeResponse{AccountID: accountID})
}

// GetOwnEnrollment handles GET /enrollments/me for the learner dashboard.
func (h *EnrollmentHandler) GetOwnEnrollment(c *gin.Context) {
	rawUserID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: User ID not found in context"})
		return
	}
	accountID, ok := rawUserID.(string)
	if !ok || accountID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID format in context"})
		return
	}

	enrollment, err := h.enrollmentService.GetByAccountID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Enrollment record not found"})
			return
		}
		log.Printf("GetOwnEnrollment Error for account %s: %v", accountID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve enrollment record"})
		return
	}

	c.JSON(http.StatusOK, enrollment)
}
