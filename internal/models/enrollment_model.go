package models

import "time"

// EnrollmentIntent is the ephemeral purchase state carried through the
// payment redirect. It is never persisted server-side: the redirect URL is
// its only storage until the finalizer consumes it.
type EnrollmentIntent struct {
	ProgramID        string
	ProgramTitle     string
	GivenName        string
	FamilyName       string
	Email            string
	CredentialSecret string // sealed before it enters the URL
	PriceMinorUnits  int64
	Currency         string
}

// Enrollment is the denormalized user/enrollment document written once by
// the finalizer. The Firebase Auth UID is the document ID.
type Enrollment struct {
	ID             string    `json:"id" firestore:"-"` // Firebase Auth UID, will be the document ID
	GivenName      string    `json:"givenName" firestore:"givenName"`
	FamilyName     string    `json:"familyName" firestore:"familyName"`
	Email          string    `json:"email" firestore:"email"`
	AmountPaid     int64     `json:"amountPaid" firestore:"amountPaid"` // minor units
	Currency       string    `json:"currency" firestore:"currency"`
	ProgramID      string    `json:"programId" firestore:"programId"`
	ProgramTitle   string    `json:"programTitle" firestore:"programTitle"`
	GatewayOrderID string    `json:"gatewayOrderId" firestore:"gatewayOrderId"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}
