package models

// IssueLinkRequest is the request body for creating a payment link.
// Price arrives in minor units; validation beyond presence happens in the
// checkout service before any gateway call.
type IssueLinkRequest struct {
	CourseID        string `json:"courseId" binding:"required"`
	Course          string `json:"course" binding:"required"` // program title for the line item
	Firstname       string `json:"firstname" binding:"required"`
	Lastname        string `json:"lastname" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PriceMinorUnits int64  `json:"amount" binding:"required"`
	Currency        string `json:"currency,omitempty"`
}

// FinalizeUserDetails mirrors the redirect-state fields the client posts
// back after payment completes.
type FinalizeUserDetails struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	Amount    int64  `json:"amount"`
	Course    string `json:"course"`
	CourseID  string `json:"courseId" binding:"required"`
	Currency  string `json:"currency,omitempty"`
}

// FinalizeRequest is the request body for the enrollment finalizer.
type FinalizeRequest struct {
	UserDetails FinalizeUserDetails `json:"userDetails" binding:"required"`
	OrderID     string              `json:"orderId" binding:"required"`
}

// SaveSettingsRequest carries a partial settings document. Keys absent from
// Values are left untouched in the stored document.
type SaveSettingsRequest struct {
	Values map[string]interface{} `json:"values" binding:"required"`
}
