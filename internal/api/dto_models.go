package api

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// IssueLinkResponse returns the gateway payment link for the browser to
// navigate to, plus the order id the gateway assigned.
type IssueLinkResponse struct {
	URL     string `json:"url"`
	OrderID string `json:"orderId"`
}

// FinalizeResponse returns the provisioned account id.
type FinalizeResponse struct {
	AccountID string `json:"accountId"`
}

// CountResponse reports how many documents a bulk mutation changed.
type CountResponse struct {
	Count int `json:"count"`
}
