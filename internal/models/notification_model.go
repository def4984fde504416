package models

import "time"

// Notification is a single per-recipient notification document.
// Read only ever transitions false -> true.
type Notification struct {
	ID          string    `json:"id" firestore:"-"` // Document ID, auto-generated
	RecipientID string    `json:"recipientId" firestore:"recipientId"`
	Message     string    `json:"message" firestore:"message"`
	Read        bool      `json:"read" firestore:"read"`
	OrderID     string    `json:"orderId,omitempty" firestore:"orderId,omitempty"` // dedup key for enrollment notifications
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}
