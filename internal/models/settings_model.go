package models

// Settings is the per-user preferences document. The value set is
// client-defined; writes are merged so omitted keys survive.
type Settings struct {
	UserID string                 `json:"userId" firestore:"-"` // document ID
	Values map[string]interface{} `json:"values" firestore:"values"`
}
