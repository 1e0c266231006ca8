package models

// Event actions emitted to the notification/audit sink.
const (
	EventRequestSubmitted  = "request.submitted"
	EventRequestApproved   = "request.approved"
	EventRequestRejected   = "request.rejected"
	EventRequestCancelled  = "request.cancelled"
	EventBalanceAdjusted   = "balance.adjusted"
	EventBalanceRolledOver = "balance.rolled_over"
)

// LeaveEvent records a workflow or ledger event with a full entity
// snapshot for downstream notification and audit consumers. Delivery is
// fire-and-forget: writing an event never rolls back the operation that
// produced it.
type LeaveEvent struct {
	Base
	ActorID    string `gorm:"type:uuid;not null;index" json:"actor_id"`
	Action     string `gorm:"not null" json:"action"`
	EntityType string `gorm:"not null" json:"entity_type"`
	EntityID   string `gorm:"type:uuid" json:"entity_id"`
	Snapshot   string `json:"snapshot,omitempty"`
}
