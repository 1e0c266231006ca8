package models

// LeaveComment is one entry in a request's append-only comment thread.
// Comments may be added at any request status and never touch the ledger.
type LeaveComment struct {
	Base
	LeaveRequestID string `gorm:"type:uuid;not null;index" json:"leave_request_id"`
	AuthorID       string `gorm:"type:uuid;not null" json:"author_id"`
	Body           string `gorm:"not null" json:"body"`
}
