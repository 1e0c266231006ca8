// Leave request lifecycle:
//
//	(submit) ──► PENDING ──► APPROVED ──► CANCELLED
//	                │  │
//	                │  └────► REJECTED
//	                └───────► CANCELLED
//
// REJECTED and CANCELLED are terminal. Every transition has exactly one
// ledger effect; the transition table below is the single source of truth
// for both, so handlers never re-derive legality inline.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is a leave request's position in the approval workflow.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// RequestAction is a caller-initiated workflow operation on an existing request.
type RequestAction string

const (
	ActionApprove RequestAction = "approve"
	ActionReject  RequestAction = "reject"
	ActionCancel  RequestAction = "cancel"
)

// LedgerEffect names the balance mutation a transition entails.
type LedgerEffect int

const (
	// EffectCommit moves the request's days from pending to used.
	EffectCommit LedgerEffect = iota
	// EffectRelease returns the request's days from pending to available.
	EffectRelease
	// EffectReverse returns the request's days from used to available.
	EffectReverse
)

// transition is one legal (from, action) edge of the workflow.
type transition struct {
	Next   RequestStatus
	Effect LedgerEffect
}

// transitions lists every legal edge. Terminal states have none.
var transitions = map[RequestStatus]map[RequestAction]transition{
	StatusPending: {
		ActionApprove: {Next: StatusApproved, Effect: EffectCommit},
		ActionReject:  {Next: StatusRejected, Effect: EffectRelease},
		ActionCancel:  {Next: StatusCancelled, Effect: EffectRelease},
	},
	StatusApproved: {
		ActionCancel: {Next: StatusCancelled, Effect: EffectReverse},
	},
}

// Transition resolves the workflow edge for (current, action). ok is false
// when the current status does not permit the action; the caller reports
// InvalidTransition and must leave the ledger untouched.
func Transition(current RequestStatus, action RequestAction) (next RequestStatus, effect LedgerEffect, ok bool) {
	edge, found := transitions[current][action]
	if !found {
		return current, 0, false
	}
	return edge.Next, edge.Effect, true
}

// IsTerminal reports whether no action can move a request out of status.
func (s RequestStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// LeaveRequest is a single time-off application. TotalDays is fixed at
// submission; once the request reaches a terminal status only the comment
// thread may grow.
type LeaveRequest struct {
	Base
	EmployeeID  string `gorm:"type:uuid;not null;index" json:"employee_id"`
	LeaveTypeID string `gorm:"type:uuid;not null;index" json:"leave_type_id"`
	Year        int    `gorm:"not null;index" json:"year"`

	StartDate time.Time       `gorm:"not null" json:"start_date"`
	EndDate   time.Time       `gorm:"not null" json:"end_date"`
	TotalDays decimal.Decimal `gorm:"type:numeric;not null" json:"total_days"`

	Reason        string        `gorm:"not null" json:"reason"`
	AttachmentURL string        `json:"attachment_url,omitempty"`
	Status        RequestStatus `gorm:"not null;default:'pending';index" json:"status"`
	AppliedAt     time.Time     `gorm:"not null" json:"applied_at"`

	ApproverID *string    `gorm:"type:uuid" json:"approver_id,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	RejecterID      *string    `gorm:"type:uuid" json:"rejecter_id,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`

	CancellerID *string    `gorm:"type:uuid" json:"canceller_id,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Comments  []LeaveComment `gorm:"foreignKey:LeaveRequestID" json:"comments,omitempty"`
	Employee  Employee       `gorm:"foreignKey:EmployeeID" json:"-"`
	LeaveType LeaveType      `gorm:"foreignKey:LeaveTypeID" json:"leave_type,omitempty"`
}

// InclusiveDays returns the whole-day count between start and end,
// counting both endpoints. Dates are compared by calendar day in UTC.
func InclusiveDays(start, end time.Time) decimal.Decimal {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return decimal.Zero
	}
	days := int64(e.Sub(s).Hours()/24) + 1
	return decimal.NewFromInt(days)
}
