package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"leavehub/internal/models"
	"leavehub/internal/pagination"
)

// LeaveTypeFields holds optional fields for a partial leave type update.
// Nil fields are left unchanged.
type LeaveTypeFields struct {
	Name                *string
	YearlyAllotment     *decimal.Decimal
	MaxConsecutiveDays  *int
	CarryForwardAllowed *bool
	CarryForwardCap     *decimal.Decimal
	EncashmentAllowed   *bool
	RequiresAttachment  *bool
	MinServiceMonths    *int
	ApplicableGender    *models.GenderScope
}

// LeaveTypeServicer defines the contract for leave type policy administration.
type LeaveTypeServicer interface {
	CreateLeaveType(leaveType *models.LeaveType) (*models.LeaveType, error)
	UpdateLeaveType(leaveTypeID string, fields LeaveTypeFields) (*models.LeaveType, error)
	DeactivateLeaveType(leaveTypeID string) error
	GetLeaveTypeByID(leaveTypeID string) (*models.LeaveType, error)
	GetLeaveTypes(page pagination.PageRequest, includeInactive bool) (*pagination.PageResponse[models.LeaveType], error)
}

// BalanceAdjustment holds the non-consumption buckets an administrator may
// edit directly. Nil fields are left unchanged.
type BalanceAdjustment struct {
	Allocated      *decimal.Decimal
	CarriedForward *decimal.Decimal
	Encashed       *decimal.Decimal
	Reason         string
}

// BalanceServicer is the leave balance ledger. Every mutating operation is
// a single atomic read-modify-write scoped to one (employee, leave type,
// year) key; the Tx variants run inside a caller-owned transaction so a
// request's status change and its ledger effect commit as one unit.
type BalanceServicer interface {
	Initialize(employeeID string, year int) ([]models.LeaveBalance, error)
	Reserve(employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error)
	Commit(employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error)
	Release(employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error)
	Reverse(employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error)
	Adjust(actorID, employeeID, leaveTypeID string, year int, adj BalanceAdjustment) (*models.LeaveBalance, error)
	Rollover(actorID, employeeID string, fromYear int) ([]models.LeaveBalance, error)
	GetEmployeeBalances(employeeID string, year int) ([]models.LeaveBalance, error)

	ReserveTx(tx *gorm.DB, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error)
	ReleaseTx(tx *gorm.DB, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error)
	ApplyEffectTx(tx *gorm.DB, effect models.LedgerEffect, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error)
}

// RequestFilter holds optional filter parameters for listing leave requests.
type RequestFilter struct {
	Status      *models.RequestStatus
	Year        *int
	LeaveTypeID *string
}

// Actor is the resolved identity a handler passes down: the caller's
// employee ID and role. The core trusts this pair and performs no
// authentication of its own.
type Actor struct {
	EmployeeID string
	Role       string
}

// Roles the middleware resolves from token claims.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// SubmitRequestInput carries a new leave request.
type SubmitRequestInput struct {
	EmployeeID    string
	LeaveTypeID   string
	StartDate     time.Time
	EndDate       time.Time
	Reason        string
	AttachmentURL string
}

// LeaveRequestServicer drives the request state machine. Status
// transitions and their ledger effects are applied atomically.
type LeaveRequestServicer interface {
	Submit(actor Actor, input SubmitRequestInput) (*models.LeaveRequest, error)
	Approve(actor Actor, requestID string) (*models.LeaveRequest, error)
	Reject(actor Actor, requestID, reason string) (*models.LeaveRequest, error)
	Cancel(actor Actor, requestID string) (*models.LeaveRequest, error)
	UpdateDates(actor Actor, requestID string, startDate, endDate time.Time) (*models.LeaveRequest, error)
	AddComment(actor Actor, requestID, body string) (*models.LeaveComment, error)
	GetRequestByID(actor Actor, requestID string) (*models.LeaveRequest, error)
	GetRequests(actor Actor, page pagination.PageRequest, filter RequestFilter) (*pagination.PageResponse[models.LeaveRequest], error)
}

// EventServicer is the notification/audit sink. Publishing is
// fire-and-forget: failures are logged and never propagate to the
// operation that produced the event.
type EventServicer interface {
	Publish(actorID, action, entityType, entityID string, snapshot interface{})
}

// StatusBreakdown is the per-status request count for one year.
type StatusBreakdown struct {
	Year   int                            `json:"year"`
	Counts map[models.RequestStatus]int64 `json:"counts"`
}

// TypeUtilization aggregates one leave type's allocation against its use.
type TypeUtilization struct {
	LeaveTypeID    string          `json:"leave_type_id"`
	LeaveTypeName  string          `json:"leave_type_name"`
	Allocated      decimal.Decimal `json:"allocated"`
	Used           decimal.Decimal `json:"used"`
	UtilizationPct float64         `json:"utilization_pct"`
}

// ReportServicer provides read-only aggregation over balances and
// requests. No write path.
type ReportServicer interface {
	GetStatusBreakdown(year int) (*StatusBreakdown, error)
	GetUtilization(year int) ([]TypeUtilization, error)
}
