// Package errors provides custom error types for the LeaveHub API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code, so errors.Is works on derived errors
// produced by Wrap and WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrValidation     = &AppError{Code: "VALIDATION_ERROR", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Employee errors.
var (
	ErrEmployeeNotFound = &AppError{Code: "EMPLOYEE_NOT_FOUND", Message: "Employee not found", StatusCode: http.StatusNotFound}
	ErrEmployeeInactive = &AppError{Code: "EMPLOYEE_INACTIVE", Message: "Employee is not active", StatusCode: http.StatusUnprocessableEntity}
)

// Leave type errors.
var (
	ErrLeaveTypeNotFound  = &AppError{Code: "LEAVE_TYPE_NOT_FOUND", Message: "Leave type not found", StatusCode: http.StatusNotFound}
	ErrDuplicateLeaveType = &AppError{Code: "DUPLICATE_LEAVE_TYPE", Message: "A leave type with this name already exists", StatusCode: http.StatusConflict}
	ErrPolicyViolation    = &AppError{Code: "POLICY_VIOLATION", Message: "Request violates the leave type policy", StatusCode: http.StatusUnprocessableEntity}
)

// Balance ledger errors.
var (
	ErrBalanceNotFound     = &AppError{Code: "BALANCE_NOT_FOUND", Message: "Leave balance not found", StatusCode: http.StatusNotFound}
	ErrInsufficientBalance = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient leave balance", StatusCode: http.StatusUnprocessableEntity}

	// ErrInvariantViolation marks a ledger state that must be unreachable
	// through normal request transitions. It signals a defect, not a user
	// error; callers abort the operation and log it distinctly.
	ErrInvariantViolation = &AppError{Code: "INVARIANT_VIOLATION", Message: "Leave balance is in an inconsistent state", StatusCode: http.StatusInternalServerError}
)

// Leave request errors.
var (
	ErrRequestNotFound   = &AppError{Code: "REQUEST_NOT_FOUND", Message: "Leave request not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransition = &AppError{Code: "INVALID_TRANSITION", Message: "Current status does not permit this action", StatusCode: http.StatusConflict}
)
