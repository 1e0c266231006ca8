package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "leavehub/internal/errors"
	"leavehub/internal/models"
	"leavehub/internal/pagination"
)

// leaveRequestService drives the request state machine. Every transition
// applies the request update and its ledger effect in one database
// transaction: if either side fails, neither is persisted.
type leaveRequestService struct {
	db       *gorm.DB
	balances BalanceServicer
	events   EventServicer
}

// NewLeaveRequestService creates a new LeaveRequestServicer.
func NewLeaveRequestService(db *gorm.DB, balances BalanceServicer, events EventServicer) LeaveRequestServicer {
	return &leaveRequestService{db: db, balances: balances, events: events}
}

// Submit validates a new request against the employee profile, the leave
// type policy, and the ledger, then creates it in pending status with its
// days reserved.
func (s *leaveRequestService) Submit(actor Actor, input SubmitRequestInput) (*models.LeaveRequest, error) {
	if input.EmployeeID == "" {
		input.EmployeeID = actor.EmployeeID
	}
	if input.EmployeeID != actor.EmployeeID && actor.Role == RoleEmployee {
		return nil, apperrors.ErrForbidden
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "reason is required")
	}

	start := dateOnly(input.StartDate)
	end := dateOnly(input.EndDate)
	if !end.After(start) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "end date must be after start date")
	}
	if start.Year() != end.Year() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "a request cannot span calendar years")
	}

	now := time.Now()
	totalDays := models.InclusiveDays(start, end)

	var request *models.LeaveRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		employee, err := s.loadEmployee(tx, input.EmployeeID)
		if err != nil {
			return err
		}

		leaveType, err := s.loadLeaveType(tx, input.LeaveTypeID)
		if err != nil {
			return err
		}
		if err := s.checkPolicy(employee, leaveType, input.AttachmentURL, totalDays, now); err != nil {
			return err
		}

		if _, err := s.balances.ReserveTx(tx, employee.ID, leaveType.ID, start.Year(), totalDays); err != nil {
			return err
		}

		request = &models.LeaveRequest{
			EmployeeID:    employee.ID,
			LeaveTypeID:   leaveType.ID,
			Year:          start.Year(),
			StartDate:     start,
			EndDate:       end,
			TotalDays:     totalDays,
			Reason:        strings.TrimSpace(input.Reason),
			AttachmentURL: input.AttachmentURL,
			Status:        models.StatusPending,
			AppliedAt:     now,
		}
		if err := tx.Create(request).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(actor.EmployeeID, models.EventRequestSubmitted, "leave_request", request.ID, request)
	return request, nil
}

// Approve moves a pending request to approved and commits its days.
func (s *leaveRequestService) Approve(actor Actor, requestID string) (*models.LeaveRequest, error) {
	if actor.Role != RoleManager && actor.Role != RoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	request, err := s.transition(requestID, models.ActionApprove, func(req *models.LeaveRequest, now time.Time) {
		req.ApproverID = &actor.EmployeeID
		req.ApprovedAt = &now
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(actor.EmployeeID, models.EventRequestApproved, "leave_request", request.ID, request)
	return request, nil
}

// Reject moves a pending request to rejected, releasing its days. A
// rejection reason is required.
func (s *leaveRequestService) Reject(actor Actor, requestID, reason string) (*models.LeaveRequest, error) {
	if actor.Role != RoleManager && actor.Role != RoleAdmin {
		return nil, apperrors.ErrForbidden
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "rejection reason is required")
	}

	request, err := s.transition(requestID, models.ActionReject, func(req *models.LeaveRequest, now time.Time) {
		req.RejecterID = &actor.EmployeeID
		req.RejectionReason = strings.TrimSpace(reason)
		req.RejectedAt = &now
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(actor.EmployeeID, models.EventRequestRejected, "leave_request", request.ID, request)
	return request, nil
}

// Cancel withdraws a request. Pending requests release their reservation;
// approved requests reverse their consumed days. Only the owning employee
// or a manager/admin may cancel.
func (s *leaveRequestService) Cancel(actor Actor, requestID string) (*models.LeaveRequest, error) {
	request, err := s.transition(requestID, models.ActionCancel, func(req *models.LeaveRequest, now time.Time) {
		req.CancellerID = &actor.EmployeeID
		req.CancelledAt = &now
	}, func(req *models.LeaveRequest) error {
		if req.EmployeeID != actor.EmployeeID && actor.Role == RoleEmployee {
			return apperrors.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(actor.EmployeeID, models.EventRequestCancelled, "leave_request", request.ID, request)
	return request, nil
}

// transition resolves the workflow edge for the action and applies the
// status change together with its ledger effect in one transaction.
// Guards run after the request is loaded but before anything mutates.
func (s *leaveRequestService) transition(
	requestID string,
	action models.RequestAction,
	mutate func(req *models.LeaveRequest, now time.Time),
	guards ...func(req *models.LeaveRequest) error,
) (*models.LeaveRequest, error) {
	var request models.LeaveRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("id = ?", requestID).First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrRequestNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for _, guard := range guards {
			if err := guard(&request); err != nil {
				return err
			}
		}

		next, effect, ok := models.Transition(request.Status, action)
		if !ok {
			return apperrors.WithMessage(apperrors.ErrInvalidTransition,
				fmt.Sprintf("cannot %s a request in status %q", action, request.Status))
		}

		if _, err := s.balances.ApplyEffectTx(tx, effect, request.EmployeeID, request.LeaveTypeID, request.Year, request.TotalDays); err != nil {
			return err
		}

		now := time.Now()
		request.Status = next
		mutate(&request, now)
		if err := tx.Save(&request).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateDates edits a pending request's date range. The old reservation is
// released and the new one reserved in the same transaction, so the edit
// either fully re-validates against policy and balance or changes nothing.
func (s *leaveRequestService) UpdateDates(actor Actor, requestID string, startDate, endDate time.Time) (*models.LeaveRequest, error) {
	start := dateOnly(startDate)
	end := dateOnly(endDate)
	if !end.After(start) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "end date must be after start date")
	}
	if start.Year() != end.Year() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "a request cannot span calendar years")
	}

	newDays := models.InclusiveDays(start, end)
	now := time.Now()

	var request models.LeaveRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("id = ?", requestID).First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrRequestNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if request.EmployeeID != actor.EmployeeID {
			return apperrors.ErrForbidden
		}
		if request.Status != models.StatusPending {
			return apperrors.WithMessage(apperrors.ErrInvalidTransition,
				fmt.Sprintf("cannot edit dates of a request in status %q", request.Status))
		}

		employee, err := s.loadEmployee(tx, request.EmployeeID)
		if err != nil {
			return err
		}
		leaveType, err := s.loadLeaveType(tx, request.LeaveTypeID)
		if err != nil {
			return err
		}
		if err := s.checkPolicy(employee, leaveType, request.AttachmentURL, newDays, now); err != nil {
			return err
		}

		if _, err := s.balances.ReleaseTx(tx, request.EmployeeID, request.LeaveTypeID, request.Year, request.TotalDays); err != nil {
			return err
		}
		if _, err := s.balances.ReserveTx(tx, request.EmployeeID, request.LeaveTypeID, start.Year(), newDays); err != nil {
			return err
		}

		request.StartDate = start
		request.EndDate = end
		request.Year = start.Year()
		request.TotalDays = newDays
		if err := tx.Save(&request).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// AddComment appends to a request's comment thread. Comments are allowed
// at any status and never touch the ledger.
func (s *leaveRequestService) AddComment(actor Actor, requestID, body string) (*models.LeaveComment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "comment body is required")
	}

	var request models.LeaveRequest
	if err := s.db.Where("id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if actor.Role == RoleEmployee && request.EmployeeID != actor.EmployeeID {
		return nil, apperrors.ErrForbidden
	}

	comment := &models.LeaveComment{
		LeaveRequestID: request.ID,
		AuthorID:       actor.EmployeeID,
		Body:           strings.TrimSpace(body),
	}
	if err := s.db.Create(comment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return comment, nil
}

// GetRequestByID retrieves a request with its comment thread, enforcing
// the caller's visibility.
func (s *leaveRequestService) GetRequestByID(actor Actor, requestID string) (*models.LeaveRequest, error) {
	var request models.LeaveRequest
	if err := s.db.Preload("Comments").Preload("LeaveType").
		Where("id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if actor.Role == RoleEmployee && request.EmployeeID != actor.EmployeeID {
		return nil, apperrors.ErrRequestNotFound
	}
	if actor.Role == RoleManager && request.EmployeeID != actor.EmployeeID {
		reports, err := s.reportIDs(actor.EmployeeID)
		if err != nil {
			return nil, err
		}
		if !contains(reports, request.EmployeeID) {
			return nil, apperrors.ErrRequestNotFound
		}
	}
	return &request, nil
}

// GetRequests lists requests visible to the actor: employees see their
// own, managers their reports' plus their own, admins everything.
func (s *leaveRequestService) GetRequests(actor Actor, page pagination.PageRequest, filter RequestFilter) (*pagination.PageResponse[models.LeaveRequest], error) {
	page.Defaults()

	base := s.db.Model(&models.LeaveRequest{})
	switch actor.Role {
	case RoleEmployee:
		base = base.Where("employee_id = ?", actor.EmployeeID)
	case RoleManager:
		reports, err := s.reportIDs(actor.EmployeeID)
		if err != nil {
			return nil, err
		}
		base = base.Where("employee_id IN ?", append(reports, actor.EmployeeID))
	}

	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.Year != nil {
		base = base.Where("year = ?", *filter.Year)
	}
	if filter.LeaveTypeID != nil {
		base = base.Where("leave_type_id = ?", *filter.LeaveTypeID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var requests []models.LeaveRequest
	if err := base.Scopes(pagination.Paginate(page)).
		Order("applied_at DESC").
		Find(&requests).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(requests, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *leaveRequestService) loadEmployee(tx *gorm.DB, employeeID string) (*models.Employee, error) {
	var employee models.Employee
	if err := tx.Where("id = ?", employeeID).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEmployeeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !employee.IsActive {
		return nil, apperrors.ErrEmployeeInactive
	}
	return &employee, nil
}

func (s *leaveRequestService) loadLeaveType(tx *gorm.DB, leaveTypeID string) (*models.LeaveType, error) {
	var leaveType models.LeaveType
	if err := tx.Where("id = ?", leaveTypeID).First(&leaveType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLeaveTypeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &leaveType, nil
}

// checkPolicy enforces the leave type's eligibility and per-request rules.
func (s *leaveRequestService) checkPolicy(employee *models.Employee, leaveType *models.LeaveType, attachmentURL string, totalDays decimal.Decimal, at time.Time) error {
	if !leaveType.IsActive {
		return apperrors.WithMessage(apperrors.ErrPolicyViolation, "leave type is no longer active")
	}
	if !leaveType.ApplicableGender.AppliesTo(employee.Gender) {
		return apperrors.WithMessage(apperrors.ErrPolicyViolation, "leave type does not apply to this employee")
	}
	if employee.MonthsOfService(at) < leaveType.MinServiceMonths {
		return apperrors.WithMessage(apperrors.ErrPolicyViolation,
			fmt.Sprintf("requires %d months of service", leaveType.MinServiceMonths))
	}
	if leaveType.RequiresAttachment && strings.TrimSpace(attachmentURL) == "" {
		return apperrors.WithMessage(apperrors.ErrPolicyViolation, "a supporting attachment is required")
	}
	if totalDays.GreaterThan(decimal.NewFromInt(int64(leaveType.MaxConsecutiveDays))) {
		return apperrors.WithMessage(apperrors.ErrPolicyViolation,
			fmt.Sprintf("exceeds the maximum of %d consecutive days", leaveType.MaxConsecutiveDays))
	}
	return nil
}

// reportIDs returns the employee IDs directly managed by managerID.
func (s *leaveRequestService) reportIDs(managerID string) ([]string, error) {
	var ids []string
	if err := s.db.Model(&models.Employee{}).
		Where("manager_id = ?", managerID).
		Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ids, nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// dateOnly truncates a timestamp to its calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
