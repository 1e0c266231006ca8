package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "leavehub/internal/errors"
	"leavehub/internal/models"
	"leavehub/internal/pagination"
	"leavehub/internal/services"
)

// LeaveRequestHandler handles leave request lifecycle requests.
type LeaveRequestHandler struct {
	requestService services.LeaveRequestServicer
}

// NewLeaveRequestHandler creates a new LeaveRequestHandler.
func NewLeaveRequestHandler(requestService services.LeaveRequestServicer) *LeaveRequestHandler {
	return &LeaveRequestHandler{requestService: requestService}
}

// SubmitLeaveRequest represents the request payload for submitting a leave request
type SubmitLeaveRequest struct {
	EmployeeID    string `json:"employee_id" binding:"omitempty,uuid"`
	LeaveTypeID   string `json:"leave_type_id" binding:"required,uuid"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date" binding:"required"`
	Reason        string `json:"reason" binding:"required,max=1000"`
	AttachmentURL string `json:"attachment_url" binding:"omitempty,url,max=2048"`
}

// SubmitRequest handles the submission of a new leave request
// @Summary     Submit a leave request
// @Description Submit a leave request for a date range. The requested days are reserved against the balance immediately. Managers and admins may submit on behalf of another employee via employee_id.
// @Tags        leave-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SubmitLeaveRequest true "Leave request details"
// @Success     201 {object} models.LeaveRequest "Request submitted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Employee or leave type not found"
// @Failure     422 {object} ErrorResponse "Policy violation or insufficient balance"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-requests [post]
func (h *LeaveRequestHandler) SubmitRequest(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	employeeID := req.EmployeeID
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}

	request, err := h.requestService.Submit(actor, services.SubmitRequestInput{
		EmployeeID:    employeeID,
		LeaveTypeID:   req.LeaveTypeID,
		StartDate:     startDate,
		EndDate:       endDate,
		Reason:        req.Reason,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"leave_request": request})
}

// ApproveRequest handles the approval of a pending leave request
// @Summary     Approve a leave request
// @Description Approve a pending leave request, committing its reserved days as used (manager or admin only)
// @Tags        leave-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Leave request ID"
// @Success     200 {object} models.LeaveRequest "Approved request"
// @Failure     400 {object} ErrorResponse "Invalid request ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     409 {object} ErrorResponse "Request is not pending"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-requests/{id}/approve [post]
func (h *LeaveRequestHandler) ApproveRequest(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	request, err := h.requestService.Approve(actor, requestID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leave_request": request})
}

// RejectLeaveRequest represents the request payload for rejecting a leave request.
type RejectLeaveRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// RejectRequest handles the rejection of a pending leave request
// @Summary     Reject a leave request
// @Description Reject a pending leave request with a reason, releasing its reserved days (manager or admin only)
// @Tags        leave-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Leave request ID"
// @Param       request body RejectLeaveRequest true "Rejection reason"
// @Success     200 {object} models.LeaveRequest "Rejected request"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     409 {object} ErrorResponse "Request is not pending"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-requests/{id}/reject [post]
func (h *LeaveRequestHandler) RejectRequest(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RejectLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	request, err := h.requestService.Reject(actor, requestID, req.Reason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leave_request": request})
}

// CancelRequest handles the cancellation of a leave request
// @Summary     Cancel a leave request
// @Description Cancel a pending or approved leave request. The owner may cancel their own; managers and admins may cancel any. Reserved or used days are returned to the balance.
// @Tags        leave-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Leave request ID"
// @Success     200 {object} models.LeaveRequest "Cancelled request"
// @Failure     400 {object} ErrorResponse "Invalid request ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     409 {object} ErrorResponse "Request is already terminal"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-requests/{id}/cancel [post]
func (h *LeaveRequestHandler) CancelRequest(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	request, err := h.requestService.Cancel(actor, requestID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leave_request": request})
}

// UpdateDatesRequest represents the request payload for editing a pending request's dates.
type UpdateDatesRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// UpdateDates handles editing the date range of a pending request
// @Summary     Update request dates
// @Description Change the date range of a pending leave request. The old reservation is released and the new one reserved atomically; policy checks run against the new range. Owner only.
// @Tags        leave-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Leave request ID"
// @Param       request body UpdateDatesRequest true "New date range"
// @Success     200 {object} models.LeaveRequest "Updated request"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     409 {object} ErrorResponse "Request is not pending"
// @Failure     422 {object} ErrorResponse "Policy violation or insufficient balance"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-requests/{id}/dates [put]
func (h *LeaveRequestHandler) UpdateDates(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	request, err := h.requestService.UpdateDates(actor, requestID, startDate, endDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leave_request": request})
}

// AddCommentRequest represents the request payload for commenting on a leave request.
type AddCommentRequest struct {
	Body string `json:"body" binding:"required,max=2000"`
}

// AddComment handles appending a comment to a leave request
// @Summary     Comment on a leave request
// @Description Append a comment to a leave request's thread. Employees may comment only on their own requests.
// @Tags        leave-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Leave request ID"
// @Param       request body AddCommentRequest true "Comment body"
// @Success     201 {object} models.LeaveComment "Comment added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-requests/{id}/comments [post]
func (h *LeaveRequestHandler) AddComment(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	comment, err := h.requestService.AddComment(actor, requestID, req.Body)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetRequestByID handles the retrieval of a specific leave request
// @Summary     Get leave request by ID
// @Description Get a specific leave request with its comments. Employees see their own; managers additionally see their reports'.
// @Tags        leave-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Leave request ID"
// @Success     200 {object} models.LeaveRequest "Request details"
// @Failure     400 {object} ErrorResponse "Invalid request ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-requests/{id} [get]
func (h *LeaveRequestHandler) GetRequestByID(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	request, err := h.requestService.GetRequestByID(actor, requestID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leave_request": request})
}

// GetRequests handles the retrieval of leave requests visible to the caller
// @Summary     List leave requests
// @Description Get a paginated list of leave requests scoped by role: employees see their own, managers see their own plus their reports', admins see all. Optional status, year, and leave type filters.
// @Tags        leave-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Param       status        query string false "Filter by status (pending, approved, rejected, cancelled)"
// @Param       year          query int    false "Filter by ledger year"
// @Param       leave_type_id query string false "Filter by leave type ID"
// @Success     200 {object} pagination.PageResponse[models.LeaveRequest] "Paginated requests"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-requests [get]
func (h *LeaveRequestHandler) GetRequests(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	filter, err := parseRequestFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.requestService.GetRequests(actor, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseRequestFilter(c *gin.Context) (services.RequestFilter, error) {
	var filter services.RequestFilter

	if v := c.Query("status"); v != "" {
		status := models.RequestStatus(v)
		switch status {
		case models.StatusPending, models.StatusApproved, models.StatusRejected, models.StatusCancelled:
			filter.Status = &status
		default:
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "invalid status, must be pending, approved, rejected, or cancelled")
		}
	}

	if v := c.Query("year"); v != "" {
		year, err := parseYearQuery(c)
		if err != nil {
			return filter, err
		}
		filter.Year = &year
	}

	if v := c.Query("leave_type_id"); v != "" {
		id := v
		filter.LeaveTypeID = &id
	}

	return filter, nil
}
