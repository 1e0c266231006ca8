package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "leavehub/internal/errors"
	"leavehub/internal/models"
	"leavehub/internal/pagination"
	"leavehub/internal/services"
)

// LeaveTypeHandler handles leave type policy administration requests.
type LeaveTypeHandler struct {
	leaveTypeService services.LeaveTypeServicer
}

// NewLeaveTypeHandler creates a new LeaveTypeHandler.
func NewLeaveTypeHandler(leaveTypeService services.LeaveTypeServicer) *LeaveTypeHandler {
	return &LeaveTypeHandler{leaveTypeService: leaveTypeService}
}

// CreateLeaveTypeRequest represents the request payload for creating a leave type
type CreateLeaveTypeRequest struct {
	Name                string             `json:"name" binding:"required,max=100"`
	YearlyAllotment     decimal.Decimal    `json:"yearly_allotment" binding:"required"`
	MaxConsecutiveDays  int                `json:"max_consecutive_days" binding:"required,gte=1"`
	CarryForwardAllowed bool               `json:"carry_forward_allowed"`
	CarryForwardCap     decimal.Decimal    `json:"carry_forward_cap"`
	EncashmentAllowed   bool               `json:"encashment_allowed"`
	RequiresAttachment  bool               `json:"requires_attachment"`
	MinServiceMonths    int                `json:"min_service_months" binding:"gte=0"`
	ApplicableGender    models.GenderScope `json:"applicable_gender" binding:"omitempty,gender_scope"`
}

// CreateLeaveType handles the creation of a new leave type policy
// @Summary     Create a leave type
// @Description Create a new leave type policy (admin only)
// @Tags        leave-types
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLeaveTypeRequest true "Leave type policy"
// @Success     201 {object} models.LeaveType "Leave type created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-types [post]
func (h *LeaveTypeHandler) CreateLeaveType(c *gin.Context) {
	var req CreateLeaveTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	gender := req.ApplicableGender
	if gender == "" {
		gender = models.GenderScopeAll
	}

	leaveType, err := h.leaveTypeService.CreateLeaveType(&models.LeaveType{
		Name:                req.Name,
		YearlyAllotment:     req.YearlyAllotment,
		MaxConsecutiveDays:  req.MaxConsecutiveDays,
		CarryForwardAllowed: req.CarryForwardAllowed,
		CarryForwardCap:     req.CarryForwardCap,
		EncashmentAllowed:   req.EncashmentAllowed,
		RequiresAttachment:  req.RequiresAttachment,
		MinServiceMonths:    req.MinServiceMonths,
		ApplicableGender:    gender,
		IsActive:            true,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"leave_type": leaveType})
}

// UpdateLeaveTypeRequest represents the request payload for updating a leave type.
type UpdateLeaveTypeRequest struct {
	Name                *string             `json:"name" binding:"omitempty,max=100"`
	YearlyAllotment     *decimal.Decimal    `json:"yearly_allotment"`
	MaxConsecutiveDays  *int                `json:"max_consecutive_days" binding:"omitempty,gte=1"`
	CarryForwardAllowed *bool               `json:"carry_forward_allowed"`
	CarryForwardCap     *decimal.Decimal    `json:"carry_forward_cap"`
	EncashmentAllowed   *bool               `json:"encashment_allowed"`
	RequiresAttachment  *bool               `json:"requires_attachment"`
	MinServiceMonths    *int                `json:"min_service_months" binding:"omitempty,gte=0"`
	ApplicableGender    *models.GenderScope `json:"applicable_gender" binding:"omitempty,gender_scope"`
}

// UpdateLeaveType handles updating an existing leave type policy
// @Summary     Update leave type
// @Description Update an existing leave type policy. Changes affect future requests only. (admin only)
// @Tags        leave-types
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Leave type ID"
// @Param       request body UpdateLeaveTypeRequest true "Fields to update"
// @Success     200 {object} models.LeaveType "Updated leave type"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Leave type not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-types/{id} [put]
func (h *LeaveTypeHandler) UpdateLeaveType(c *gin.Context) {
	leaveTypeID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateLeaveTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	leaveType, err := h.leaveTypeService.UpdateLeaveType(leaveTypeID, services.LeaveTypeFields{
		Name:                req.Name,
		YearlyAllotment:     req.YearlyAllotment,
		MaxConsecutiveDays:  req.MaxConsecutiveDays,
		CarryForwardAllowed: req.CarryForwardAllowed,
		CarryForwardCap:     req.CarryForwardCap,
		EncashmentAllowed:   req.EncashmentAllowed,
		RequiresAttachment:  req.RequiresAttachment,
		MinServiceMonths:    req.MinServiceMonths,
		ApplicableGender:    req.ApplicableGender,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leave_type": leaveType})
}

// DeactivateLeaveType handles retiring a leave type policy
// @Summary     Deactivate leave type
// @Description Deactivate a leave type so no new requests can use it. Existing requests and balances are untouched. (admin only)
// @Tags        leave-types
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Leave type ID"
// @Success     200 {object} MessageResponse "Leave type deactivated"
// @Failure     400 {object} ErrorResponse "Invalid leave type ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Leave type not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-types/{id} [delete]
func (h *LeaveTypeHandler) DeactivateLeaveType(c *gin.Context) {
	leaveTypeID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.leaveTypeService.DeactivateLeaveType(leaveTypeID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Leave type deactivated successfully"})
}

// GetLeaveTypeByID handles the retrieval of a specific leave type
// @Summary     Get leave type by ID
// @Description Get a specific leave type policy by ID
// @Tags        leave-types
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Leave type ID"
// @Success     200 {object} models.LeaveType "Leave type details"
// @Failure     400 {object} ErrorResponse "Invalid leave type ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Leave type not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-types/{id} [get]
func (h *LeaveTypeHandler) GetLeaveTypeByID(c *gin.Context) {
	leaveTypeID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	leaveType, err := h.leaveTypeService.GetLeaveTypeByID(leaveTypeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leave_type": leaveType})
}

// GetLeaveTypes handles the retrieval of all leave types
// @Summary     List leave types
// @Description Get a paginated list of leave type policies
// @Tags        leave-types
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page             query int    false "Page number (default 1)"
// @Param       page_size        query int    false "Items per page (default 20, max 100)"
// @Param       include_inactive query bool   false "Include deactivated leave types"
// @Success     200 {object} pagination.PageResponse[models.LeaveType] "Paginated leave types"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leave-types [get]
func (h *LeaveTypeHandler) GetLeaveTypes(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	includeInactive := c.Query("include_inactive") == "true"

	result, err := h.leaveTypeService.GetLeaveTypes(page, includeInactive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
