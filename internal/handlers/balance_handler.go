package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "leavehub/internal/errors"
	"leavehub/internal/services"
)

// BalanceHandler handles leave balance ledger requests.
type BalanceHandler struct {
	balanceService services.BalanceServicer
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceService services.BalanceServicer) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

// InitializeBalancesRequest represents the request payload for seeding an
// employee's balances for a year.
type InitializeBalancesRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	Year       int    `json:"year" binding:"required,gte=1900,lte=9999"`
}

// InitializeBalances handles seeding one balance row per active leave type
// @Summary     Initialize balances
// @Description Create one balance row per applicable active leave type for an employee and year. Idempotent: existing rows are left untouched. (admin only)
// @Tags        balances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body InitializeBalancesRequest true "Employee and year"
// @Success     201 {array} models.LeaveBalance "Balances for the year"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Employee not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balances/initialize [post]
func (h *BalanceHandler) InitializeBalances(c *gin.Context) {
	var req InitializeBalancesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	balances, err := h.balanceService.Initialize(req.EmployeeID, req.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"balances": balances})
}

// RolloverRequest represents the request payload for year-end rollover.
type RolloverRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	FromYear   int    `json:"from_year" binding:"required,gte=1900,lte=9999"`
}

// Rollover handles year-end carry-forward and encashment
// @Summary     Roll balances into the next year
// @Description Close out an employee's balances for a year: carry forward leftover days up to each type's cap, encash the rest where allowed, and seed next year's rows. Idempotent per leave type. (admin only)
// @Tags        balances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RolloverRequest true "Employee and source year"
// @Success     200 {array} models.LeaveBalance "Next year's balances"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Employee not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balances/rollover [post]
func (h *BalanceHandler) Rollover(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	balances, err := h.balanceService.Rollover(actor.EmployeeID, req.EmployeeID, req.FromYear)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

// GetMyBalances handles the retrieval of the caller's own balances
// @Summary     Get own balances
// @Description Get the authenticated employee's leave balances for a year
// @Tags        balances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (default current year)"
// @Success     200 {array} models.LeaveBalance "Balances"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balances [get]
func (h *BalanceHandler) GetMyBalances(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := parseYearQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.balanceService.GetEmployeeBalances(actor.EmployeeID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

// GetEmployeeBalances handles the retrieval of another employee's balances
// @Summary     Get an employee's balances
// @Description Get a specific employee's leave balances for a year (manager or admin only)
// @Tags        balances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true  "Employee ID"
// @Param       year query int    false "Year (default current year)"
// @Success     200 {array} models.LeaveBalance "Balances"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /employees/{id}/balances [get]
func (h *BalanceHandler) GetEmployeeBalances(c *gin.Context) {
	employeeID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := parseYearQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.balanceService.GetEmployeeBalances(employeeID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

// AdjustBalanceRequest represents the request payload for a manual balance edit.
type AdjustBalanceRequest struct {
	Allocated      *decimal.Decimal `json:"allocated"`
	CarriedForward *decimal.Decimal `json:"carried_forward"`
	Encashed       *decimal.Decimal `json:"encashed"`
	Reason         string           `json:"reason" binding:"required,max=500"`
}

// AdjustBalance handles a manual edit of a balance's grant buckets
// @Summary     Adjust a balance
// @Description Manually edit the allocated, carried-forward, or encashed buckets of one balance. Used and pending are never editable. The edit is rejected if it would drive remaining negative. (admin only)
// @Tags        balances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       employeeID  path string true "Employee ID"
// @Param       leaveTypeID path string true "Leave type ID"
// @Param       year        path int    true "Year"
// @Param       request     body AdjustBalanceRequest true "Buckets to change and reason"
// @Success     200 {object} models.LeaveBalance "Adjusted balance"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Balance not found"
// @Failure     422 {object} ErrorResponse "Adjustment would drive remaining negative"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balances/{employeeID}/{leaveTypeID}/{year}/adjust [post]
func (h *BalanceHandler) AdjustBalance(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	employeeID, err := parsePathUUID(c, "employeeID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	leaveTypeID, err := parsePathUUID(c, "leaveTypeID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > 9999 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "invalid year"))
		return
	}

	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	balance, err := h.balanceService.Adjust(actor.EmployeeID, employeeID, leaveTypeID, year, services.BalanceAdjustment{
		Allocated:      req.Allocated,
		CarriedForward: req.CarriedForward,
		Encashed:       req.Encashed,
		Reason:         req.Reason,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
