package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "leavehub/internal/errors"
	"leavehub/internal/logger"
	"leavehub/internal/models"
)

// balanceService implements the leave balance ledger.
//
// Concurrency model: two operations on the same (employee, leave type,
// year) key must never interleave their read-modify-write, or a racing
// pair of reservations can both pass the remaining-balance check. Every
// mutation therefore runs in a database transaction and locks the balance
// row with SELECT ... FOR UPDATE on PostgreSQL. SQLite (tests) has a
// single writer, which serializes the same way. Operations on different
// keys never block each other.
type balanceService struct {
	db     *gorm.DB
	events EventServicer
}

// NewBalanceService creates a new BalanceServicer.
func NewBalanceService(db *gorm.DB, events EventServicer) BalanceServicer {
	return &balanceService{db: db, events: events}
}

// lockForUpdate adds a row lock on dialects that support it.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func validateDays(days decimal.Decimal) error {
	if !days.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrValidation, "days must be greater than zero")
	}
	return nil
}

// Initialize creates a balance for every active leave type the employee
// does not yet have one for in the given year, allocated from the type's
// yearly allotment. Re-running it is a no-op for existing balances.
func (s *balanceService) Initialize(employeeID string, year int) ([]models.LeaveBalance, error) {
	var balances []models.LeaveBalance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		balances, txErr = s.initializeTx(tx, employeeID, year)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}

func (s *balanceService) initializeTx(tx *gorm.DB, employeeID string, year int) ([]models.LeaveBalance, error) {
	var employee models.Employee
	if err := tx.Where("id = ?", employeeID).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEmployeeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var leaveTypes []models.LeaveType
	if err := tx.Where("is_active = ?", true).Find(&leaveTypes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var balances []models.LeaveBalance
	for i := range leaveTypes {
		lt := &leaveTypes[i]
		if !lt.ApplicableGender.AppliesTo(employee.Gender) {
			continue
		}

		var balance models.LeaveBalance
		err := tx.Where("employee_id = ? AND leave_type_id = ? AND year = ?",
			employeeID, lt.ID, year).First(&balance).Error
		if err == nil {
			balances = append(balances, balance)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		balance = models.LeaveBalance{
			EmployeeID:     employeeID,
			LeaveTypeID:    lt.ID,
			Year:           year,
			Allocated:      lt.YearlyAllotment,
			Used:           decimal.Zero,
			Pending:        decimal.Zero,
			CarriedForward: decimal.Zero,
			Encashed:       decimal.Zero,
		}
		balance.Recompute()
		if err := tx.Create(&balance).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		balances = append(balances, balance)
	}
	return balances, nil
}

// lockBalance loads the balance row for the key under a row lock.
func (s *balanceService) lockBalance(tx *gorm.DB, employeeID, leaveTypeID string, year int) (*models.LeaveBalance, error) {
	var balance models.LeaveBalance
	err := lockForUpdate(tx).
		Where("employee_id = ? AND leave_type_id = ? AND year = ?", employeeID, leaveTypeID, year).
		First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &balance, nil
}

// saveBalance recomputes the derived remaining bucket and persists the
// full set of buckets together.
func (s *balanceService) saveBalance(tx *gorm.DB, balance *models.LeaveBalance) error {
	balance.Recompute()
	updates := map[string]interface{}{
		"allocated":       balance.Allocated,
		"used":            balance.Used,
		"pending":         balance.Pending,
		"carried_forward": balance.CarriedForward,
		"encashed":        balance.Encashed,
		"remaining":       balance.Remaining,
	}
	if err := tx.Model(balance).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// invariantViolation logs the defect distinctly and returns the sentinel.
// This path must be unreachable through normal request transitions.
func (s *balanceService) invariantViolation(balance *models.LeaveBalance, op string, days decimal.Decimal) error {
	logger.Get().Errorw("ledger invariant violation",
		"op", op,
		"employee_id", balance.EmployeeID,
		"leave_type_id", balance.LeaveTypeID,
		"year", balance.Year,
		"days", days.String(),
		"pending", balance.Pending.String(),
		"used", balance.Used.String(),
		"remaining", balance.Remaining.String(),
	)
	return apperrors.WithMessage(apperrors.ErrInvariantViolation,
		fmt.Sprintf("cannot %s %s days", op, days.String()))
}

// ReserveTx moves days into pending after an atomic remaining-balance
// check. The balance row is created from the leave type's allotment when
// the employee has never touched this key before.
func (s *balanceService) ReserveTx(tx *gorm.DB, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	balance, err := s.lockBalance(tx, employeeID, leaveTypeID, year)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance, err = s.createBalance(tx, employeeID, leaveTypeID, year)
	}
	if err != nil {
		return nil, err
	}

	if balance.Remaining.LessThan(days) {
		return nil, apperrors.WithMessage(apperrors.ErrInsufficientBalance,
			fmt.Sprintf("requested %s days but only %s remaining", days.String(), balance.Remaining.String()))
	}

	balance.Pending = balance.Pending.Add(days)
	if err := s.saveBalance(tx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// createBalance initializes a single key's row on first use.
func (s *balanceService) createBalance(tx *gorm.DB, employeeID, leaveTypeID string, year int) (*models.LeaveBalance, error) {
	var leaveType models.LeaveType
	if err := tx.Where("id = ?", leaveTypeID).First(&leaveType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLeaveTypeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance := &models.LeaveBalance{
		EmployeeID:     employeeID,
		LeaveTypeID:    leaveTypeID,
		Year:           year,
		Allocated:      leaveType.YearlyAllotment,
		Used:           decimal.Zero,
		Pending:        decimal.Zero,
		CarriedForward: decimal.Zero,
		Encashed:       decimal.Zero,
	}
	balance.Recompute()
	if err := tx.Create(balance).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balance, nil
}

// commitTx moves days from pending to used.
func (s *balanceService) commitTx(tx *gorm.DB, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	balance, err := s.lockBalance(tx, employeeID, leaveTypeID, year)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInvariantViolation, err)
	}
	if err != nil {
		return nil, err
	}

	if balance.Pending.LessThan(days) {
		return nil, s.invariantViolation(balance, "commit", days)
	}
	balance.Pending = balance.Pending.Sub(days)
	balance.Used = balance.Used.Add(days)
	if err := s.saveBalance(tx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// ReleaseTx moves days out of pending back to availability.
func (s *balanceService) ReleaseTx(tx *gorm.DB, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	balance, err := s.lockBalance(tx, employeeID, leaveTypeID, year)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInvariantViolation, err)
	}
	if err != nil {
		return nil, err
	}

	if balance.Pending.LessThan(days) {
		return nil, s.invariantViolation(balance, "release", days)
	}
	balance.Pending = balance.Pending.Sub(days)
	if err := s.saveBalance(tx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// reverseTx moves days out of used back to availability.
func (s *balanceService) reverseTx(tx *gorm.DB, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	balance, err := s.lockBalance(tx, employeeID, leaveTypeID, year)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInvariantViolation, err)
	}
	if err != nil {
		return nil, err
	}

	if balance.Used.LessThan(days) {
		return nil, s.invariantViolation(balance, "reverse", days)
	}
	balance.Used = balance.Used.Sub(days)
	if err := s.saveBalance(tx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// ApplyEffectTx applies the ledger effect a workflow transition resolved to.
func (s *balanceService) ApplyEffectTx(tx *gorm.DB, effect models.LedgerEffect, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error) {
	switch effect {
	case models.EffectCommit:
		return s.commitTx(tx, employeeID, leaveTypeID, year, days)
	case models.EffectRelease:
		return s.ReleaseTx(tx, employeeID, leaveTypeID, year, days)
	case models.EffectReverse:
		return s.reverseTx(tx, employeeID, leaveTypeID, year, days)
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInternalServer, "unknown ledger effect")
	}
}

// Reserve runs ReserveTx in its own transaction.
func (s *balanceService) Reserve(employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error) {
	return s.inOwnTx(func(tx *gorm.DB) (*models.LeaveBalance, error) {
		return s.ReserveTx(tx, employeeID, leaveTypeID, year, days)
	})
}

// Commit runs the pending-to-used move in its own transaction.
func (s *balanceService) Commit(employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error) {
	return s.inOwnTx(func(tx *gorm.DB) (*models.LeaveBalance, error) {
		return s.commitTx(tx, employeeID, leaveTypeID, year, days)
	})
}

// Release runs ReleaseTx in its own transaction.
func (s *balanceService) Release(employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error) {
	return s.inOwnTx(func(tx *gorm.DB) (*models.LeaveBalance, error) {
		return s.ReleaseTx(tx, employeeID, leaveTypeID, year, days)
	})
}

// Reverse runs the used-to-available move in its own transaction.
func (s *balanceService) Reverse(employeeID, leaveTypeID string, year int, days decimal.Decimal) (*models.LeaveBalance, error) {
	return s.inOwnTx(func(tx *gorm.DB) (*models.LeaveBalance, error) {
		return s.reverseTx(tx, employeeID, leaveTypeID, year, days)
	})
}

func (s *balanceService) inOwnTx(fn func(tx *gorm.DB) (*models.LeaveBalance, error)) (*models.LeaveBalance, error) {
	var balance *models.LeaveBalance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		balance, txErr = fn(tx)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// Adjust lets an administrator edit the non-consumption buckets. The
// derived remaining is recomputed in the same transaction and the edit is
// rejected when it would leave the key oversubscribed.
func (s *balanceService) Adjust(actorID, employeeID, leaveTypeID string, year int, adj BalanceAdjustment) (*models.LeaveBalance, error) {
	for _, d := range []*decimal.Decimal{adj.Allocated, adj.CarriedForward, adj.Encashed} {
		if d != nil && d.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "balance buckets cannot be negative")
		}
	}

	var balance *models.LeaveBalance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		balance, txErr = s.lockBalance(tx, employeeID, leaveTypeID, year)
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			return apperrors.ErrBalanceNotFound
		}
		if txErr != nil {
			return txErr
		}

		if adj.Allocated != nil {
			balance.Allocated = *adj.Allocated
		}
		if adj.CarriedForward != nil {
			balance.CarriedForward = *adj.CarriedForward
		}
		if adj.Encashed != nil {
			balance.Encashed = *adj.Encashed
		}

		balance.Recompute()
		if balance.Remaining.IsNegative() {
			return apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("adjustment would leave remaining at %s", balance.Remaining.String()))
		}
		return s.saveBalance(tx, balance)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(actorID, models.EventBalanceAdjusted, "leave_balance", balance.ID,
		map[string]interface{}{"balance": balance, "reason": adj.Reason})
	return balance, nil
}

// Rollover closes out fromYear for the employee: leftover days are carried
// into the next year up to the policy cap when carry-forward is allowed,
// and encashed when encashment is allowed. Keys whose next-year balance
// already exists are skipped, which makes re-runs no-ops.
func (s *balanceService) Rollover(actorID, employeeID string, fromYear int) ([]models.LeaveBalance, error) {
	var created []models.LeaveBalance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current []models.LeaveBalance
		if err := lockForUpdate(tx).
			Where("employee_id = ? AND year = ?", employeeID, fromYear).
			Find(&current).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for i := range current {
			balance := &current[i]

			var leaveType models.LeaveType
			if err := tx.Where("id = ?", balance.LeaveTypeID).First(&leaveType).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			// Inactive types are excluded from new allocations.
			if !leaveType.IsActive {
				continue
			}

			var existing int64
			if err := tx.Model(&models.LeaveBalance{}).
				Where("employee_id = ? AND leave_type_id = ? AND year = ?", employeeID, balance.LeaveTypeID, fromYear+1).
				Count(&existing).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if existing > 0 {
				continue
			}

			leftover := balance.Remaining
			carry := decimal.Zero
			if leaveType.CarryForwardAllowed && leftover.IsPositive() {
				carry = decimal.Min(leftover, leaveType.CarryForwardCap)
			}
			if leaveType.EncashmentAllowed {
				encash := leftover.Sub(carry)
				if encash.IsPositive() {
					balance.Encashed = balance.Encashed.Add(encash)
					if err := s.saveBalance(tx, balance); err != nil {
						return err
					}
				}
			}

			next := models.LeaveBalance{
				EmployeeID:     employeeID,
				LeaveTypeID:    balance.LeaveTypeID,
				Year:           fromYear + 1,
				Allocated:      leaveType.YearlyAllotment,
				Used:           decimal.Zero,
				Pending:        decimal.Zero,
				CarriedForward: carry,
				Encashed:       decimal.Zero,
			}
			next.Recompute()
			if err := tx.Create(&next).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			created = append(created, next)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range created {
		s.events.Publish(actorID, models.EventBalanceRolledOver, "leave_balance", created[i].ID, created[i])
	}
	return created, nil
}

// GetEmployeeBalances returns the employee's balances for a year,
// including the leave type for display.
func (s *balanceService) GetEmployeeBalances(employeeID string, year int) ([]models.LeaveBalance, error) {
	var balances []models.LeaveBalance
	if err := s.db.Preload("LeaveType").
		Where("employee_id = ? AND year = ?", employeeID, year).
		Find(&balances).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balances, nil
}
