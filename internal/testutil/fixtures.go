package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"leavehub/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestEmployee creates an active employee who joined five years ago.
func CreateTestEmployee(t *testing.T, db *gorm.DB) *models.Employee {
	t.Helper()
	return CreateTestEmployeeWithJoinDate(t, db, time.Now().UTC().AddDate(-5, 0, 0))
}

// CreateTestEmployeeWithJoinDate creates an active employee with the given join date.
func CreateTestEmployeeWithJoinDate(t *testing.T, db *gorm.DB, joinDate time.Time) *models.Employee {
	t.Helper()

	n := nextID()
	employee := &models.Employee{
		FirstName: "Test",
		LastName:  fmt.Sprintf("Employee%d", n),
		Email:     fmt.Sprintf("employee%d@test.com", n),
		Gender:    models.GenderFemale,
		JoinDate:  joinDate,
		IsActive:  true,
	}
	if err := db.Create(employee).Error; err != nil {
		t.Fatalf("failed to create test employee: %v", err)
	}
	return employee
}

// CreateTestManagerAndReport creates a manager and an employee reporting to them.
func CreateTestManagerAndReport(t *testing.T, db *gorm.DB) (manager, report *models.Employee) {
	t.Helper()

	manager = CreateTestEmployee(t, db)
	report = CreateTestEmployee(t, db)
	report.ManagerID = &manager.ID
	if err := db.Save(report).Error; err != nil {
		t.Fatalf("failed to link test report to manager: %v", err)
	}
	return manager, report
}

// CreateTestLeaveType creates an active leave type with the given yearly allotment.
func CreateTestLeaveType(t *testing.T, db *gorm.DB, allotment int64) *models.LeaveType {
	t.Helper()

	leaveType := &models.LeaveType{
		Name:               fmt.Sprintf("Test Leave %d", nextID()),
		YearlyAllotment:    decimal.NewFromInt(allotment),
		MaxConsecutiveDays: 365,
		ApplicableGender:   models.GenderScopeAll,
		IsActive:           true,
	}
	if err := db.Create(leaveType).Error; err != nil {
		t.Fatalf("failed to create test leave type: %v", err)
	}
	return leaveType
}

// CreateTestLeaveTypeWith creates a leave type from a caller-built template,
// filling in a unique name and sane defaults where the template left zero values.
func CreateTestLeaveTypeWith(t *testing.T, db *gorm.DB, template models.LeaveType) *models.LeaveType {
	t.Helper()

	if template.Name == "" {
		template.Name = fmt.Sprintf("Test Leave %d", nextID())
	}
	if template.MaxConsecutiveDays == 0 {
		template.MaxConsecutiveDays = 365
	}
	if template.ApplicableGender == "" {
		template.ApplicableGender = models.GenderScopeAll
	}
	template.IsActive = true
	if err := db.Create(&template).Error; err != nil {
		t.Fatalf("failed to create test leave type: %v", err)
	}
	return &template
}

// CreateTestBalance creates a balance row with the given allocation and zero
// consumption buckets.
func CreateTestBalance(t *testing.T, db *gorm.DB, employeeID, leaveTypeID string, year int, allocated int64) *models.LeaveBalance {
	t.Helper()

	balance := &models.LeaveBalance{
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		Year:        year,
		Allocated:   decimal.NewFromInt(allocated),
	}
	balance.Recompute()
	if err := db.Create(balance).Error; err != nil {
		t.Fatalf("failed to create test balance: %v", err)
	}
	return balance
}

// FetchBalance reloads a balance row by its ledger key.
func FetchBalance(t *testing.T, db *gorm.DB, employeeID, leaveTypeID string, year int) *models.LeaveBalance {
	t.Helper()

	var balance models.LeaveBalance
	err := db.Where("employee_id = ? AND leave_type_id = ? AND year = ?", employeeID, leaveTypeID, year).
		First(&balance).Error
	if err != nil {
		t.Fatalf("failed to fetch balance: %v", err)
	}
	return &balance
}
