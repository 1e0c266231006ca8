package services

import (
	"testing"

	"leavehub/internal/models"
	"leavehub/internal/pagination"
	"leavehub/internal/testutil"
)

func TestCreateLeaveType(t *testing.T) {
	t.Run("valid_config", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLeaveTypeService(db)

		created, err := svc.CreateLeaveType(&models.LeaveType{
			Name:               "Annual Leave",
			YearlyAllotment:    days(20),
			MaxConsecutiveDays: 14,
			ApplicableGender:   models.GenderScopeAll,
		})
		testutil.AssertNoError(t, err)
		if created.ID == "" {
			t.Fatal("expected a generated ID")
		}
		if !created.IsActive {
			t.Error("new leave types should be active")
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLeaveTypeService(db)

		template := models.LeaveType{
			Name:               "Annual Leave",
			YearlyAllotment:    days(20),
			MaxConsecutiveDays: 14,
			ApplicableGender:   models.GenderScopeAll,
		}
		_, err := svc.CreateLeaveType(&template)
		testutil.AssertNoError(t, err)

		dup := template
		dup.Base = models.Base{}
		_, err = svc.CreateLeaveType(&dup)
		testutil.AssertAppError(t, err, "DUPLICATE_LEAVE_TYPE")
	})

	t.Run("invalid_config", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLeaveTypeService(db)

		cases := []models.LeaveType{
			{Name: "", YearlyAllotment: days(10), MaxConsecutiveDays: 5, ApplicableGender: models.GenderScopeAll},
			{Name: "Negative", YearlyAllotment: days(-1), MaxConsecutiveDays: 5, ApplicableGender: models.GenderScopeAll},
			{Name: "Zero Span", YearlyAllotment: days(10), MaxConsecutiveDays: 0, ApplicableGender: models.GenderScopeAll},
			{Name: "Bad Cap", YearlyAllotment: days(10), MaxConsecutiveDays: 5, CarryForwardCap: days(-1), ApplicableGender: models.GenderScopeAll},
			{Name: "Bad Service", YearlyAllotment: days(10), MaxConsecutiveDays: 5, MinServiceMonths: -1, ApplicableGender: models.GenderScopeAll},
			{Name: "Bad Gender", YearlyAllotment: days(10), MaxConsecutiveDays: 5, ApplicableGender: "unknown"},
		}
		for _, lt := range cases {
			invalid := lt
			_, err := svc.CreateLeaveType(&invalid)
			testutil.AssertAppError(t, err, "VALIDATION_ERROR")
		}
	})
}

func TestUpdateLeaveType(t *testing.T) {
	t.Run("partial_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLeaveTypeService(db)
		leaveType := testutil.CreateTestLeaveType(t, db, 20)

		allotment := days(25)
		carryForward := true
		updated, err := svc.UpdateLeaveType(leaveType.ID, LeaveTypeFields{
			YearlyAllotment:     &allotment,
			CarryForwardAllowed: &carryForward,
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDays(t, "yearly_allotment", updated.YearlyAllotment, 25)
		if !updated.CarryForwardAllowed {
			t.Error("carry forward should be enabled")
		}
		if updated.Name != leaveType.Name {
			t.Error("unspecified fields should be unchanged")
		}
	})

	t.Run("rename_collision", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLeaveTypeService(db)
		first := testutil.CreateTestLeaveType(t, db, 20)
		second := testutil.CreateTestLeaveType(t, db, 10)

		_, err := svc.UpdateLeaveType(second.ID, LeaveTypeFields{Name: &first.Name})
		testutil.AssertAppError(t, err, "DUPLICATE_LEAVE_TYPE")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLeaveTypeService(db)

		name := "Ghost"
		_, err := svc.UpdateLeaveType("00000000-0000-0000-0000-000000000000", LeaveTypeFields{Name: &name})
		testutil.AssertAppError(t, err, "LEAVE_TYPE_NOT_FOUND")
	})
}

func TestDeactivateLeaveType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewLeaveTypeService(db)
	leaveType := testutil.CreateTestLeaveType(t, db, 20)

	err := svc.DeactivateLeaveType(leaveType.ID)
	testutil.AssertNoError(t, err)

	reloaded, err := svc.GetLeaveTypeByID(leaveType.ID)
	testutil.AssertNoError(t, err)
	if reloaded.IsActive {
		t.Error("leave type should be inactive after deactivation")
	}
}

func TestGetLeaveTypes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewLeaveTypeService(db)

	active := testutil.CreateTestLeaveType(t, db, 20)
	retired := testutil.CreateTestLeaveType(t, db, 10)
	err := svc.DeactivateLeaveType(retired.ID)
	testutil.AssertNoError(t, err)

	page := pagination.PageRequest{Page: 1, PageSize: 20}

	visible, err := svc.GetLeaveTypes(page, false)
	testutil.AssertNoError(t, err)
	if visible.TotalItems != 1 || visible.Data[0].ID != active.ID {
		t.Errorf("expected only the active type, got %d items", visible.TotalItems)
	}

	all, err := svc.GetLeaveTypes(page, true)
	testutil.AssertNoError(t, err)
	if all.TotalItems != 2 {
		t.Errorf("expected 2 types including inactive, got %d", all.TotalItems)
	}
}
