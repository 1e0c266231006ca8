package services

import (
	"testing"
	"time"

	"leavehub/internal/models"
	"leavehub/internal/testutil"
)

func TestGetStatusBreakdown(t *testing.T) {
	db, _, requests := newRequestFixture(t)
	svc := NewReportService(db)
	manager, employee := testutil.CreateTestManagerAndReport(t, db)
	leaveType := testutil.CreateTestLeaveType(t, db, 30)

	first, err := requests.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
	testutil.AssertNoError(t, err)
	_, err = requests.Approve(asManager(manager), first.ID)
	testutil.AssertNoError(t, err)

	second, err := requests.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.July, 1), date(2025, time.July, 3)))
	testutil.AssertNoError(t, err)
	_, err = requests.Reject(asManager(manager), second.ID, "coverage gap")
	testutil.AssertNoError(t, err)

	_, err = requests.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.August, 4), date(2025, time.August, 5)))
	testutil.AssertNoError(t, err)

	breakdown, err := svc.GetStatusBreakdown(2025)
	testutil.AssertNoError(t, err)
	if breakdown.Counts[models.StatusApproved] != 1 {
		t.Errorf("expected 1 approved, got %d", breakdown.Counts[models.StatusApproved])
	}
	if breakdown.Counts[models.StatusRejected] != 1 {
		t.Errorf("expected 1 rejected, got %d", breakdown.Counts[models.StatusRejected])
	}
	if breakdown.Counts[models.StatusPending] != 1 {
		t.Errorf("expected 1 pending, got %d", breakdown.Counts[models.StatusPending])
	}

	empty, err := svc.GetStatusBreakdown(2024)
	testutil.AssertNoError(t, err)
	if len(empty.Counts) != 0 {
		t.Errorf("expected no counts for 2024, got %v", empty.Counts)
	}
}

func TestGetUtilization(t *testing.T) {
	db, balances, requests := newRequestFixture(t)
	svc := NewReportService(db)
	manager, employee := testutil.CreateTestManagerAndReport(t, db)
	leaveType := testutil.CreateTestLeaveType(t, db, 20)

	_, err := balances.Initialize(employee.ID, 2025)
	testutil.AssertNoError(t, err)

	request, err := requests.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
	testutil.AssertNoError(t, err)
	_, err = requests.Approve(asManager(manager), request.ID)
	testutil.AssertNoError(t, err)

	utilization, err := svc.GetUtilization(2025)
	testutil.AssertNoError(t, err)
	if len(utilization) != 1 {
		t.Fatalf("expected 1 leave type, got %d", len(utilization))
	}
	testutil.AssertDays(t, "allocated", utilization[0].Allocated, 20)
	testutil.AssertDays(t, "used", utilization[0].Used, 5)
	if utilization[0].UtilizationPct != 25 {
		t.Errorf("expected 25%% utilization, got %f", utilization[0].UtilizationPct)
	}
}
