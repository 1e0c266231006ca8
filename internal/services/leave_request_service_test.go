package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"leavehub/internal/models"
	"leavehub/internal/pagination"
	"leavehub/internal/testutil"
)

func newRequestFixture(t *testing.T) (*gorm.DB, BalanceServicer, LeaveRequestServicer) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	events := NewEventService(db)
	balances := NewBalanceService(db, events)
	return db, balances, NewLeaveRequestService(db, balances, events)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func submitInput(employee *models.Employee, leaveType *models.LeaveType, start, end time.Time) SubmitRequestInput {
	return SubmitRequestInput{
		EmployeeID:  employee.ID,
		LeaveTypeID: leaveType.ID,
		StartDate:   start,
		EndDate:     end,
		Reason:      "family trip",
	}
}

func asEmployee(e *models.Employee) Actor { return Actor{EmployeeID: e.ID, Role: RoleEmployee} }
func asManager(e *models.Employee) Actor  { return Actor{EmployeeID: e.ID, Role: RoleManager} }
func asAdmin(e *models.Employee) Actor    { return Actor{EmployeeID: e.ID, Role: RoleAdmin} }

// TestRequestLifecycle walks one balance through the full workflow:
// reservations, an approval, an attempt that exceeds the remaining days, and a rejection that
// restores availability.
func TestRequestLifecycle(t *testing.T) {
	db, _, svc := newRequestFixture(t)
	manager, employee := testutil.CreateTestManagerAndReport(t, db)
	leaveType := testutil.CreateTestLeaveType(t, db, 10)

	// Submit 5 days: reserved, not yet consumed.
	first, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
	testutil.AssertNoError(t, err)
	if first.Status != models.StatusPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}
	testutil.AssertDays(t, "total_days", first.TotalDays, 5)

	balance := testutil.FetchBalance(t, db, employee.ID, leaveType.ID, 2025)
	testutil.AssertDays(t, "pending", balance.Pending, 5)
	testutil.AssertDays(t, "remaining", balance.Remaining, 5)

	// Approve: reservation becomes consumption.
	approved, err := svc.Approve(asManager(manager), first.ID)
	testutil.AssertNoError(t, err)
	if approved.Status != models.StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.ApproverID == nil || *approved.ApproverID != manager.ID {
		t.Error("approver should be recorded")
	}

	balance = testutil.FetchBalance(t, db, employee.ID, leaveType.ID, 2025)
	testutil.AssertDays(t, "pending", balance.Pending, 0)
	testutil.AssertDays(t, "used", balance.Used, 5)
	testutil.AssertDays(t, "remaining", balance.Remaining, 5)

	// 6 more days do not fit in the 5 remaining.
	_, err = svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.July, 1), date(2025, time.July, 6)))
	testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")

	// 5 days exactly fit.
	second, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.July, 1), date(2025, time.July, 5)))
	testutil.AssertNoError(t, err)

	balance = testutil.FetchBalance(t, db, employee.ID, leaveType.ID, 2025)
	testutil.AssertDays(t, "remaining", balance.Remaining, 0)

	// Rejection releases the reservation and records the reason.
	rejected, err := svc.Reject(asManager(manager), second.ID, "team is at capacity that week")
	testutil.AssertNoError(t, err)
	if rejected.Status != models.StatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.RejectionReason == "" {
		t.Error("rejection reason should be recorded")
	}

	balance = testutil.FetchBalance(t, db, employee.ID, leaveType.ID, 2025)
	testutil.AssertDays(t, "pending", balance.Pending, 0)
	testutil.AssertDays(t, "remaining", balance.Remaining, 5)
	if !balance.Consistent() {
		t.Error("balance should stay consistent through the lifecycle")
	}

	// Terminal states accept no further workflow actions, and the failed
	// attempts leave the ledger untouched.
	_, err = svc.Approve(asManager(manager), second.ID)
	testutil.AssertAppError(t, err, "INVALID_TRANSITION")
	_, err = svc.Cancel(asEmployee(employee), second.ID)
	testutil.AssertAppError(t, err, "INVALID_TRANSITION")

	after := testutil.FetchBalance(t, db, employee.ID, leaveType.ID, 2025)
	testutil.AssertDays(t, "remaining", after.Remaining, 5)
}

func TestSubmit(t *testing.T) {
	t.Run("reason_required", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		input := submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6))
		input.Reason = "   "
		_, err := svc.Submit(asEmployee(employee), input)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("end_not_after_start", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		_, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 6), date(2025, time.June, 2)))
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("spans_calendar_years", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		_, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.December, 30), date(2026, time.January, 2)))
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("inactive_employee", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)
		err := db.Model(employee).Update("is_active", false).Error
		testutil.AssertNoError(t, err)

		_, err = svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertAppError(t, err, "EMPLOYEE_INACTIVE")
	})

	t.Run("inactive_leave_type", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)
		err := db.Model(leaveType).Update("is_active", false).Error
		testutil.AssertNoError(t, err)

		_, err = svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertAppError(t, err, "POLICY_VIOLATION")
	})

	t.Run("insufficient_service_months", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployeeWithJoinDate(t, db, time.Now().UTC().AddDate(0, -2, 0))
		leaveType := testutil.CreateTestLeaveTypeWith(t, db, models.LeaveType{
			YearlyAllotment:  days(10),
			MinServiceMonths: 6,
		})

		_, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertAppError(t, err, "POLICY_VIOLATION")
	})

	t.Run("gender_scope", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db) // female
		leaveType := testutil.CreateTestLeaveTypeWith(t, db, models.LeaveType{
			YearlyAllotment:  days(10),
			ApplicableGender: models.GenderScopeMale,
		})

		_, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertAppError(t, err, "POLICY_VIOLATION")
	})

	t.Run("missing_attachment", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveTypeWith(t, db, models.LeaveType{
			YearlyAllotment:    days(10),
			RequiresAttachment: true,
		})

		input := submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6))
		_, err := svc.Submit(asEmployee(employee), input)
		testutil.AssertAppError(t, err, "POLICY_VIOLATION")

		input.AttachmentURL = "https://files.example.com/note.pdf"
		_, err = svc.Submit(asEmployee(employee), input)
		testutil.AssertNoError(t, err)
	})

	t.Run("exceeds_max_consecutive_days", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveTypeWith(t, db, models.LeaveType{
			YearlyAllotment:    days(20),
			MaxConsecutiveDays: 3,
		})

		_, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertAppError(t, err, "POLICY_VIOLATION")
	})

	t.Run("on_behalf_requires_elevated_role", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		manager, employee := testutil.CreateTestManagerAndReport(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		input := submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6))

		other := testutil.CreateTestEmployee(t, db)
		_, err := svc.Submit(asEmployee(other), input)
		testutil.AssertAppError(t, err, "FORBIDDEN")

		request, err := svc.Submit(asManager(manager), input)
		testutil.AssertNoError(t, err)
		if request.EmployeeID != employee.ID {
			t.Errorf("request should belong to the employee it was submitted for")
		}
	})
}

func TestCancel(t *testing.T) {
	t.Run("pending_releases_reservation", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		cancelled, err := svc.Cancel(asEmployee(employee), request.ID)
		testutil.AssertNoError(t, err)
		if cancelled.Status != models.StatusCancelled {
			t.Fatalf("expected cancelled, got %s", cancelled.Status)
		}

		balance := testutil.FetchBalance(t, db, employee.ID, leaveType.ID, 2025)
		testutil.AssertDays(t, "pending", balance.Pending, 0)
		testutil.AssertDays(t, "remaining", balance.Remaining, 10)
	})

	t.Run("approved_reverses_consumption", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		manager, employee := testutil.CreateTestManagerAndReport(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)
		_, err = svc.Approve(asManager(manager), request.ID)
		testutil.AssertNoError(t, err)

		cancelled, err := svc.Cancel(asManager(manager), request.ID)
		testutil.AssertNoError(t, err)
		if cancelled.CancellerID == nil || *cancelled.CancellerID != manager.ID {
			t.Error("canceller should be recorded")
		}

		balance := testutil.FetchBalance(t, db, employee.ID, leaveType.ID, 2025)
		testutil.AssertDays(t, "used", balance.Used, 0)
		testutil.AssertDays(t, "remaining", balance.Remaining, 10)
	})

	t.Run("other_employee_forbidden", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		other := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		_, err = svc.Cancel(asEmployee(other), request.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}

func TestApproveReject(t *testing.T) {
	t.Run("employee_cannot_decide", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		_, err = svc.Approve(asEmployee(employee), request.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
		_, err = svc.Reject(asEmployee(employee), request.ID, "no")
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("reject_requires_reason", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		manager, employee := testutil.CreateTestManagerAndReport(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		_, err = svc.Reject(asManager(manager), request.ID, "  ")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("unknown_request", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		manager := testutil.CreateTestEmployee(t, db)

		_, err := svc.Approve(asManager(manager), "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "REQUEST_NOT_FOUND")
	})
}

func TestUpdateDates(t *testing.T) {
	t.Run("swaps_reservation", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		updated, err := svc.UpdateDates(asEmployee(employee), request.ID, date(2025, time.June, 9), date(2025, time.June, 11))
		testutil.AssertNoError(t, err)
		testutil.AssertDays(t, "total_days", updated.TotalDays, 3)

		balance := testutil.FetchBalance(t, db, employee.ID, leaveType.ID, 2025)
		testutil.AssertDays(t, "pending", balance.Pending, 3)
		testutil.AssertDays(t, "remaining", balance.Remaining, 7)
	})

	t.Run("atomic_on_insufficient_balance", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		// 12 days exceed the allotment even with the old 5 released.
		_, err = svc.UpdateDates(asEmployee(employee), request.ID, date(2025, time.June, 9), date(2025, time.June, 20))
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")

		balance := testutil.FetchBalance(t, db, employee.ID, leaveType.ID, 2025)
		testutil.AssertDays(t, "pending", balance.Pending, 5)

		reloaded, err := svc.GetRequestByID(asEmployee(employee), request.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDays(t, "total_days", reloaded.TotalDays, 5)
	})

	t.Run("owner_only", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		manager, employee := testutil.CreateTestManagerAndReport(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateDates(asManager(manager), request.ID, date(2025, time.June, 9), date(2025, time.June, 11))
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("pending_only", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		manager, employee := testutil.CreateTestManagerAndReport(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)
		_, err = svc.Approve(asManager(manager), request.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateDates(asEmployee(employee), request.ID, date(2025, time.June, 9), date(2025, time.June, 11))
		testutil.AssertAppError(t, err, "INVALID_TRANSITION")
	})
}

func TestAddComment(t *testing.T) {
	t.Run("owner_comments", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		comment, err := svc.AddComment(asEmployee(employee), request.ID, "will be reachable by phone")
		testutil.AssertNoError(t, err)
		if comment.AuthorID != employee.ID {
			t.Error("comment author should be the actor")
		}
	})

	t.Run("allowed_on_terminal_request", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		manager, employee := testutil.CreateTestManagerAndReport(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)
		_, err = svc.Reject(asManager(manager), request.ID, "resubmit next month")
		testutil.AssertNoError(t, err)

		_, err = svc.AddComment(asEmployee(employee), request.ID, "understood, will do")
		testutil.AssertNoError(t, err)
	})

	t.Run("employee_cannot_comment_on_others", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		other := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		_, err = svc.AddComment(asEmployee(other), request.ID, "nope")
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}

func TestRequestVisibility(t *testing.T) {
	t.Run("employee_sees_only_own", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		employee := testutil.CreateTestEmployee(t, db)
		other := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		request, err := svc.Submit(asEmployee(employee), submitInput(employee, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		_, err = svc.GetRequestByID(asEmployee(other), request.ID)
		testutil.AssertAppError(t, err, "REQUEST_NOT_FOUND")

		got, err := svc.GetRequestByID(asEmployee(employee), request.ID)
		testutil.AssertNoError(t, err)
		if got.ID != request.ID {
			t.Error("owner should see their own request")
		}
	})

	t.Run("manager_sees_reports", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		manager, report := testutil.CreateTestManagerAndReport(t, db)
		outsider := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 10)

		reportReq, err := svc.Submit(asEmployee(report), submitInput(report, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)
		outsiderReq, err := svc.Submit(asEmployee(outsider), submitInput(outsider, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		_, err = svc.GetRequestByID(asManager(manager), reportReq.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.GetRequestByID(asManager(manager), outsiderReq.ID)
		testutil.AssertAppError(t, err, "REQUEST_NOT_FOUND")
	})

	t.Run("list_scoping_and_filters", func(t *testing.T) {
		db, _, svc := newRequestFixture(t)
		manager, report := testutil.CreateTestManagerAndReport(t, db)
		outsider := testutil.CreateTestEmployee(t, db)
		admin := testutil.CreateTestEmployee(t, db)
		leaveType := testutil.CreateTestLeaveType(t, db, 30)

		_, err := svc.Submit(asEmployee(report), submitInput(report, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)
		_, err = svc.Submit(asEmployee(outsider), submitInput(outsider, leaveType, date(2025, time.June, 2), date(2025, time.June, 6)))
		testutil.AssertNoError(t, err)

		page := pagination.PageRequest{Page: 1, PageSize: 20}

		own, err := svc.GetRequests(asEmployee(report), page, RequestFilter{})
		testutil.AssertNoError(t, err)
		if own.TotalItems != 1 {
			t.Errorf("employee should see 1 request, got %d", own.TotalItems)
		}

		managed, err := svc.GetRequests(asManager(manager), page, RequestFilter{})
		testutil.AssertNoError(t, err)
		if managed.TotalItems != 1 {
			t.Errorf("manager should see 1 request, got %d", managed.TotalItems)
		}

		all, err := svc.GetRequests(asAdmin(admin), page, RequestFilter{})
		testutil.AssertNoError(t, err)
		if all.TotalItems != 2 {
			t.Errorf("admin should see 2 requests, got %d", all.TotalItems)
		}

		pending := models.StatusPending
		year := 2024
		filtered, err := svc.GetRequests(asAdmin(admin), page, RequestFilter{Status: &pending, Year: &year})
		testutil.AssertNoError(t, err)
		if filtered.TotalItems != 0 {
			t.Errorf("expected no requests in 2024, got %d", filtered.TotalItems)
		}
	})
}
