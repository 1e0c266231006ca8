package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "leavehub/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertDays checks a decimal day amount against an expected whole number of days.
func AssertDays(t *testing.T, name string, got decimal.Decimal, want int64) {
	t.Helper()

	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("expected %s = %d, got %s", name, want, got.String())
	}
}
