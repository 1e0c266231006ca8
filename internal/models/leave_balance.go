package models

import "github.com/shopspring/decimal"

// LeaveBalance is the per-(employee, leave type, year) day account.
// Days move between buckets as requests progress:
//
//	allocated + carried_forward  what the year grants
//	pending                      reserved by requests awaiting a decision
//	used                         consumed by approved requests
//	encashed                     paid out instead of taken
//
// Remaining is derived and persisted for query convenience, but it is
// never ground truth: every mutation recomputes it from the other buckets
// before the row is written.
type LeaveBalance struct {
	Base
	EmployeeID  string `gorm:"type:uuid;not null;uniqueIndex:idx_balance_key" json:"employee_id"`
	LeaveTypeID string `gorm:"type:uuid;not null;uniqueIndex:idx_balance_key" json:"leave_type_id"`
	Year        int    `gorm:"not null;uniqueIndex:idx_balance_key" json:"year"`

	Allocated      decimal.Decimal `gorm:"type:numeric;not null" json:"allocated"`
	Used           decimal.Decimal `gorm:"type:numeric;not null" json:"used"`
	Pending        decimal.Decimal `gorm:"type:numeric;not null" json:"pending"`
	CarriedForward decimal.Decimal `gorm:"type:numeric;not null" json:"carried_forward"`
	Encashed       decimal.Decimal `gorm:"type:numeric;not null" json:"encashed"`
	Remaining      decimal.Decimal `gorm:"type:numeric;not null" json:"remaining"`

	Employee  Employee  `gorm:"foreignKey:EmployeeID" json:"-"`
	LeaveType LeaveType `gorm:"foreignKey:LeaveTypeID" json:"leave_type,omitempty"`
}

// Recompute refreshes the derived Remaining bucket:
// remaining = allocated + carried_forward - used - pending - encashed.
func (b *LeaveBalance) Recompute() {
	b.Remaining = b.Allocated.
		Add(b.CarriedForward).
		Sub(b.Used).
		Sub(b.Pending).
		Sub(b.Encashed)
}

// Consistent reports whether the persisted Remaining matches the formula
// and no bucket has gone negative.
func (b *LeaveBalance) Consistent() bool {
	expected := b.Allocated.
		Add(b.CarriedForward).
		Sub(b.Used).
		Sub(b.Pending).
		Sub(b.Encashed)
	if !b.Remaining.Equal(expected) {
		return false
	}
	for _, d := range []decimal.Decimal{b.Allocated, b.Used, b.Pending, b.CarriedForward, b.Encashed} {
		if d.IsNegative() {
			return false
		}
	}
	return true
}
