package models

import "github.com/shopspring/decimal"

// GenderScope restricts which employees a leave type applies to.
type GenderScope string

const (
	GenderScopeAll    GenderScope = "all"
	GenderScopeMale   GenderScope = "male"
	GenderScopeFemale GenderScope = "female"
)

// AppliesTo reports whether an employee of the given gender may use this scope.
func (s GenderScope) AppliesTo(g Gender) bool {
	switch s {
	case GenderScopeMale:
		return g == GenderMale
	case GenderScopeFemale:
		return g == GenderFemale
	default:
		return true
	}
}

// LeaveType is the per-category policy: how many days a year it grants,
// how long a single request may run, and what happens to leftover days.
// Identity is immutable; configuration may change but never rewrites
// balances already computed under the old configuration. Types are
// deactivated, never hard-deleted, because historical balances and
// requests keep referencing them.
type LeaveType struct {
	Base
	Name                string          `gorm:"uniqueIndex;not null" json:"name"`
	YearlyAllotment     decimal.Decimal `gorm:"type:numeric;not null" json:"yearly_allotment"`
	MaxConsecutiveDays  int             `gorm:"not null;default:1" json:"max_consecutive_days"`
	CarryForwardAllowed bool            `gorm:"default:false" json:"carry_forward_allowed"`
	CarryForwardCap     decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"carry_forward_cap"`
	EncashmentAllowed   bool            `gorm:"default:false" json:"encashment_allowed"`
	RequiresAttachment  bool            `gorm:"default:false" json:"requires_attachment"`
	MinServiceMonths    int             `gorm:"not null;default:0" json:"min_service_months"`
	ApplicableGender    GenderScope     `gorm:"not null;default:'all'" json:"applicable_gender"`
	IsActive            bool            `gorm:"default:true" json:"is_active"`
}
