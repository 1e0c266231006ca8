package models

import "time"

// Gender is an employee's recorded gender, used only to check leave type
// applicability.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Employee is a read-mostly projection of the directory record the leave
// core needs: identity management lives outside this service, but requests
// and eligibility checks reference the profile.
type Employee struct {
	Base
	FirstName string     `gorm:"not null" json:"first_name"`
	LastName  string     `gorm:"not null" json:"last_name"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Gender    Gender     `gorm:"not null;default:'other'" json:"gender"`
	JoinDate  time.Time  `gorm:"not null" json:"join_date"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	ManagerID *string    `gorm:"type:uuid" json:"manager_id,omitempty"`
	Manager   *Employee  `gorm:"foreignKey:ManagerID" json:"-"`
}

// MonthsOfService returns whole months served as of the given date.
func (e *Employee) MonthsOfService(at time.Time) int {
	if at.Before(e.JoinDate) {
		return 0
	}
	months := (at.Year()-e.JoinDate.Year())*12 + int(at.Month()) - int(e.JoinDate.Month())
	if at.Day() < e.JoinDate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
