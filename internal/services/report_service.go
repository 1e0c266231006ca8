package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "leavehub/internal/errors"
	"leavehub/internal/models"
)

// reportService provides read-only aggregation over balances and requests.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// GetStatusBreakdown counts a year's requests per workflow status.
func (s *reportService) GetStatusBreakdown(year int) (*StatusBreakdown, error) {
	type row struct {
		Status models.RequestStatus
		Count  int64
	}
	var rows []row
	if err := s.db.Model(&models.LeaveRequest{}).
		Select("status, COUNT(*) as count").
		Where("year = ?", year).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	breakdown := &StatusBreakdown{
		Year:   year,
		Counts: make(map[models.RequestStatus]int64, len(rows)),
	}
	for _, r := range rows {
		breakdown.Counts[r.Status] = r.Count
	}
	return breakdown, nil
}

// GetUtilization aggregates allocated vs used days per leave type for a year.
func (s *reportService) GetUtilization(year int) ([]TypeUtilization, error) {
	type row struct {
		LeaveTypeID   string
		LeaveTypeName string
		Allocated     float64
		Used          float64
	}
	var rows []row
	if err := s.db.Model(&models.LeaveBalance{}).
		Select("leave_balances.leave_type_id, leave_types.name as leave_type_name, SUM(leave_balances.allocated) as allocated, SUM(leave_balances.used) as used").
		Joins("JOIN leave_types ON leave_types.id = leave_balances.leave_type_id").
		Where("leave_balances.year = ?", year).
		Group("leave_balances.leave_type_id, leave_types.name").
		Order("leave_types.name").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	utilization := make([]TypeUtilization, 0, len(rows))
	for _, r := range rows {
		u := TypeUtilization{
			LeaveTypeID:   r.LeaveTypeID,
			LeaveTypeName: r.LeaveTypeName,
		}
		u.Allocated = decimalFromFloat(r.Allocated)
		u.Used = decimalFromFloat(r.Used)
		if r.Allocated > 0 {
			u.UtilizationPct = r.Used / r.Allocated * 100
		}
		utilization = append(utilization, u)
	}
	return utilization, nil
}

// decimalFromFloat converts an aggregated SQL sum back to a day amount.
func decimalFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
