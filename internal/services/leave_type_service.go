package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "leavehub/internal/errors"
	"leavehub/internal/models"
	"leavehub/internal/pagination"
)

// leaveTypeService handles leave type policy administration.
type leaveTypeService struct {
	db *gorm.DB
}

// NewLeaveTypeService creates a new LeaveTypeServicer.
func NewLeaveTypeService(db *gorm.DB) LeaveTypeServicer {
	return &leaveTypeService{db: db}
}

func validateLeaveTypeConfig(lt *models.LeaveType) error {
	if strings.TrimSpace(lt.Name) == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "leave type name is required")
	}
	if lt.YearlyAllotment.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrValidation, "yearly allotment cannot be negative")
	}
	if lt.MaxConsecutiveDays < 1 {
		return apperrors.WithMessage(apperrors.ErrValidation, "max consecutive days must be at least 1")
	}
	if lt.CarryForwardCap.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrValidation, "carry forward cap cannot be negative")
	}
	if lt.MinServiceMonths < 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, "minimum service months cannot be negative")
	}
	switch lt.ApplicableGender {
	case models.GenderScopeAll, models.GenderScopeMale, models.GenderScopeFemale:
	default:
		return apperrors.WithMessage(apperrors.ErrValidation, "applicable gender must be all, male, or female")
	}
	return nil
}

// CreateLeaveType creates a new leave type policy.
func (s *leaveTypeService) CreateLeaveType(leaveType *models.LeaveType) (*models.LeaveType, error) {
	leaveType.Name = strings.TrimSpace(leaveType.Name)
	if err := validateLeaveTypeConfig(leaveType); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.LeaveType{}).Where("name = ?", leaveType.Name).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateLeaveType
	}

	leaveType.IsActive = true
	if err := s.db.Create(leaveType).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return leaveType, nil
}

// UpdateLeaveType applies a partial configuration update. Balances already
// computed under the old configuration are not rewritten.
func (s *leaveTypeService) UpdateLeaveType(leaveTypeID string, fields LeaveTypeFields) (*models.LeaveType, error) {
	leaveType, err := s.GetLeaveTypeByID(leaveTypeID)
	if err != nil {
		return nil, err
	}

	if fields.Name != nil {
		leaveType.Name = strings.TrimSpace(*fields.Name)
	}
	if fields.YearlyAllotment != nil {
		leaveType.YearlyAllotment = *fields.YearlyAllotment
	}
	if fields.MaxConsecutiveDays != nil {
		leaveType.MaxConsecutiveDays = *fields.MaxConsecutiveDays
	}
	if fields.CarryForwardAllowed != nil {
		leaveType.CarryForwardAllowed = *fields.CarryForwardAllowed
	}
	if fields.CarryForwardCap != nil {
		leaveType.CarryForwardCap = *fields.CarryForwardCap
	}
	if fields.EncashmentAllowed != nil {
		leaveType.EncashmentAllowed = *fields.EncashmentAllowed
	}
	if fields.RequiresAttachment != nil {
		leaveType.RequiresAttachment = *fields.RequiresAttachment
	}
	if fields.MinServiceMonths != nil {
		leaveType.MinServiceMonths = *fields.MinServiceMonths
	}
	if fields.ApplicableGender != nil {
		leaveType.ApplicableGender = *fields.ApplicableGender
	}

	if err := validateLeaveTypeConfig(leaveType); err != nil {
		return nil, err
	}

	if fields.Name != nil {
		var count int64
		if err := s.db.Model(&models.LeaveType{}).
			Where("name = ? AND id <> ?", leaveType.Name, leaveTypeID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateLeaveType
		}
	}

	if err := s.db.Save(leaveType).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return leaveType, nil
}

// DeactivateLeaveType soft-disables a leave type. Existing balances and
// requests keep referencing it; it is just excluded from new allocations.
func (s *leaveTypeService) DeactivateLeaveType(leaveTypeID string) error {
	leaveType, err := s.GetLeaveTypeByID(leaveTypeID)
	if err != nil {
		return err
	}
	if err := s.db.Model(leaveType).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetLeaveTypeByID retrieves a leave type by ID.
func (s *leaveTypeService) GetLeaveTypeByID(leaveTypeID string) (*models.LeaveType, error) {
	var leaveType models.LeaveType
	if err := s.db.Where("id = ?", leaveTypeID).First(&leaveType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLeaveTypeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &leaveType, nil
}

// GetLeaveTypes retrieves a paginated list of leave types.
func (s *leaveTypeService) GetLeaveTypes(page pagination.PageRequest, includeInactive bool) (*pagination.PageResponse[models.LeaveType], error) {
	page.Defaults()

	base := s.db.Model(&models.LeaveType{})
	if !includeInactive {
		base = base.Where("is_active = ?", true)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var leaveTypes []models.LeaveType
	if err := base.Scopes(pagination.Paginate(page)).
		Order("name").
		Find(&leaveTypes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(leaveTypes, page.Page, page.PageSize, totalItems)
	return &result, nil
}
