package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/models"
)

// ApplicantRepository persists imported applicants.
type ApplicantRepository interface {
	List(ctx context.Context, status string) ([]models.Applicant, error)
	CreateBatch(ctx context.Context, applicants []models.Applicant) error
}

// IncompatibilityRepository persists exclusion rules between students.
type IncompatibilityRepository interface {
	List(ctx context.Context) ([]models.Incompatibility, error)
	Create(ctx context.Context, rule *models.Incompatibility) error
	Delete(ctx context.Context, id uint) error
}

type applicantRepository struct {
	db *gorm.DB
}

type incompatibilityRepository struct {
	db *gorm.DB
}

// NewApplicantRepository constructs the applicant repository.
func NewApplicantRepository(db *gorm.DB) ApplicantRepository {
	return &applicantRepository{db: db}
}

// NewIncompatibilityRepository constructs the exclusion rule repository.
func NewIncompatibilityRepository(db *gorm.DB) IncompatibilityRepository {
	return &incompatibilityRepository{db: db}
}

func (r *applicantRepository) List(ctx context.Context, status string) ([]models.Applicant, error) {
	query := r.db.WithContext(ctx).Model(&models.Applicant{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var applicants []models.Applicant
	if err := query.Order("created_at DESC, id DESC").Find(&applicants).Error; err != nil {
		return nil, err
	}
	return applicants, nil
}

func (r *applicantRepository) CreateBatch(ctx context.Context, applicants []models.Applicant) error {
	if len(applicants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&applicants, 100).Error
}

func (r *incompatibilityRepository) List(ctx context.Context) ([]models.Incompatibility, error) {
	var rules []models.Incompatibility
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *incompatibilityRepository) Create(ctx context.Context, rule *models.Incompatibility) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *incompatibilityRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Incompatibility{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
