package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/models"
)

// SemesterRepository defines persistence operations for semesters.
type SemesterRepository interface {
	List(ctx context.Context) ([]models.Semester, error)
	GetByID(ctx context.Context, id uint) (models.Semester, error)
	GetActive(ctx context.Context) (models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	Activate(ctx context.Context, id uint) error
}

type semesterRepository struct {
	db *gorm.DB
}

// NewSemesterRepository instantiates a GORM-backed semester repository.
func NewSemesterRepository(db *gorm.DB) SemesterRepository {
	return &semesterRepository{db: db}
}

func (r *semesterRepository) List(ctx context.Context) ([]models.Semester, error) {
	var semesters []models.Semester
	if err := r.db.WithContext(ctx).Order("start_date DESC").Find(&semesters).Error; err != nil {
		return nil, err
	}
	return semesters, nil
}

func (r *semesterRepository) GetByID(ctx context.Context, id uint) (models.Semester, error) {
	var semester models.Semester
	if err := r.db.WithContext(ctx).First(&semester, id).Error; err != nil {
		return models.Semester{}, err
	}
	return semester, nil
}

func (r *semesterRepository) GetActive(ctx context.Context) (models.Semester, error) {
	var semester models.Semester
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&semester).Error; err != nil {
		return models.Semester{}, err
	}
	return semester, nil
}

func (r *semesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	return r.db.WithContext(ctx).Create(semester).Error
}

func (r *semesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	return r.db.WithContext(ctx).Save(semester).Error
}

// Activate flips every semester off and then the chosen one on, inside one transaction.
func (r *semesterRepository) Activate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var semester models.Semester
		if err := tx.First(&semester, id).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Semester{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
			return err
		}

		return tx.Model(&models.Semester{}).Where("id = ?", id).Update("is_active", true).Error
	})
}
