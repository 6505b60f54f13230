package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/models"
)

// StudentFilter defines filters for listing student profiles.
type StudentFilter struct {
	Search         string
	Status         string
	Level          string
	Sort           string
	Page           int
	PageSize       int
	IncludeDeleted bool
}

// StudentRepository exposes persistence helpers for student profiles.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Save(ctx context.Context, student *models.Student) error
	SoftDelete(ctx context.Context, id uint) error
	HardDelete(ctx context.Context, id uint) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs the student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})
	if !filter.IncludeDeleted && filter.Status != models.StudentStatusDeleted {
		query = query.Where("status <> ?", models.StudentStatusDeleted)
	}

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order(normalizeStudentSort(filter.Sort)), filter.Page, filter.PageSize)

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Save(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

// SoftDelete marks the profile deleted. Session memberships are left untouched.
func (r *studentRepository) SoftDelete(ctx context.Context, id uint) error {
	update := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).
		Where("status <> ?", models.StudentStatusDeleted).
		Update("status", models.StudentStatusDeleted)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HardDelete removes the profile together with its installments. It does not cascade into
// session student lists.
func (r *studentRepository) HardDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.Installment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Student{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func normalizeStudentSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "name", "name:asc":
		return "name ASC"
	case "-name", "name:desc":
		return "name DESC"
	case "created_at", "created_at:asc":
		return "created_at ASC"
	default:
		return "created_at DESC"
	}
}
