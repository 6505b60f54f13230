package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/models"
)

const paymentSettingsID = 1

// InstallmentRepository persists installments and the global price table.
type InstallmentRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.Installment, error)
	ListUnpaid(ctx context.Context) ([]models.Installment, error)
	GetByID(ctx context.Context, id uint) (models.Installment, error)
	Save(ctx context.Context, installment *models.Installment) error
	SaveAll(ctx context.Context, installments []models.Installment) error
	ReplaceForStudent(ctx context.Context, studentID uint, installments []models.Installment) error
	GetSettings(ctx context.Context) (models.PaymentSettings, error)
	SaveSettings(ctx context.Context, settings *models.PaymentSettings) error
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository constructs the installment repository.
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("due_date ASC, sequence ASC").Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

func (r *installmentRepository) ListUnpaid(ctx context.Context) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).Where("status <> ?", models.InstallmentStatusPaid).Order("due_date ASC").Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

func (r *installmentRepository) GetByID(ctx context.Context, id uint) (models.Installment, error) {
	var installment models.Installment
	if err := r.db.WithContext(ctx).First(&installment, id).Error; err != nil {
		return models.Installment{}, err
	}
	return installment, nil
}

func (r *installmentRepository) Save(ctx context.Context, installment *models.Installment) error {
	return r.db.WithContext(ctx).Save(installment).Error
}

func (r *installmentRepository) SaveAll(ctx context.Context, installments []models.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range installments {
			if err := tx.Save(&installments[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceForStudent swaps a student's installment list for a freshly generated one.
func (r *installmentRepository) ReplaceForStudent(ctx context.Context, studentID uint, installments []models.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", studentID).Delete(&models.Installment{}).Error; err != nil {
			return err
		}
		if len(installments) == 0 {
			return nil
		}
		return tx.Create(&installments).Error
	})
}

func (r *installmentRepository) GetSettings(ctx context.Context) (models.PaymentSettings, error) {
	var settings models.PaymentSettings
	if err := r.db.WithContext(ctx).First(&settings, paymentSettingsID).Error; err != nil {
		return models.PaymentSettings{}, err
	}
	return settings, nil
}

func (r *installmentRepository) SaveSettings(ctx context.Context, settings *models.PaymentSettings) error {
	settings.ID = paymentSettingsID
	return r.db.WithContext(ctx).Save(settings).Error
}
