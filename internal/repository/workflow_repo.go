package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/models"
)

// RequestFilter narrows teacher request listings.
type RequestFilter struct {
	Status  string
	Teacher string
	Type    string
}

// LeaveFilter narrows leave listings.
type LeaveFilter struct {
	Type     string
	Status   string
	PersonID *uint
}

// RequestRepository persists teacher requests.
type RequestRepository interface {
	List(ctx context.Context, filter RequestFilter) ([]models.TeacherRequest, error)
	GetByID(ctx context.Context, id uint) (models.TeacherRequest, error)
	Create(ctx context.Context, request *models.TeacherRequest) error
	Save(ctx context.Context, request *models.TeacherRequest) error
}

// LeaveRepository persists student and teacher leaves.
type LeaveRepository interface {
	List(ctx context.Context, filter LeaveFilter) ([]models.Leave, error)
	GetByID(ctx context.Context, id uint) (models.Leave, error)
	Create(ctx context.Context, leave *models.Leave) error
	Save(ctx context.Context, leave *models.Leave) error
	ApprovedStudentLeaves(ctx context.Context, studentID uint) ([]models.Leave, error)
}

type requestRepository struct {
	db *gorm.DB
}

type leaveRepository struct {
	db *gorm.DB
}

// NewRequestRepository constructs the teacher request repository.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// NewLeaveRepository constructs the leave repository.
func NewLeaveRepository(db *gorm.DB) LeaveRepository {
	return &leaveRepository{db: db}
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]models.TeacherRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.TeacherRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Teacher != "" {
		query = query.Where("teacher = ?", filter.Teacher)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var requests []models.TeacherRequest
	if err := query.Order("created_at DESC, id DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (models.TeacherRequest, error) {
	var request models.TeacherRequest
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return models.TeacherRequest{}, err
	}
	return request, nil
}

func (r *requestRepository) Create(ctx context.Context, request *models.TeacherRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *requestRepository) Save(ctx context.Context, request *models.TeacherRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *leaveRepository) List(ctx context.Context, filter LeaveFilter) ([]models.Leave, error) {
	query := r.db.WithContext(ctx).Model(&models.Leave{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PersonID != nil {
		query = query.Where("person_id = ?", *filter.PersonID)
	}

	var leaves []models.Leave
	if err := query.Order("start_date DESC, id DESC").Find(&leaves).Error; err != nil {
		return nil, err
	}
	return leaves, nil
}

func (r *leaveRepository) GetByID(ctx context.Context, id uint) (models.Leave, error) {
	var leave models.Leave
	if err := r.db.WithContext(ctx).First(&leave, id).Error; err != nil {
		return models.Leave{}, err
	}
	return leave, nil
}

func (r *leaveRepository) Create(ctx context.Context, leave *models.Leave) error {
	return r.db.WithContext(ctx).Create(leave).Error
}

func (r *leaveRepository) Save(ctx context.Context, leave *models.Leave) error {
	return r.db.WithContext(ctx).Save(leave).Error
}

func (r *leaveRepository) ApprovedStudentLeaves(ctx context.Context, studentID uint) ([]models.Leave, error) {
	var leaves []models.Leave
	err := r.db.WithContext(ctx).
		Where("type = ? AND person_id = ? AND status = ?", models.LeaveTypeStudent, studentID, models.StatusApproved).
		Find(&leaves).Error
	if err != nil {
		return nil, err
	}
	return leaves, nil
}
