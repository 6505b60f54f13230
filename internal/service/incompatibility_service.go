package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
)

// ErrIncompatibilityNotFound indicates the exclusion rule does not exist.
var ErrIncompatibilityNotFound = errors.New("incompatibility not found")

// IncompatibilityService stores exclusion rules. The schedule never consults them.
type IncompatibilityService interface {
	List(ctx context.Context) ([]models.Incompatibility, error)
	Create(ctx context.Context, payload dto.IncompatibilityCreateRequest) (models.Incompatibility, error)
	Delete(ctx context.Context, id uint) error
}

type incompatibilityService struct {
	repo      repository.IncompatibilityRepository
	students  repository.StudentRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewIncompatibilityService constructs the exclusion rule service.
func NewIncompatibilityService(repo repository.IncompatibilityRepository, students repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) IncompatibilityService {
	return &incompatibilityService{
		repo:      repo,
		students:  students,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "incompatibility_service").Logger(),
	}
}

func (s *incompatibilityService) List(ctx context.Context) ([]models.Incompatibility, error) {
	return s.repo.List(ctx)
}

func (s *incompatibilityService) Create(ctx context.Context, payload dto.IncompatibilityCreateRequest) (models.Incompatibility, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Incompatibility{}, err
	}

	for _, id := range []uint{payload.StudentAID, payload.StudentBID} {
		if _, err := s.students.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Incompatibility{}, ErrStudentNotFound
			}
			return models.Incompatibility{}, err
		}
	}

	rule := models.Incompatibility{
		StudentAID: payload.StudentAID,
		StudentBID: payload.StudentBID,
		Reason:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason)),
	}
	if err := s.repo.Create(ctx, &rule); err != nil {
		return models.Incompatibility{}, err
	}

	s.logger.Info().Uint("rule_id", rule.ID).Msg("incompatibility recorded")
	return rule, nil
}

func (s *incompatibilityService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIncompatibilityNotFound
		}
		return err
	}
	return nil
}
