package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
)

var (
	// ErrMissingColumns indicates the CSV header lacks required applicant columns.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrUnsupportedImport indicates the upload is not a CSV document.
	ErrUnsupportedImport = errors.New("import must be a csv file")
	// ErrImportTooLarge indicates the upload exceeds the configured size.
	ErrImportTooLarge = errors.New("import file too large")
)

var applicantColumns = []string{"name", "level", "gender", "dob", "nationality", "phone", "email", "instrumentInterest"}

// ImportService loads applicants from CSV exports.
type ImportService interface {
	ImportApplicants(ctx context.Context, source io.Reader) (dto.ApplicantImportResponse, error)
	ListApplicants(ctx context.Context, status string) ([]models.Applicant, error)
}

type importService struct {
	repo    repository.ApplicantRepository
	maxSize int64
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewImportService constructs the applicant import service.
func NewImportService(repo repository.ApplicantRepository, maxSize int64, logger zerolog.Logger) ImportService {
	if maxSize <= 0 {
		maxSize = 2 << 20
	}
	return &importService{
		repo:    repo,
		maxSize: maxSize,
		logger:  logger.With().Str("component", "import_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/maestro-api/internal/service/import"),
	}
}

// ImportApplicants aborts before writing anything when the header is incomplete; otherwise every
// row becomes one applicant and the whole file is inserted as a batch.
func (s *importService) ImportApplicants(ctx context.Context, source io.Reader) (dto.ApplicantImportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "applicants.import")
	defer span.End()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(source, s.maxSize+1)); err != nil {
		span.RecordError(err)
		return dto.ApplicantImportResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		span.SetStatus(codes.Error, "payload too large")
		return dto.ApplicantImportResponse{}, ErrImportTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("import.detected_mime", mime.String()))
	if !mime.Is("text/csv") && !mime.Is("text/plain") {
		span.SetStatus(codes.Error, "type not allowed")
		return dto.ApplicantImportResponse{}, ErrUnsupportedImport
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dto.ApplicantImportResponse{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(applicantColumns, ", "))
		}
		return dto.ApplicantImportResponse{}, err
	}

	index, missing := indexColumns(header)
	if len(missing) > 0 {
		span.SetStatus(codes.Error, "missing columns")
		return dto.ApplicantImportResponse{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	applicants := make([]models.Applicant, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return dto.ApplicantImportResponse{}, err
		}

		value := func(column string) string {
			position := index[column]
			if position >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[position])
		}

		level := value("level")
		if level == "" {
			level = defaultStudentLevel
		}
		applicants = append(applicants, models.Applicant{
			Name:               value("name"),
			Level:              level,
			Gender:             value("gender"),
			DateOfBirth:        value("dob"),
			Nationality:        value("nationality"),
			Phone:              value("phone"),
			Email:              strings.ToLower(value("email")),
			InstrumentInterest: value("instrumentInterest"),
			Status:             models.ApplicantStatusNew,
		})
	}

	if err := s.repo.CreateBatch(ctx, applicants); err != nil {
		span.RecordError(err)
		return dto.ApplicantImportResponse{}, err
	}

	span.SetAttributes(attribute.Int("import.rows", len(applicants)))
	s.logger.Info().Int("rows", len(applicants)).Msg("applicants imported")
	return dto.ApplicantImportResponse{Imported: len(applicants), Applicants: applicants}, nil
}

func (s *importService) ListApplicants(ctx context.Context, status string) ([]models.Applicant, error) {
	return s.repo.List(ctx, strings.TrimSpace(status))
}

func indexColumns(header []string) (map[string]int, []string) {
	positions := make(map[string]int, len(header))
	for i, column := range header {
		key := strings.ToLower(strings.TrimSpace(column))
		if _, exists := positions[key]; !exists {
			positions[key] = i
		}
	}

	index := make(map[string]int, len(applicantColumns))
	missing := make([]string, 0)
	for _, column := range applicantColumns {
		position, ok := positions[strings.ToLower(column)]
		if !ok {
			missing = append(missing, column)
			continue
		}
		index[column] = position
	}
	return index, missing
}
