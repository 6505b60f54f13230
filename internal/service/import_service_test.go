package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
)

func newImportService(t *testing.T) ImportService {
	t.Helper()
	return NewImportService(repository.NewApplicantRepository(newTestDB(t)), 1<<16, testLogger())
}

func TestImportApplicantsFromCSV(t *testing.T) {
	svc := newImportService(t)
	ctx := context.Background()

	csvData := "\xef\xbb\xbfName,Level,Gender,DOB,Nationality,Phone,Email,InstrumentInterest\n" +
		"Xavier,,M,2012-04-01,EG,+201000,X@Example.com,Piano\n" +
		"Yara,advanced,F,2010-01-09,EG,+201001,yara@example.com,Violin\n"

	result, err := svc.ImportApplicants(ctx, strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)
	require.Equal(t, "beginner", result.Applicants[0].Level)
	require.Equal(t, "x@example.com", result.Applicants[0].Email)
	require.Equal(t, "Violin", result.Applicants[1].InstrumentInterest)

	applicants, err := svc.ListApplicants(ctx, models.ApplicantStatusNew)
	require.NoError(t, err)
	require.Len(t, applicants, 2)
}

func TestImportApplicantsRejectsIncompleteHeader(t *testing.T) {
	svc := newImportService(t)
	ctx := context.Background()

	_, err := svc.ImportApplicants(ctx, strings.NewReader("name,level,gender\nXavier,beginner,M\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
	require.Contains(t, err.Error(), "instrumentInterest")
	require.Contains(t, err.Error(), "dob")

	applicants, err := svc.ListApplicants(ctx, "")
	require.NoError(t, err)
	require.Empty(t, applicants)
}

func TestImportApplicantsRejectsNonCSV(t *testing.T) {
	svc := newImportService(t)

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	_, err := svc.ImportApplicants(context.Background(), bytes.NewReader(png))
	require.ErrorIs(t, err, ErrUnsupportedImport)

	large := NewImportService(nil, 8, testLogger())
	_, err = large.ImportApplicants(context.Background(), strings.NewReader("name,level,gender,dob\n"))
	require.ErrorIs(t, err, ErrImportTooLarge)
}
