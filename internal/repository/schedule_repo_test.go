package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/models"
)

func TestSemesterRepositoryActivateKeepsSingleActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSemesterRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	fall := models.Semester{Name: "Fall", StartDate: start, EndDate: start.AddDate(0, 4, 0), IsActive: true}
	spring := models.Semester{Name: "Spring", StartDate: start.AddDate(0, 5, 0), EndDate: start.AddDate(0, 9, 0)}
	require.NoError(t, repo.Create(ctx, &fall))
	require.NoError(t, repo.Create(ctx, &spring))

	require.NoError(t, repo.Activate(ctx, spring.ID))

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.Equal(t, spring.ID, active.ID)

	var count int64
	require.NoError(t, db.Model(&models.Semester{}).Where("is_active = ?", true).Count(&count).Error)
	require.Equal(t, int64(1), count)

	err = repo.Activate(ctx, 999)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestScheduleRepositorySlotUniqueness(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	first := models.Session{SemesterID: 1, Teacher: "Mona", Day: "Saturday", StartMinutes: 840, Time: "2:00 PM", EndTime: "3:00 PM", Duration: 1, Type: models.SessionTypePractical}
	require.NoError(t, repo.CreateSession(ctx, &first))

	duplicate := first
	duplicate.ID = 0
	require.Error(t, repo.CreateSession(ctx, &duplicate))

	found, err := repo.FindSlot(ctx, 1, "Mona", "Saturday", 840)
	require.NoError(t, err)
	require.Equal(t, first.ID, found.ID)

	_, err = repo.FindSlot(ctx, 1, "Mona", "Sunday", 840)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestScheduleRepositoryEnrollmentsJoin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	saturday := models.Session{SemesterID: 1, Teacher: "Mona", Day: "Saturday", StartMinutes: 840, Time: "2:00 PM", EndTime: "3:00 PM", Duration: 1}
	monday := models.Session{SemesterID: 2, Teacher: "Karim", Day: "Monday", StartMinutes: 600, Time: "10:00 AM", EndTime: "11:00 AM", Duration: 1}
	require.NoError(t, repo.CreateSession(ctx, &saturday))
	require.NoError(t, repo.CreateSession(ctx, &monday))

	require.NoError(t, repo.AddStudent(ctx, &models.SessionStudent{SessionID: saturday.ID, StudentID: 7, StudentName: "Lina"}))
	require.NoError(t, repo.AddStudent(ctx, &models.SessionStudent{SessionID: monday.ID, StudentID: 7, StudentName: "Lina"}))
	require.Error(t, repo.AddStudent(ctx, &models.SessionStudent{SessionID: monday.ID, StudentID: 7, StudentName: "Lina"}))

	enrollments, err := repo.EnrollmentsForStudent(ctx, 7, nil)
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.Equal(t, "Mona", enrollments[0].Teacher)
	require.Equal(t, "2:00 PM", enrollments[0].Time)

	semesterID := uint(2)
	enrollments, err = repo.EnrollmentsForStudent(ctx, 7, &semesterID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, monday.ID, enrollments[0].SessionID)

	require.NoError(t, repo.SetPendingRemoval(ctx, saturday.ID, 7, true))
	session, err := repo.GetSession(ctx, saturday.ID)
	require.NoError(t, err)
	require.True(t, session.Students[0].PendingRemoval)

	require.NoError(t, repo.RemoveStudent(ctx, saturday.ID, 7))
	require.True(t, errors.Is(repo.RemoveStudent(ctx, saturday.ID, 7), gorm.ErrRecordNotFound))

	require.NoError(t, repo.DeleteSession(ctx, monday.ID))
	enrollments, err = repo.EnrollmentsForStudent(ctx, 7, nil)
	require.NoError(t, err)
	require.Empty(t, enrollments)
}

func TestScheduleRepositoryTransactionRollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx ScheduleRepository) error {
		session := models.Session{SemesterID: 1, Teacher: "Mona", Day: "Friday", StartMinutes: 600, Time: "10:00 AM", EndTime: "11:00 AM", Duration: 1}
		if err := tx.CreateSession(ctx, &session); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &models.ScheduleEvent{SemesterID: 1, Kind: models.EventCreateSession, SessionID: session.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	sessions, err := repo.ListSessions(ctx, 1, SessionFilter{})
	require.NoError(t, err)
	require.Empty(t, sessions)

	events, err := repo.ListEvents(ctx, 1, 10)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestAttendanceRepositoryUpsertReplacesCell(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	cell := models.AttendanceRecord{SemesterID: 1, WeekStart: "2026-10-10", SessionID: 3, StudentID: 7, Teacher: "Mona", Status: models.AttendancePresent}
	require.NoError(t, repo.Upsert(ctx, &cell))

	again := models.AttendanceRecord{SemesterID: 1, WeekStart: "2026-10-10", SessionID: 3, StudentID: 7, Teacher: "Mona", Status: models.AttendanceLate}
	require.NoError(t, repo.Upsert(ctx, &again))

	records, err := repo.ListWeek(ctx, 1, "2026-10-10")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.AttendanceLate, records[0].Status)

	records, err = repo.ListWeek(ctx, 1, "2026-10-17")
	require.NoError(t, err)
	require.Empty(t, records)
}
