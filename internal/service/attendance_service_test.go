package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
)

func TestAttendanceMarkUsesSaturdayWeek(t *testing.T) {
	f := newFixture(t)
	semester := f.semester(t, "Mona")
	x := f.student(t, "Xavier")
	ctx := context.Background()

	session, err := f.schedule.Enroll(ctx, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "monday", Time: "4:00 PM", StudentID: x.ID}, admin)
	require.NoError(t, err)

	cell, err := f.attendance.Mark(ctx, semester.ID, dto.AttendanceMarkRequest{Date: "2026-10-12", SessionID: session.ID, StudentID: x.ID, Status: models.AttendancePresent})
	require.NoError(t, err)
	require.Equal(t, "2026-10-10", cell.WeekStart)
	require.Equal(t, "Mona", cell.Teacher)

	_, err = f.attendance.Mark(ctx, semester.ID, dto.AttendanceMarkRequest{Date: "2026-10-16", SessionID: session.ID, StudentID: x.ID, Status: models.AttendanceAbsent})
	require.NoError(t, err)

	week, err := f.attendance.Week(ctx, semester.ID, time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, "2026-10-10", week.WeekStart)
	sessionKey := strconv.FormatUint(uint64(session.ID), 10)
	studentKey := strconv.FormatUint(uint64(x.ID), 10)
	require.Equal(t, models.AttendanceAbsent, week.Teachers["Mona"][sessionKey][studentKey])
}

func TestAttendanceRejectsUnknownMembership(t *testing.T) {
	f := newFixture(t)
	semester := f.semester(t, "Mona")
	x := f.student(t, "Xavier")
	y := f.student(t, "Yara")
	ctx := context.Background()

	session, err := f.schedule.Enroll(ctx, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "monday", Time: "4:00 PM", StudentID: x.ID}, admin)
	require.NoError(t, err)

	_, err = f.attendance.Mark(ctx, semester.ID, dto.AttendanceMarkRequest{Date: "2026-10-12", SessionID: session.ID, StudentID: y.ID, Status: models.AttendancePresent})
	require.ErrorIs(t, err, ErrNotEnrolled)

	_, err = f.attendance.Mark(ctx, semester.ID, dto.AttendanceMarkRequest{Date: "2026-10-12", SessionID: 999, StudentID: x.ID, Status: models.AttendancePresent})
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAttendanceSuppressedDuringApprovedStudentLeave(t *testing.T) {
	f := newFixture(t)
	semester := f.semester(t, "Mona")
	x := f.student(t, "Xavier")
	ctx := context.Background()

	session, err := f.schedule.Enroll(ctx, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "monday", Time: "4:00 PM", StudentID: x.ID}, admin)
	require.NoError(t, err)

	leave, err := f.leaves.Create(ctx, dto.LeaveCreateRequest{Type: models.LeaveTypeStudent, PersonID: x.ID, StartDate: "2026-10-10", EndDate: "2026-10-14"})
	require.NoError(t, err)

	mark := dto.AttendanceMarkRequest{Date: "2026-10-12", SessionID: session.ID, StudentID: x.ID, Status: models.AttendancePresent}
	_, err = f.attendance.Mark(ctx, semester.ID, mark)
	require.NoError(t, err, "pending leaves do not suppress marking")

	_, err = f.leaves.Approve(ctx, leave.ID, dto.LeaveApproveRequest{}, admin)
	require.NoError(t, err)

	_, err = f.attendance.Mark(ctx, semester.ID, mark)
	require.ErrorIs(t, err, ErrStudentOnLeave)

	stored, err := f.scheduleRepo.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, stored.HasStudent(x.ID), "student leave never changes the schedule")

	mark.Date = "2026-10-19"
	_, err = f.attendance.Mark(ctx, semester.ID, mark)
	require.NoError(t, err)
}

func TestAttendanceSurvivesSessionDeletion(t *testing.T) {
	f := newFixture(t)
	semester := f.semester(t, "Mona")
	x := f.student(t, "Xavier")
	ctx := context.Background()

	session, err := f.schedule.Enroll(ctx, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "monday", Time: "4:00 PM", StudentID: x.ID}, admin)
	require.NoError(t, err)
	_, err = f.attendance.Mark(ctx, semester.ID, dto.AttendanceMarkRequest{Date: "2026-10-12", SessionID: session.ID, StudentID: x.ID, Status: models.AttendancePresent})
	require.NoError(t, err)

	require.NoError(t, f.schedule.DeleteSession(ctx, session.ID, admin))

	records, err := f.attendanceRepo.ListWeek(ctx, semester.ID, "2026-10-10")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestStudentAttendanceHistory(t *testing.T) {
	f := newFixture(t)
	semester := f.semester(t, "Mona")
	x := f.student(t, "Xavier")
	ctx := context.Background()

	session, err := f.schedule.Enroll(ctx, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "monday", Time: "4:00 PM", StudentID: x.ID}, admin)
	require.NoError(t, err)
	for _, date := range []string{"2026-10-19", "2026-10-12"} {
		_, err = f.attendance.Mark(ctx, semester.ID, dto.AttendanceMarkRequest{Date: date, SessionID: session.ID, StudentID: x.ID, Status: models.AttendancePresent})
		require.NoError(t, err)
	}

	leave, err := f.leaves.Create(ctx, dto.LeaveCreateRequest{Type: models.LeaveTypeStudent, PersonID: x.ID, StartDate: "2026-11-01", EndDate: "2026-11-07"})
	require.NoError(t, err)
	_, err = f.leaves.Approve(ctx, leave.ID, dto.LeaveApproveRequest{}, admin)
	require.NoError(t, err)

	history, err := f.attendance.StudentHistory(ctx, x.ID, nil)
	require.NoError(t, err)
	require.Equal(t, semester.ID, history.SemesterID)
	require.Len(t, history.Records, 2)
	require.Equal(t, "2026-10-10", history.Records[0].WeekStart)
	require.Equal(t, "2026-10-17", history.Records[1].WeekStart)
	require.Equal(t, []dto.LeaveWindow{{LeaveID: leave.ID, StartDate: "2026-11-01", EndDate: "2026-11-07"}}, history.Leaves)

	_, err = f.attendance.StudentHistory(ctx, 999, nil)
	require.ErrorIs(t, err, ErrStudentNotFound)

	missing := uint(404)
	_, err = f.attendance.StudentHistory(ctx, x.ID, &missing)
	require.ErrorIs(t, err, ErrSemesterNotFound)
}
