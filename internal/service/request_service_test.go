package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
)

func TestRemoveStudentRequestLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	semester := f.semester(t, "Mona", "Karim")
	x := f.student(t, "Xavier")
	y := f.student(t, "Yara")

	session, err := f.schedule.Enroll(ctx, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "Sunday", Time: "10:00 AM", StudentID: x.ID}, admin)
	require.NoError(t, err)
	_, err = f.schedule.Enroll(ctx, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "Sunday", Time: "10:00 AM", StudentID: y.ID}, admin)
	require.NoError(t, err)

	removal := dto.TeacherRequestCreateRequest{
		Type: models.RequestTypeRemoveStudent, Teacher: "Mona", StudentID: x.ID, SessionID: session.ID, Day: "sunday", Reason: "Moved away",
	}
	approvedReq, err := f.requests.Create(ctx, removal)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, approvedReq.Status)
	require.Equal(t, "Sunday", approvedReq.Details.Day)
	require.Equal(t, "10:00 AM", approvedReq.Details.SessionTime)

	removal.StudentID = y.ID
	deniedReq, err := f.requests.Create(ctx, removal)
	require.NoError(t, err)

	stored, err := f.scheduleRepo.GetSession(ctx, session.ID)
	require.NoError(t, err)
	for _, student := range stored.Students {
		require.True(t, student.PendingRemoval)
	}

	approved, err := f.requests.Approve(ctx, approvedReq.ID, admin)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)

	denied, err := f.requests.Deny(ctx, deniedReq.ID, admin)
	require.NoError(t, err)
	require.Equal(t, models.StatusDenied, denied.Status)

	stored, err = f.scheduleRepo.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.False(t, stored.HasStudent(x.ID))
	require.True(t, stored.HasStudent(y.ID))
	require.False(t, stored.Students[0].PendingRemoval)

	_, err = f.requests.Approve(ctx, approvedReq.ID, admin)
	require.ErrorIs(t, err, ErrRequestNotPending)

	pending, err := f.requests.List(ctx, dto.TeacherRequestListRequest{Status: models.StatusPending})
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestRemoveStudentRequestMustMatchSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	semester := f.semester(t, "Mona", "Karim")
	x := f.student(t, "Xavier")
	y := f.student(t, "Yara")

	session, err := f.schedule.Enroll(ctx, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "Sunday", Time: "10:00 AM", StudentID: x.ID}, admin)
	require.NoError(t, err)

	_, err = f.requests.Create(ctx, dto.TeacherRequestCreateRequest{
		Type: models.RequestTypeRemoveStudent, Teacher: "Karim", StudentID: x.ID, SessionID: session.ID, Day: "Sunday",
	})
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.requests.Create(ctx, dto.TeacherRequestCreateRequest{
		Type: models.RequestTypeRemoveStudent, Teacher: "Mona", StudentID: x.ID, SessionID: session.ID, Day: "Monday",
	})
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.requests.Create(ctx, dto.TeacherRequestCreateRequest{
		Type: models.RequestTypeRemoveStudent, Teacher: "Mona", StudentID: y.ID, SessionID: session.ID, Day: "Sunday",
	})
	require.ErrorIs(t, err, ErrNotEnrolled)

	_, err = f.requests.Approve(ctx, 404, admin)
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestAddStudentRequestApprovalOnlyChangesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	semester := f.semester(t, "Mona")
	x := f.student(t, "Xavier")

	request, err := f.requests.Create(ctx, dto.TeacherRequestCreateRequest{
		Type: models.RequestTypeAddStudent, Teacher: "Mona", SemesterID: semester.ID, StudentID: x.ID, Day: "Tuesday", SessionTime: "3:00 PM",
	})
	require.NoError(t, err)

	approved, err := f.requests.Approve(ctx, request.ID, admin)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, approved.Status)

	enrollments, err := f.schedule.StudentEnrollments(ctx, x.ID, nil)
	require.NoError(t, err)
	require.Empty(t, enrollments)

	byTeacher, err := f.requests.List(ctx, dto.TeacherRequestListRequest{Teacher: "Mona", Type: models.RequestTypeAddStudent})
	require.NoError(t, err)
	require.Len(t, byTeacher, 1)
}

func TestRemoveStudentRequestApprovesAfterDirectRemoval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	semester := f.semester(t, "Mona")
	x := f.student(t, "Xavier")

	session, err := f.schedule.Enroll(ctx, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "Sunday", Time: "10:00 AM", StudentID: x.ID}, admin)
	require.NoError(t, err)

	request, err := f.requests.Create(ctx, dto.TeacherRequestCreateRequest{
		Type: models.RequestTypeRemoveStudent, Teacher: "Mona", StudentID: x.ID, SessionID: session.ID, Day: "Sunday",
	})
	require.NoError(t, err)

	require.NoError(t, f.schedule.RemoveStudent(ctx, session.ID, x.ID, admin))

	approved, err := f.requests.Approve(ctx, request.ID, admin)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, approved.Status)

	events, err := f.schedule.Events(ctx, semester.ID, 10)
	require.NoError(t, err)
	removals := 0
	for _, event := range events {
		if event.Kind == models.EventRemoveStudent {
			removals++
		}
	}
	require.Equal(t, 1, removals)
}
