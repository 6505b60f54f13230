package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maestro-api/internal/dto"
)

func TestEnrollCreatesSessionAndProjects(t *testing.T) {
	srv := newTestServer(t)
	semester := srv.createSemester(t, "Mona", "Karim")
	student := srv.createStudent(t, "Xavier")

	resp := srv.enroll(t, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "Saturday", Time: "14:00", StudentID: student.ID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created envelope[dto.SessionView]
	decodeResponse(t, resp, &created)
	require.True(t, created.Success)
	require.Equal(t, "Mona", created.Data.Teacher)
	require.Equal(t, "2:00 PM", created.Data.Time)
	require.Equal(t, "3:00 PM", created.Data.EndTime)
	require.Equal(t, "saturday-mona-1400", created.Data.SlotKey)
	require.Len(t, created.Data.Students, 1)

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/admin/semesters/%d/schedule", semester.ID), adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var projection envelope[dto.ScheduleResponse]
	decodeResponse(t, resp, &projection)
	sessions := projection.Data.Master["Mona"]["Saturday"]
	require.Len(t, sessions, 1)
	require.Equal(t, "Xavier", sessions[0].Students[0].Name)
	require.Empty(t, projection.Data.Master["Karim"]["Saturday"])

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/admin/students/%d/enrollments", student.ID), adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var enrollments envelope[[]dto.EnrollmentResponse]
	decodeResponse(t, resp, &enrollments)
	require.Len(t, enrollments.Data, 1)
	require.Equal(t, created.Data.ID, enrollments.Data[0].SessionID)
}

func TestEnrollErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	semester := srv.createSemester(t, "Mona")
	student := srv.createStudent(t, "Xavier")

	payload := dto.EnrollRequest{Teacher: "Mona", Day: "Sunday", Time: "10:30", StudentID: student.ID}
	require.Equal(t, fiber.StatusCreated, srv.enroll(t, semester.ID, payload).StatusCode)

	cases := []struct {
		name       string
		semesterID uint
		payload    dto.EnrollRequest
		status     int
		code       string
	}{
		{name: "duplicate", semesterID: semester.ID, payload: payload, status: fiber.StatusConflict, code: "already_enrolled"},
		{name: "duration out of range", semesterID: semester.ID, payload: dto.EnrollRequest{Teacher: "Mona", Day: "Monday", Time: "10:00", StudentID: student.ID, Duration: 5}, status: fiber.StatusBadRequest, code: "invalid_duration"},
		{name: "unknown teacher", semesterID: semester.ID, payload: dto.EnrollRequest{Teacher: "Nobody", Day: "Monday", Time: "10:00", StudentID: student.ID}, status: fiber.StatusBadRequest, code: "unknown_teacher"},
		{name: "unknown day", semesterID: semester.ID, payload: dto.EnrollRequest{Teacher: "Mona", Day: "Funday", Time: "10:00", StudentID: student.ID}, status: fiber.StatusBadRequest, code: "invalid_day"},
		{name: "missing student", semesterID: semester.ID, payload: dto.EnrollRequest{Teacher: "Mona", Day: "Monday", Time: "10:00", StudentID: 999}, status: fiber.StatusNotFound, code: "student_not_found"},
		{name: "missing semester", semesterID: 404, payload: payload, status: fiber.StatusNotFound, code: "semester_not_found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := srv.enroll(t, tc.semesterID, tc.payload)
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope[any]
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
			require.NotEmpty(t, body.Message)
			require.Equal(t, tc.code, body.Code)
		})
	}
}

func TestRemoveStudentAndDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	semester := srv.createSemester(t, "Mona")
	student := srv.createStudent(t, "Xavier")

	resp := srv.enroll(t, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "Tuesday", Time: "09:00", StudentID: student.ID})
	var created envelope[dto.SessionView]
	decodeResponse(t, resp, &created)

	path := fmt.Sprintf("/api/admin/sessions/%d/students/%d", created.Data.ID, student.ID)
	require.Equal(t, fiber.StatusOK, srv.do(t, http.MethodDelete, path, adminToken(t), nil).StatusCode)
	require.Equal(t, fiber.StatusConflict, srv.do(t, http.MethodDelete, path, adminToken(t), nil).StatusCode)

	sessionPath := fmt.Sprintf("/api/admin/sessions/%d", created.Data.ID)
	require.Equal(t, fiber.StatusOK, srv.do(t, http.MethodDelete, sessionPath, adminToken(t), nil).StatusCode)
	require.Equal(t, fiber.StatusNotFound, srv.do(t, http.MethodDelete, sessionPath, adminToken(t), nil).StatusCode)

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/admin/semesters/%d/events?limit=10", semester.ID), adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var events envelope[[]dto.ScheduleEventMessage]
	decodeResponse(t, resp, &events)
	kinds := make([]string, 0, len(events.Data))
	for _, event := range events.Data {
		kinds = append(kinds, event.Kind)
	}
	require.ElementsMatch(t, []string{"create-session", "add-student", "remove-student", "delete-session"}, kinds)
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/api/admin/semesters", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/admin/semesters", "not-a-token", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/admin/semesters", signToken(t, 7, "teacher", "Mona"), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/admin/semesters", adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAttendanceRequiresDateAndEnrollment(t *testing.T) {
	srv := newTestServer(t)
	semester := srv.createSemester(t, "Mona")
	enrolled := srv.createStudent(t, "Xavier")
	outsider := srv.createStudent(t, "Yara")

	resp := srv.enroll(t, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "Monday", Time: "16:00", StudentID: enrolled.ID})
	var created envelope[dto.SessionView]
	decodeResponse(t, resp, &created)

	attendancePath := fmt.Sprintf("/api/admin/semesters/%d/attendance", semester.ID)
	resp = srv.do(t, http.MethodPost, attendancePath, adminToken(t), dto.AttendanceMarkRequest{
		Date: "2026-10-12", SessionID: created.Data.ID, StudentID: enrolled.ID, Status: "present",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cell envelope[dto.AttendanceCellResponse]
	decodeResponse(t, resp, &cell)
	require.Equal(t, "2026-10-10", cell.Data.WeekStart)

	resp = srv.do(t, http.MethodPost, attendancePath, adminToken(t), dto.AttendanceMarkRequest{
		Date: "2026-10-12", SessionID: created.Data.ID, StudentID: outsider.ID, Status: "present",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	require.Equal(t, fiber.StatusBadRequest, srv.do(t, http.MethodGet, attendancePath, adminToken(t), nil).StatusCode)

	resp = srv.do(t, http.MethodGet, attendancePath+"?date=2026-10-14", adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var week envelope[dto.AttendanceWeekResponse]
	decodeResponse(t, resp, &week)
	require.Equal(t, "present", week.Data.Teachers["Mona"][fmt.Sprint(created.Data.ID)][fmt.Sprint(enrolled.ID)])
}

func TestStudentAttendanceHistoryRoute(t *testing.T) {
	srv := newTestServer(t)
	semester := srv.createSemester(t, "Mona")
	student := srv.createStudent(t, "Xavier")

	resp := srv.enroll(t, semester.ID, dto.EnrollRequest{Teacher: "Mona", Day: "Monday", Time: "16:00", StudentID: student.ID})
	var created envelope[dto.SessionView]
	decodeResponse(t, resp, &created)

	resp = srv.do(t, http.MethodPost, fmt.Sprintf("/api/admin/semesters/%d/attendance", semester.ID), adminToken(t), dto.AttendanceMarkRequest{
		Date: "2026-10-12", SessionID: created.Data.ID, StudentID: student.ID, Status: "late",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/admin/students/%d/attendance?semester_id=%d", student.ID, semester.ID), adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var history envelope[dto.StudentAttendanceResponse]
	decodeResponse(t, resp, &history)
	require.Len(t, history.Data.Records, 1)
	require.Equal(t, "late", history.Data.Records[0].Status)
	require.Empty(t, history.Data.Leaves)

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/admin/students/%d/attendance?semester_id=abc", student.ID), adminToken(t), nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
