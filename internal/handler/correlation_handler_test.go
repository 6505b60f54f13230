package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maestro-api/internal/dto"
)

func TestCorrelationIDFlowsIntoEventsAndActivity(t *testing.T) {
	srv := newTestServer(t)
	semester := srv.createSemester(t, "Mona")
	student := srv.createStudent(t, "Xavier")
	headers := map[string]string{"X-Correlation-ID": "office-desk-3"}

	resp := srv.doWithHeaders(t, http.MethodPost, fmt.Sprintf("/api/admin/semesters/%d/enrollments", semester.ID), adminToken(t),
		dto.EnrollRequest{Teacher: "Mona", Day: "Monday", Time: "10:00", StudentID: student.ID}, headers)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "office-desk-3", resp.Header.Get("X-Correlation-ID"))
	resp.Body.Close()

	resp = srv.do(t, http.MethodGet, fmt.Sprintf("/api/admin/semesters/%d/events?limit=10", semester.ID), adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var events envelope[[]dto.ScheduleEventMessage]
	decodeResponse(t, resp, &events)
	require.NotEmpty(t, events.Data)
	for _, event := range events.Data {
		require.Equal(t, "office-desk-3", event.Payload["correlation_id"], event.Kind)
	}

	resp = srv.doWithHeaders(t, http.MethodPost, fmt.Sprintf("/api/admin/semesters/%d/activate", semester.ID), adminToken(t), nil, headers)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = srv.do(t, http.MethodGet, "/api/admin/activity?correlation_id=office-desk-3", adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var activity envelope[dto.AdminActivityListResponse]
	decodeResponse(t, resp, &activity)
	require.Len(t, activity.Data.Items, 1)
	require.Equal(t, "semester.activated", activity.Data.Items[0].Action)
	require.Equal(t, "office-desk-3", activity.Data.Items[0].CorrelationID)
}
