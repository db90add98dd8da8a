package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/models"
)

func TestMentorshipLifecycleOverHTTP(t *testing.T) {
	app, db := setupTestApp(t)
	mentor := seedAccount(t, db, "ws-mentor", models.RoleMentor, false)
	mentorActor := testActor{ID: mentor.ID, Role: models.RoleMentor}
	student := testActor{ID: 300, Role: models.RoleStudent}

	resp := performRequest(t, app, http.MethodPost, "/api/v1/mentorship-requests",
		dto.MentorshipRequestCreate{MentorID: mentor.ID, Message: "please teach me gender barung"}, student)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var request dto.MentorshipRequestResponse
	decodeData(t, resp, &request)
	require.Equal(t, models.MentorshipStatusPending, request.Status)

	requestURL := "/api/v1/mentorship-requests/" + itoa(request.ID)

	// Only the addressed mentor may answer.
	resp = performRequest(t, app, http.MethodPost, requestURL+"/respond",
		dto.MentorshipRespondRequest{Decision: "accepted"}, student)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = performRequest(t, app, http.MethodPost, requestURL+"/respond",
		dto.MentorshipRespondRequest{Decision: "accepted", MentorResponse: "gladly"}, mentorActor)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, resp, &request)
	require.Equal(t, models.MentorshipStatusAccepted, request.Status)
	require.NotNil(t, request.AcceptedAt)

	// A second answer is rejected as already reviewed.
	resp = performRequest(t, app, http.MethodPost, requestURL+"/respond",
		dto.MentorshipRespondRequest{Decision: "rejected"}, mentorActor)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = performRequest(t, app, http.MethodPost, requestURL+"/conversation",
		dto.ConversationMessageCreate{Message: "when can we start?"}, student)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Outsiders cannot read the conversation.
	resp = performRequest(t, app, http.MethodGet, requestURL+"/conversation", nil, testActor{ID: 999, Role: models.RoleStudent})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = performRequest(t, app, http.MethodGet, requestURL+"/conversation", nil, mentorActor)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var messages []dto.ConversationMessageResponse
	decodeData(t, resp, &messages)
	require.Len(t, messages, 1)
	require.Equal(t, "when can we start?", messages[0].Message)
}

func TestMentorshipMessagingRequiresAcceptance(t *testing.T) {
	app, db := setupTestApp(t)
	mentor := seedAccount(t, db, "pending-mentor", models.RoleMentor, false)
	student := testActor{ID: 301, Role: models.RoleStudent}

	resp := performRequest(t, app, http.MethodPost, "/api/v1/mentorship-requests",
		dto.MentorshipRequestCreate{MentorID: mentor.ID, Message: "interested in karawitan"}, student)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var request dto.MentorshipRequestResponse
	decodeData(t, resp, &request)

	resp = performRequest(t, app, http.MethodPost, "/api/v1/mentorship-requests/"+itoa(request.ID)+"/conversation",
		dto.ConversationMessageCreate{Message: "hello?"}, student)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMentorshipCancelOverHTTP(t *testing.T) {
	app, db := setupTestApp(t)
	mentor := seedAccount(t, db, "cancel-mentor", models.RoleMentor, false)
	student := testActor{ID: 303, Role: models.RoleStudent}

	resp := performRequest(t, app, http.MethodPost, "/api/v1/mentorship-requests",
		dto.MentorshipRequestCreate{MentorID: mentor.ID, Message: "thinking about suling lessons"}, student)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var request dto.MentorshipRequestResponse
	decodeData(t, resp, &request)

	cancelURL := "/api/v1/mentorship-requests/" + itoa(request.ID) + "/cancel"

	// Only the requesting student may withdraw.
	resp = performRequest(t, app, http.MethodPost, cancelURL, nil, testActor{ID: mentor.ID, Role: models.RoleMentor})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = performRequest(t, app, http.MethodPost, cancelURL, nil, student)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, resp, &request)
	require.Equal(t, models.MentorshipStatusCancelled, request.Status)

	resp = performRequest(t, app, http.MethodPost, cancelURL, nil, student)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSessionSchedulingOverHTTP(t *testing.T) {
	app, db := setupTestApp(t)
	mentor := seedAccount(t, db, "session-mentor", models.RoleMentor, false)
	mentorActor := testActor{ID: mentor.ID, Role: models.RoleMentor}
	student := testActor{ID: 302, Role: models.RoleStudent}

	resp := performRequest(t, app, http.MethodPost, "/api/v1/mentorship-requests",
		dto.MentorshipRequestCreate{MentorID: mentor.ID, Message: "lessons on ciblon drumming"}, student)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var request dto.MentorshipRequestResponse
	decodeData(t, resp, &request)

	resp = performRequest(t, app, http.MethodPost, "/api/v1/mentorship-requests/"+itoa(request.ID)+"/respond",
		dto.MentorshipRespondRequest{Decision: "accepted"}, mentorActor)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	resp = performRequest(t, app, http.MethodPost, "/api/v1/mentorship-sessions",
		dto.SessionScheduleRequest{RequestID: request.ID, Title: "First lesson", ScheduledAt: start, DurationMinutes: 60}, mentorActor)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var session dto.SessionResponse
	decodeData(t, resp, &session)
	require.Equal(t, models.SessionStatusScheduled, session.Status)

	// A second booking in the same window is rejected.
	resp = performRequest(t, app, http.MethodPost, "/api/v1/mentorship-sessions",
		dto.SessionScheduleRequest{RequestID: request.ID, Title: "Double booked", ScheduledAt: start.Add(30 * time.Minute), DurationMinutes: 60}, mentorActor)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	rating := 5
	resp = performRequest(t, app, http.MethodPost, "/api/v1/mentorship-sessions/"+itoa(session.ID)+"/status",
		dto.SessionStatusRequest{Status: models.SessionStatusCompleted, Rating: &rating, Feedback: "great pace"}, student)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, resp, &session)
	require.Equal(t, models.SessionStatusCompleted, session.Status)
	require.NotNil(t, session.Rating)
	require.Equal(t, 5, *session.Rating)
}
