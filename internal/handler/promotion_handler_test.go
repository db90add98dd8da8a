package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/models"
)

func TestMasterRoleRequestOverHTTP(t *testing.T) {
	app, db := setupTestApp(t)
	mentor := seedAccount(t, db, "aspiring-master", models.RoleMentor, false)
	mentorActor := testActor{ID: mentor.ID, Role: models.RoleMentor}
	admin := seedAccount(t, db, "upgrade-admin", models.RoleAdmin, false)
	adminActor := testActor{ID: admin.ID, Role: models.RoleAdmin}

	resp := performRequest(t, app, http.MethodPost, "/api/v1/master-role-requests",
		dto.MasterRoleRequestCreate{Message: "five years of teaching"}, mentorActor)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var request dto.MasterRoleRequestResponse
	decodeData(t, resp, &request)
	require.Equal(t, models.ReviewStatusPending, request.Status)

	// A second pending request is rejected as a duplicate.
	resp = performRequest(t, app, http.MethodPost, "/api/v1/master-role-requests", nil, mentorActor)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	reviewURL := "/api/v1/master-role-requests/" + itoa(request.ID) + "/review"

	// Review is for admins only.
	resp = performRequest(t, app, http.MethodPost, reviewURL,
		dto.ReviewDecisionRequest{Decision: "approve"}, mentorActor)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = performRequest(t, app, http.MethodPost, reviewURL,
		dto.ReviewDecisionRequest{Decision: "approve", Notes: "well earned"}, adminActor)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, resp, &request)
	require.Equal(t, models.ReviewStatusApproved, request.Status)

	var upgraded models.User
	require.NoError(t, db.First(&upgraded, mentor.ID).Error)
	require.True(t, upgraded.IsMaster)

	resp = performRequest(t, app, http.MethodPost, reviewURL,
		dto.ReviewDecisionRequest{Decision: "reject"}, adminActor)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMentorApplicationOverHTTP(t *testing.T) {
	app, db := setupTestApp(t)
	applicant := seedAccount(t, db, "hopeful-student", models.RoleStudent, false)
	applicantActor := testActor{ID: applicant.ID, Role: models.RoleStudent}
	admin := seedAccount(t, db, "application-admin", models.RoleAdmin, false)
	adminActor := testActor{ID: admin.ID, Role: models.RoleAdmin}

	resp := performRequest(t, app, http.MethodPost, "/api/v1/mentor-applications",
		dto.MentorApplicationCreate{Bio: "ten years playing gender barung"}, applicantActor)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var application dto.MentorApplicationResponse
	decodeData(t, resp, &application)

	resp = performRequest(t, app, http.MethodPost,
		"/api/v1/mentor-applications/"+itoa(application.ID)+"/review",
		dto.ReviewDecisionRequest{Decision: "approve"}, adminActor)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, resp, &application)
	require.Equal(t, models.ReviewStatusApproved, application.Status)

	var promoted models.User
	require.NoError(t, db.First(&promoted, applicant.ID).Error)
	require.Equal(t, models.RoleMentor, promoted.Role)
}

func TestMentorApplicationRejectsMentors(t *testing.T) {
	app, db := setupTestApp(t)
	mentor := seedAccount(t, db, "already-mentor", models.RoleMentor, false)

	resp := performRequest(t, app, http.MethodPost, "/api/v1/mentor-applications",
		dto.MentorApplicationCreate{Bio: "I would like to mentor again"},
		testActor{ID: mentor.ID, Role: models.RoleMentor})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
