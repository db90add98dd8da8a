package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/config"
	"github.com/laras-id/laras-api/internal/handler"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/repository"
	"github.com/laras-id/laras-api/internal/router"
	"github.com/laras-id/laras-api/internal/service"
)

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	return "https://cdn.example.com/test/" + name, nil
}

// testAuth stands in for the JWT middleware: identity comes from request
// headers so each test can act as any user.
func testAuth(c *fiber.Ctx) error {
	if id, err := strconv.Atoi(c.Get("X-Test-User")); err == nil && id > 0 {
		c.Locals("user_id", uint(id))
	}
	if role := c.Get("X-Test-Role"); role != "" {
		c.Locals("user_role", role)
	}
	return c.Next()
}

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Classroom{},
		&models.ClassroomMembership{},
		&models.StaffRequest{},
		&models.ResignationRequest{},
		&models.MasterRoleRequest{},
		&models.MentorApplication{},
		&models.MentorshipRequest{},
		&models.ConversationMessage{},
		&models.MentorshipSession{},
		&models.Schedule{},
		&models.Course{},
		&models.MediaRecord{},
		&models.Notification{},
	))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	staffRepo := repository.NewStaffRequestRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	mentorshipRepo := repository.NewMentorshipRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	notificationService := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validate, logger)
	classroomService := service.NewClassroomService(classroomRepo, userRepo, validate, nil, logger)
	membershipService := service.NewMembershipService(membershipRepo, staffRepo, reviewRepo, classroomRepo, validate, notificationService, nil, logger)
	mentorshipService := service.NewMentorshipService(mentorshipRepo, sessionRepo, userRepo, validate, notificationService, nil, logger)
	scheduleService := service.NewScheduleService(scheduleRepo, validate, nil, logger)
	courseService := service.NewCourseService(courseRepo, validate, notificationService, nil, logger)
	promotionService := service.NewPromotionService(promotionRepo, reviewRepo, userRepo, validate, notificationService, nil, logger)
	dashboardService := service.NewDashboardService(mentorshipRepo, staffRepo, classroomRepo, sessionRepo, nil, 0, logger)
	mediaService := service.NewMediaService(mediaRepo, courseRepo, stubUploader{}, 1<<20, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Laras Test"}, router.Dependencies{
		ClassroomHandler:    handler.NewClassroomHandler(classroomService, membershipService, logger),
		MembershipHandler:   handler.NewMembershipHandler(membershipService, logger),
		MentorshipHandler:   handler.NewMentorshipHandler(mentorshipService, logger),
		ScheduleHandler:     handler.NewScheduleHandler(scheduleService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, mediaService, logger),
		PromotionHandler:    handler.NewPromotionHandler(promotionService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		JWTMiddleware:       testAuth,
	})
	return app, db
}

type testActor struct {
	ID   uint
	Role string
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, actor testActor) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor.ID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(actor.ID), 10))
	}
	if actor.Role != "" {
		req.Header.Set("X-Test-Role", actor.Role)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeResponse(t *testing.T, resp *http.Response) apiEnvelope {
	t.Helper()
	defer resp.Body.Close()

	var envelope apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func decodeData(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	envelope := decodeResponse(t, resp)
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := performRequest(t, app, http.MethodGet, "/api/v1/health", nil, testActor{})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	envelope := decodeResponse(t, resp)
	require.True(t, envelope.Success)
}
