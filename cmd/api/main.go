package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/laras-id/laras-api/internal/config"
	"github.com/laras-id/laras-api/internal/database"
	"github.com/laras-id/laras-api/internal/handler"
	"github.com/laras-id/laras-api/internal/middleware"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/repository"
	"github.com/laras-id/laras-api/internal/router"
	"github.com/laras-id/laras-api/internal/service"
	cloud "github.com/laras-id/laras-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
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
		&models.ActivityLog{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	staffRequestRepo := repository.NewStaffRequestRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	mentorshipRepo := repository.NewMentorshipRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.EventChannelBase, natsConn, validate, logger)

	classroomService := service.NewClassroomService(classroomRepo, userRepo, validate, activityService, logger)
	membershipService := service.NewMembershipService(membershipRepo, staffRequestRepo, reviewRepo, classroomRepo, validate, notificationService, activityService, logger)
	mentorshipService := service.NewMentorshipService(mentorshipRepo, sessionRepo, userRepo, validate, notificationService, activityService, logger)
	scheduleService := service.NewScheduleService(scheduleRepo, validate, activityService, logger)
	courseService := service.NewCourseService(courseRepo, validate, notificationService, activityService, logger)
	promotionService := service.NewPromotionService(promotionRepo, reviewRepo, userRepo, validate, notificationService, activityService, logger)
	dashboardService := service.NewDashboardService(mentorshipRepo, staffRequestRepo, classroomRepo, sessionRepo, redisClient, cfg.DashboardCacheTTL, logger)
	mediaService := service.NewMediaService(mediaRepo, courseRepo, uploader, cfg.MediaMaxBytes(), logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ClassroomHandler:    handler.NewClassroomHandler(classroomService, membershipService, logger),
		MembershipHandler:   handler.NewMembershipHandler(membershipService, logger),
		MentorshipHandler:   handler.NewMentorshipHandler(mentorshipService, logger),
		ScheduleHandler:     handler.NewScheduleHandler(scheduleService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, mediaService, logger),
		PromotionHandler:    handler.NewPromotionHandler(promotionService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	notificationService.Start(consumerCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopConsumers)
}

func waitForShutdown(app *fiber.App, stopConsumers context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopConsumers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
