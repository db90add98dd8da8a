package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/observability"
	"github.com/laras-id/laras-api/internal/repository"
)

const upcomingSessionLimit = 5

// DashboardService aggregates a mentor's pending workload. Results are cached
// in redis for a short TTL; the counts tolerate slight staleness.
type DashboardService interface {
	MentorDashboard(ctx context.Context, mentorID uint) (dto.MentorDashboardResponse, error)
}

type dashboardService struct {
	mentorships repository.MentorshipRepository
	staff       repository.StaffRequestRepository
	classrooms  repository.ClassroomRepository
	sessions    repository.SessionRepository
	redis       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewDashboardService constructs the mentor dashboard aggregator. The redis
// client is optional; without it every request recomputes.
func NewDashboardService(
	mentorships repository.MentorshipRepository,
	staff repository.StaffRequestRepository,
	classrooms repository.ClassroomRepository,
	sessions repository.SessionRepository,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &dashboardService{
		mentorships: mentorships,
		staff:       staff,
		classrooms:  classrooms,
		sessions:    sessions,
		redis:       redisClient,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		tracer:      otel.Tracer("github.com/laras-id/laras-api/internal/service/dashboard"),
		now:         time.Now,
	}
}

func (s *dashboardService) MentorDashboard(ctx context.Context, mentorID uint) (dto.MentorDashboardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.mentor", trace.WithAttributes(
		attribute.Int64("mentor.id", int64(mentorID)),
	))
	defer span.End()

	cacheKey := fmt.Sprintf("laras:dashboard:mentor:%d", mentorID)
	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		observability.DashboardCacheHits().WithLabelValues("hit").Inc()
		return cached, nil
	}
	observability.DashboardCacheHits().WithLabelValues("miss").Inc()

	pendingMentorships, err := s.mentorships.CountPendingForMentor(ctx, mentorID)
	if err != nil {
		span.RecordError(err)
		return dto.MentorDashboardResponse{}, err
	}

	classroomIDs, err := s.classrooms.ListIDsByMaster(ctx, mentorID)
	if err != nil {
		span.RecordError(err)
		return dto.MentorDashboardResponse{}, err
	}
	pendingStaff, err := s.staff.CountPendingForClassrooms(ctx, classroomIDs)
	if err != nil {
		span.RecordError(err)
		return dto.MentorDashboardResponse{}, err
	}

	now := s.now().UTC()
	sessions, err := s.sessions.ListUpcomingByMentor(ctx, mentorID, now, upcomingSessionLimit)
	if err != nil {
		span.RecordError(err)
		return dto.MentorDashboardResponse{}, err
	}
	upcoming := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		upcoming = append(upcoming, dto.NewSessionResponse(session))
	}

	response := dto.MentorDashboardResponse{
		PendingMentorshipRequests: pendingMentorships,
		PendingStaffRequests:      pendingStaff,
		UpcomingSessions:          upcoming,
		CachedAt:                  now.Format(time.RFC3339),
	}
	s.toCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) fromCache(ctx context.Context, key string) (dto.MentorDashboardResponse, bool) {
	if s.redis == nil {
		return dto.MentorDashboardResponse{}, false
	}

	payload, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache read failed")
		}
		return dto.MentorDashboardResponse{}, false
	}

	var response dto.MentorDashboardResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache entry corrupt")
		return dto.MentorDashboardResponse{}, false
	}
	return response, true
}

func (s *dashboardService) toCache(ctx context.Context, key string, response dto.MentorDashboardResponse) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache write failed")
	}
}
