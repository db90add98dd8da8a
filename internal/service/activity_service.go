package service

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/repository"
)

// ActivityActor identifies the authenticated caller of a workflow operation.
// Handlers build it from the request context; services never read ambient
// session state themselves.
type ActivityActor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor carries the admin role.
func (a ActivityActor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// ActivityEntry describes one auditable workflow event.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder appends events to the audit trail.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (models.ActivityLog, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the audit trail recorder.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityRecorder {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (models.ActivityLog, error) {
	log := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   datatypes.JSONMap(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &log); err != nil {
		// Audit writes never block the workflow result.
		s.logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to record activity")
		return models.ActivityLog{}, err
	}

	return log, nil
}
