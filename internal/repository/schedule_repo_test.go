package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

func TestCreateIfFreeRejectsOverlap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduleRepository(db)

	first := models.Schedule{InstructorID: 1, DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.CreateIfFree(context.Background(), &first))
	require.True(t, first.IsActive)

	overlapping := models.Schedule{InstructorID: 1, DayOfWeek: 2, StartTime: "09:30", EndTime: "10:30"}
	require.ErrorIs(t, repo.CreateIfFree(context.Background(), &overlapping), ErrOverlap)
}

func TestCreateIfFreeAllowsAdjacentSlots(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduleRepository(db)

	morning := models.Schedule{InstructorID: 1, DayOfWeek: 3, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.CreateIfFree(context.Background(), &morning))

	// End times are exclusive, so back-to-back slots do not collide.
	next := models.Schedule{InstructorID: 1, DayOfWeek: 3, StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, repo.CreateIfFree(context.Background(), &next))
}

func TestCreateIfFreeScopesToInstructorAndDay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduleRepository(db)

	base := models.Schedule{InstructorID: 1, DayOfWeek: 4, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.CreateIfFree(context.Background(), &base))

	otherInstructor := models.Schedule{InstructorID: 2, DayOfWeek: 4, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.CreateIfFree(context.Background(), &otherInstructor))

	otherDay := models.Schedule{InstructorID: 1, DayOfWeek: 5, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.CreateIfFree(context.Background(), &otherDay))
}

func TestCreateIfFreeIgnoresDeactivatedSlots(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduleRepository(db)

	stale := models.Schedule{InstructorID: 9, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.CreateIfFree(context.Background(), &stale))
	require.NoError(t, repo.Deactivate(context.Background(), stale.ID))

	replacement := models.Schedule{InstructorID: 9, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.CreateIfFree(context.Background(), &replacement))
}

func TestDeactivateMissingOrInactive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScheduleRepository(db)

	require.ErrorIs(t, repo.Deactivate(context.Background(), 404), gorm.ErrRecordNotFound)

	slot := models.Schedule{InstructorID: 1, DayOfWeek: 6, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.CreateIfFree(context.Background(), &slot))
	require.NoError(t, repo.Deactivate(context.Background(), slot.ID))
	require.ErrorIs(t, repo.Deactivate(context.Background(), slot.ID), gorm.ErrRecordNotFound)
}
