package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

func TestCourseTransitionHonoursSourceStates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)

	course := models.Course{MentorID: 1, Title: "Suling for beginners", Status: models.CourseStatusDraft, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), &course))

	now := time.Now().UTC()
	pending, err := repo.Transition(context.Background(), course.ID,
		[]string{models.CourseStatusDraft, models.CourseStatusRejected},
		map[string]interface{}{"status": models.CourseStatusPending, "submitted_at": now})
	require.NoError(t, err)
	require.Equal(t, models.CourseStatusPending, pending.Status)
	require.NotNil(t, pending.SubmittedAt)

	// Publishing a pending course skips review and must fail.
	stale, err := repo.Transition(context.Background(), course.ID,
		[]string{models.CourseStatusApproved},
		map[string]interface{}{"status": models.CourseStatusPublished})
	require.ErrorIs(t, err, ErrStateConflict)
	require.Equal(t, models.CourseStatusPending, stale.Status, "conflict returns the row for error reporting")
}

func TestCourseTransitionMissingRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)

	_, err := repo.Transition(context.Background(), 42,
		[]string{models.CourseStatusDraft},
		map[string]interface{}{"status": models.CourseStatusPending})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateDraftOnlyTouchesDrafts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)

	course := models.Course{MentorID: 2, Title: "Angklung ensemble", Status: models.CourseStatusPublished, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), &course))

	_, err := repo.UpdateDraft(context.Background(), course.ID, map[string]interface{}{"title": "renamed"})
	require.ErrorIs(t, err, ErrStateConflict)

	var untouched models.Course
	require.NoError(t, db.First(&untouched, course.ID).Error)
	require.Equal(t, "Angklung ensemble", untouched.Title)
}

func TestSoftDeleteHidesCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)

	course := models.Course{MentorID: 3, Title: "Rebab bowing", Status: models.CourseStatusDraft, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), &course))
	require.NoError(t, repo.SoftDelete(context.Background(), course.ID))
	require.ErrorIs(t, repo.SoftDelete(context.Background(), course.ID), gorm.ErrRecordNotFound)

	listed, err := repo.ListByMentor(context.Background(), 3)
	require.NoError(t, err)
	require.Empty(t, listed)

	// Deleted courses cannot move either.
	_, err = repo.Transition(context.Background(), course.ID,
		[]string{models.CourseStatusDraft},
		map[string]interface{}{"status": models.CourseStatusPending})
	require.ErrorIs(t, err, ErrStateConflict)
}
