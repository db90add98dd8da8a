package service

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/repository"
)

// pngHeader is enough for content sniffing to call it an image.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

type stubUploader struct {
	url string
	err error
}

func (u stubUploader) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

func newMediaService(t *testing.T, maxBytes int64) (MediaService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewMediaService(
		repository.NewMediaRepository(db),
		repository.NewCourseRepository(db),
		stubUploader{url: "https://cdn.example.com/covers/test.png"},
		maxBytes,
		zerolog.Nop(),
	)
	return svc, db
}

func seedCourse(t *testing.T, db *gorm.DB, mentorID uint) models.Course {
	t.Helper()
	course := models.Course{MentorID: mentorID, Title: "Cover test course", Status: models.CourseStatusDraft, IsActive: true}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func TestUploadCourseCoverStoresRecordAndURL(t *testing.T) {
	svc, db := newMediaService(t, 1<<20)
	ctx := context.Background()
	course := seedCourse(t, db, 1)

	response, err := svc.UploadCourseCover(ctx, course.ID, "cover.png", readerOf(pngHeader),
		ActivityActor{ID: 1, Role: models.RoleMentor})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/covers/test.png", response.URL)
	require.Equal(t, "image/png", response.MimeType)
	require.EqualValues(t, len(pngHeader), response.SizeBytes)
	require.Len(t, response.Checksum, 64)

	var updated models.Course
	require.NoError(t, db.First(&updated, course.ID).Error)
	require.Equal(t, response.URL, updated.CoverURL)

	var record models.MediaRecord
	require.NoError(t, db.Where("course_id = ?", course.ID).First(&record).Error)
	require.Equal(t, "cover.png", record.FileName)
}

func TestUploadCourseCoverRejectsOversize(t *testing.T) {
	svc, db := newMediaService(t, 8)
	course := seedCourse(t, db, 1)

	_, err := svc.UploadCourseCover(context.Background(), course.ID, "big.png", readerOf(pngHeader),
		ActivityActor{ID: 1, Role: models.RoleMentor})
	require.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadCourseCoverRejectsNonImage(t *testing.T) {
	svc, db := newMediaService(t, 1<<20)
	course := seedCourse(t, db, 1)

	_, err := svc.UploadCourseCover(context.Background(), course.ID, "notes.txt",
		readerOf([]byte("plain text, definitely not an image")),
		ActivityActor{ID: 1, Role: models.RoleMentor})
	require.ErrorIs(t, err, ErrUnsupportedMediaType)
}

func TestUploadCourseCoverAuthorization(t *testing.T) {
	svc, db := newMediaService(t, 1<<20)
	ctx := context.Background()
	course := seedCourse(t, db, 1)

	_, err := svc.UploadCourseCover(ctx, course.ID, "cover.png", readerOf(pngHeader),
		ActivityActor{ID: 2, Role: models.RoleMentor})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UploadCourseCover(ctx, 999, "cover.png", readerOf(pngHeader),
		ActivityActor{ID: 1, Role: models.RoleMentor})
	require.ErrorIs(t, err, ErrCourseNotFound)

	// Admins may replace any cover.
	_, err = svc.UploadCourseCover(ctx, course.ID, "cover.png", readerOf(pngHeader),
		ActivityActor{ID: 3, Role: models.RoleAdmin})
	require.NoError(t, err)
}

func readerOf(content []byte) io.Reader {
	return bytes.NewReader(content)
}
