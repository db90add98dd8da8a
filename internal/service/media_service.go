package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/repository"
)

var (
	// ErrFileTooLarge indicates the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
	// ErrUnsupportedMediaType indicates the sniffed content type is not an image.
	ErrUnsupportedMediaType = errors.New("only image uploads are accepted")
)

// FileUploader stores a file in the external CDN and returns its public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// MediaService handles course cover uploads. Content type is sniffed from the
// bytes, never trusted from the request.
type MediaService interface {
	UploadCourseCover(ctx context.Context, courseID uint, fileName string, reader io.Reader, actor ActivityActor) (dto.MediaUploadResponse, error)
}

type mediaService struct {
	media    repository.MediaRepository
	courses  repository.CourseRepository
	uploader FileUploader
	maxBytes int64
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewMediaService constructs the course media manager.
func NewMediaService(media repository.MediaRepository, courses repository.CourseRepository, uploader FileUploader, maxBytes int64, logger zerolog.Logger) MediaService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &mediaService{
		media:    media,
		courses:  courses,
		uploader: uploader,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "media_service").Logger(),
		tracer:   otel.Tracer("github.com/laras-id/laras-api/internal/service/media"),
	}
}

func (s *mediaService) UploadCourseCover(ctx context.Context, courseID uint, fileName string, reader io.Reader, actor ActivityActor) (dto.MediaUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "media.upload_course_cover", trace.WithAttributes(
		attribute.Int64("course.id", int64(courseID)),
	))
	defer span.End()

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MediaUploadResponse{}, ErrCourseNotFound
		}
		return dto.MediaUploadResponse{}, err
	}
	if !course.IsActive {
		return dto.MediaUploadResponse{}, ErrCourseNotFound
	}
	if course.MentorID != actor.ID && !actor.IsAdmin() {
		return dto.MediaUploadResponse{}, ErrForbidden
	}

	// Read one byte past the cap to distinguish at-limit from over-limit.
	content, err := io.ReadAll(io.LimitReader(reader, s.maxBytes+1))
	if err != nil {
		span.RecordError(err)
		return dto.MediaUploadResponse{}, err
	}
	if int64(len(content)) > s.maxBytes {
		span.SetStatus(codes.Error, "file too large")
		return dto.MediaUploadResponse{}, ErrFileTooLarge
	}

	detected := mimetype.Detect(content)
	if !strings.HasPrefix(detected.String(), "image/") {
		span.SetStatus(codes.Error, "unsupported media type")
		return dto.MediaUploadResponse{}, fmt.Errorf("%w: got %s", ErrUnsupportedMediaType, detected.String())
	}

	checksum := sha256.Sum256(content)

	url, err := s.uploader.Upload(ctx, fileName, bytes.NewReader(content))
	if err != nil {
		span.RecordError(err)
		return dto.MediaUploadResponse{}, err
	}

	record := models.MediaRecord{
		CourseID:  courseID,
		FileName:  fileName,
		URL:       url,
		MimeType:  detected.String(),
		SizeBytes: int64(len(content)),
		Checksum:  hex.EncodeToString(checksum[:]),
	}
	if err := s.media.Create(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.MediaUploadResponse{}, err
	}
	if err := s.courses.SetCoverURL(ctx, courseID, url); err != nil {
		span.RecordError(err)
		return dto.MediaUploadResponse{}, err
	}

	s.logger.Info().
		Uint("course_id", courseID).
		Str("mime_type", record.MimeType).
		Int64("size_bytes", record.SizeBytes).
		Msg("course cover uploaded")

	return dto.MediaUploadResponse{
		URL:       record.URL,
		FileName:  record.FileName,
		MimeType:  record.MimeType,
		SizeBytes: record.SizeBytes,
		Checksum:  record.Checksum,
	}, nil
}
