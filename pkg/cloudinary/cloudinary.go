package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config carries the Cloudinary credentials and the target folder for course
// assets.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Uploader pushes course cover images to Cloudinary. It satisfies the media
// service's FileUploader interface.
type Uploader struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
	now    func() time.Time
}

// New validates the credentials and builds an Uploader.
func New(cfg Config, logger zerolog.Logger) (*Uploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Uploader{
		client: client,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
		now:    time.Now,
	}, nil
}

// Upload stores the image under the configured folder and returns its secure
// URL. Covers are the only asset type served, so uploads are pinned to the
// image resource type.
func (u *Uploader) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	result, err := u.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:       u.folder,
		PublicID:     u.publicID(name),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover: %w", err)
	}

	u.logger.Info().
		Str("public_id", result.PublicID).
		Int("bytes", result.Bytes).
		Msg("cover uploaded")

	return result.SecureURL, nil
}

// publicID derives a collision-free identifier from the client file name. The
// timestamp suffix keeps re-uploads of the same cover distinct.
func (u *Uploader) publicID(name string) string {
	return fmt.Sprintf("%s-%d", sanitizeBaseName(name), u.now().Unix())
}

func sanitizeBaseName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		return "cover"
	}
	return base
}
