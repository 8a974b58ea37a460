package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"drip-rating-server/config"
)

// MediaService uploads outfit thumbnails to Cloudinary so the durable store
// keeps a canonical URL instead of a multi-hundred-KB inline payload. When
// Cloudinary is not configured, uploads are skipped and callers fall back to
// the inline data URL.
type MediaService struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewMediaService initializes the Cloudinary client from the environment.
func NewMediaService() *MediaService {
	cfg := config.AppConfig.Cloudinary
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		log.Printf("⚠️ Cloudinary not configured, thumbnails will be stored inline")
		return &MediaService{}
	}

	cloudinaryURL := fmt.Sprintf("cloudinary://%s:%s@%s", cfg.APIKey, cfg.APISecret, cfg.CloudName)
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		log.Printf("❌ Failed to initialize Cloudinary: %v", err)
		return &MediaService{}
	}

	return &MediaService{cld: cld, folder: cfg.Folder}
}

// Enabled reports whether uploads will actually happen.
func (m *MediaService) Enabled() bool {
	return m.cld != nil
}

// UploadThumbnail stores an inline data URL image and returns its secure
// URL. Returns "" without error when uploads are disabled.
func (m *MediaService) UploadThumbnail(ctx context.Context, userID uint, dataURL string) (string, error) {
	if m.cld == nil {
		return "", nil
	}

	ow := true
	uf := true
	up, err := m.cld.Upload.Upload(ctx, dataURL, uploader.UploadParams{
		Folder:         m.folder + "/" + strconv.Itoa(int(userID)),
		PublicID:       uuid.NewString(),
		Overwrite:      &ow,
		UniqueFilename: &uf,
		ResourceType:   "image",
	})
	if err != nil {
		return "", err
	}
	return up.SecureURL, nil
}
