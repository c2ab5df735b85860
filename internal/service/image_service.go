package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/stride-app/stride-backend/internal/repository/storage"
)

const (
	MaxImageSize   = 5 * 1024 * 1024 // 5MB
	MinImageWidth  = 50
	MinImageHeight = 50
	ThumbnailWidth = 200
	DisplayWidth   = 800
	JPEGQuality    = 85

	// PresignExpiry is how long generated image URLs stay valid
	PresignExpiry = 1 * time.Hour
)

var (
	ErrImageTooLarge             = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidFormat             = errors.New("invalid format. Supported: jpg, jpeg, png")
	ErrImageTooSmall             = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidImageData          = errors.New("invalid image data")
	ErrImageStorageNotConfigured = errors.New("image storage not configured")
)

// AllowedExtensions maps accepted extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// imageVariants are the sizes generated for every upload.
// maxWidth 0 keeps the original size.
var imageVariants = []struct {
	name     string
	maxWidth int
}{
	{"thumb", ThumbnailWidth},
	{"display", DisplayWidth},
	{"original", 0},
}

// ImageService handles image validation, resizing and storage
type ImageService struct {
	storage storage.ImageRepository
}

// NewImageService creates a new ImageService
func NewImageService(storage storage.ImageRepository) *ImageService {
	return &ImageService{storage: storage}
}

// IsEnabled indicates whether uploads/deletes are supported (storage
// configured)
func (s *ImageService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// validateAndDecode validates the image and returns the decoded image
func (s *ImageService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinImageWidth || bounds.Dy() < MinImageHeight {
		return nil, ErrImageTooSmall
	}

	return img, nil
}

// ProcessAndUpload validates an upload, generates the resized variants
// and stores them. Returns the display variant's object path, which is
// what entity rows reference.
func (s *ImageService) ProcessAndUpload(ctx context.Context, entityType string, entityID uuid.UUID, data []byte, filename string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrImageStorageNotConfigured
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return "", err
	}

	imageID := uuid.New().String()
	uploaded := []string{}

	for _, variant := range imageVariants {
		var processed image.Image
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		} else {
			processed = img
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return "", fmt.Errorf("failed to encode image: %w", err)
		}

		objectPath := storage.GenerateObjectPath(entityType, entityID, imageID, variant.name)

		if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			s.cleanupVariants(ctx, uploaded)
			return "", fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		uploaded = append(uploaded, objectPath)
	}

	return storage.GenerateObjectPath(entityType, entityID, imageID, "display"), nil
}

// cleanupVariants removes variants uploaded before a failed operation
func (s *ImageService) cleanupVariants(ctx context.Context, paths []string) {
	for _, p := range paths {
		_ = s.storage.Delete(ctx, p)
	}
}

// DeleteAllVariants deletes every variant of a stored image, best
// effort. objectPath is the display path an entity row references.
func (s *ImageService) DeleteAllVariants(ctx context.Context, objectPath string) {
	if objectPath == "" || !s.IsEnabled() {
		return
	}

	base, ok := strings.CutSuffix(objectPath, "_display.jpg")
	if !ok {
		return
	}

	for _, variant := range imageVariants {
		_ = s.storage.Delete(ctx, base+"_"+variant.name+".jpg")
	}
}

// ResolveURL turns a stored object path into a presigned URL for
// clients. Empty paths resolve to empty.
func (s *ImageService) ResolveURL(ctx context.Context, objectPath string) string {
	if objectPath == "" || !s.IsEnabled() {
		return ""
	}
	url, err := s.storage.GeneratePresignedURL(ctx, objectPath, PresignExpiry)
	if err != nil {
		return ""
	}
	return url
}
