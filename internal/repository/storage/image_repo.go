package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ImageRepository defines the interface for image storage operations
type ImageRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// GenerateObjectPath creates a unique object path for an image variant
func GenerateObjectPath(entityType string, entityID uuid.UUID, imageID, variant string) string {
	filename := fmt.Sprintf("%s_%s.jpg", imageID, variant)
	return path.Join(entityType, entityID.String(), filename)
}
