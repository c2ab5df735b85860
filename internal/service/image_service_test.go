package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stride-app/stride-backend/internal/testutil"
)

// makeTestPNG renders a small PNG of the given dimensions
func makeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessAndUpload_CreatesAllVariants(t *testing.T) {
	storage := testutil.NewMockImageRepository()
	svc := NewImageService(storage)
	entityID := uuid.New()

	path, err := svc.ProcessAndUpload(context.Background(), "workspaces", entityID, makeTestPNG(t, 100, 100), "photo.png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_display.jpg"))
	assert.True(t, strings.HasPrefix(path, "workspaces/"+entityID.String()+"/"))

	require.Len(t, storage.Objects, 3)
	base := strings.TrimSuffix(path, "_display.jpg")
	for _, variant := range []string{"thumb", "display", "original"} {
		assert.Contains(t, storage.Objects, base+"_"+variant+".jpg")
	}
}

func TestProcessAndUpload_RejectsBadUploads(t *testing.T) {
	svc := NewImageService(testutil.NewMockImageRepository())
	entityID := uuid.New()

	tests := []struct {
		name     string
		data     []byte
		filename string
		wantErr  error
	}{
		{"too large", bytes.Repeat([]byte{0xff}, MaxImageSize+1), "big.jpg", ErrImageTooLarge},
		{"bad extension", makeTestPNG(t, 100, 100), "photo.gif", ErrInvalidFormat},
		{"not an image", []byte("hello world"), "photo.png", ErrInvalidImageData},
		{"too small", makeTestPNG(t, 20, 20), "tiny.png", ErrImageTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ProcessAndUpload(context.Background(), "workspaces", entityID, tt.data, tt.filename)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProcessAndUpload_StorageDisabled(t *testing.T) {
	svc := NewImageService(nil)

	_, err := svc.ProcessAndUpload(context.Background(), "workspaces", uuid.New(), makeTestPNG(t, 100, 100), "photo.png")
	assert.ErrorIs(t, err, ErrImageStorageNotConfigured)
}

func TestDeleteAllVariants(t *testing.T) {
	storage := testutil.NewMockImageRepository()
	svc := NewImageService(storage)

	path, err := svc.ProcessAndUpload(context.Background(), "users", uuid.New(), makeTestPNG(t, 100, 100), "avatar.jpeg")
	require.NoError(t, err)
	require.Len(t, storage.Objects, 3)

	svc.DeleteAllVariants(context.Background(), path)
	assert.Empty(t, storage.Objects)
}

func TestResolveURL(t *testing.T) {
	svc := NewImageService(testutil.NewMockImageRepository())

	assert.Equal(t, "", svc.ResolveURL(context.Background(), ""))
	assert.Equal(t, "https://storage.test/some/path.jpg", svc.ResolveURL(context.Background(), "some/path.jpg"))
}
