package storage

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vidtube/backend/config"
)

// Uploader is the media storage collaborator. Upload streams a multipart
// file into the bucket under the given folder and returns the public URL;
// Delete removes a previously uploaded object by its public URL, best
// effort.
type Uploader interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// New builds the configured backend.
func New(ctx context.Context, cfg config.StorageConfig) (Uploader, error) {
	switch cfg.Driver {
	case "r2":
		return NewR2Client(ctx, cfg)
	case "gcs":
		return NewGCSClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown media storage driver %q", cfg.Driver)
	}
}

func objectName(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s/%d-%s%s", folder, time.Now().UTC().Unix(), uuid.New().String(), ext)
}

func contentType(fileHeader *multipart.FileHeader) string {
	ct := fileHeader.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fileHeader.Filename)))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}
