package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	gcstorage "cloud.google.com/go/storage"
	"github.com/vidtube/backend/config"
	"google.golang.org/api/option"
)

// GCSClient stores media in a Google Cloud Storage bucket.
type GCSClient struct {
	client *gcstorage.Client
	bucket string
}

func NewGCSClient(ctx context.Context, cfg config.StorageConfig) (*GCSClient, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("missing GCS bucket")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSClient{client: client, bucket: cfg.Bucket}, nil
}

func (c *GCSClient) Upload(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	object := objectName(folder, fileHeader.Filename)

	f, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	w := c.client.Bucket(c.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType(fileHeader)

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload close: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucket, object), nil
}

func (c *GCSClient) Delete(ctx context.Context, publicURL string) error {
	object, err := c.objectFromURL(publicURL)
	if err != nil {
		return err
	}
	if err := c.client.Bucket(c.bucket).Object(object).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", object, err)
	}
	return nil
}

func (c *GCSClient) objectFromURL(raw string) (string, error) {
	prefix := fmt.Sprintf("https://storage.googleapis.com/%s/", c.bucket)
	if !strings.HasPrefix(raw, prefix) {
		return "", fmt.Errorf("not a gcs public url: %s", raw)
	}
	return strings.TrimPrefix(raw, prefix), nil
}
