package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vidtube/backend/config"
)

// R2Client stores media in a Cloudflare R2 bucket through the S3 API.
type R2Client struct {
	s3           *s3.Client
	bucket       string
	publicDomain string
}

func NewR2Client(ctx context.Context, cfg config.StorageConfig) (*R2Client, error) {
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("missing R2 settings (bucket, access key, secret key, endpoint)")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // required for R2
	})

	return &R2Client{s3: client, bucket: cfg.Bucket, publicDomain: cfg.PublicDomain}, nil
}

func (c *R2Client) Upload(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	object := objectName(folder, fileHeader.Filename)

	f, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(object),
		Body:        f,
		ContentType: aws.String(contentType(fileHeader)),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fileHeader.Filename, err)
	}

	return fmt.Sprintf("%s/%s/%s", c.publicDomain, c.bucket, object), nil
}

func (c *R2Client) Delete(ctx context.Context, publicURL string) error {
	object, err := c.objectFromURL(publicURL)
	if err != nil {
		return err
	}
	_, err = c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", object, err)
	}
	return nil
}

func (c *R2Client) objectFromURL(raw string) (string, error) {
	prefix := c.publicDomain + "/" + c.bucket + "/"
	if !strings.HasPrefix(raw, prefix) {
		return "", fmt.Errorf("not a recognised media url: %s", raw)
	}
	return strings.TrimPrefix(raw, prefix), nil
}
