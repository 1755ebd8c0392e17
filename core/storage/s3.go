package storage

import (
	"bytes"
	"context"
	"fmt"

	"calendar-sync-api/core/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores opaque blobs. The webhook archive is its only consumer.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type s3Uploader struct {
	client *s3.Client
	bucket string
}

func NewS3Uploader(cfg S3Config) (Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	logger.Info("S3 uploader initialized", "bucket", cfg.Bucket, "region", cfg.Region)
	return &s3Uploader{
		client: s3.New(opts),
		bucket: cfg.Bucket,
	}, nil
}

func (u *s3Uploader) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
