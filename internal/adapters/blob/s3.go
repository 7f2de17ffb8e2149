// Package blob stores receipt artifacts and hands back a URL the driver can download.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/qorinti/ledger_backend/internal/core/ports/gateways"
)

// S3Config contains configuration for the S3 blob adapter
type S3Config struct {
	Bucket string
	Region string

	// Optional: custom endpoint (MinIO, LocalStack). Forces path-style addressing.
	Endpoint string

	// Lifetime of the presigned download URLs.
	URLExpiry time.Duration
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type getPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage implements gateways.BlobStorage on an S3 bucket.
type S3Storage struct {
	client    objectPutter
	presigner getPresigner
	bucket    string
	expiry    time.Duration
	logger    *slog.Logger
}

var _ gateways.BlobStorage = (*S3Storage)(nil)

// NewS3Storage loads the default AWS credential chain and builds the adapter.
func NewS3Storage(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOptions := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, clientOptions...)

	logger.Info("S3 blob storage initialized",
		slog.String("bucket", cfg.Bucket),
		slog.String("region", cfg.Region),
		slog.Duration("url_expiry", cfg.URLExpiry))

	return newS3Storage(client, s3.NewPresignClient(client), cfg.Bucket, cfg.URLExpiry, logger), nil
}

func newS3Storage(client objectPutter, presigner getPresigner, bucket string, expiry time.Duration, logger *slog.Logger) *S3Storage {
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &S3Storage{client: client, presigner: presigner, bucket: bucket, expiry: expiry, logger: logger}
}

// Put uploads data under path and returns a presigned GET URL for it.
func (s *S3Storage) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, path, err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", s.bucket, path, err)
	}

	s.logger.Debug("Blob uploaded", slog.String("bucket", s.bucket), slog.String("key", path), slog.Int("bytes", len(data)))
	return req.URL, nil
}
