package storage

import (
	"context"
	"fmt"
	"time"

	"alcyxob/fittrack/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// photoBucket keeps meal photos in one S3-compatible bucket. Clients upload and
// download through presigned URLs; the backend itself only deletes.
type photoBucket struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Storage connects the meal photo bucket described by cfg. An empty
// Endpoint means AWS itself; anything else (MinIO, Spaces) is addressed
// path-style.
func NewS3Storage(ctx context.Context, cfg config.S3Config) (FileStorage, error) {
	sdkCfg, err := awsCfg.LoadDefaultConfig(ctx,
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	log.Infof("meal photo bucket %q at %s", cfg.BucketName, endpointName(cfg.Endpoint))

	return &photoBucket{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.BucketName,
	}, nil
}

func endpointName(endpoint string) string {
	if endpoint == "" {
		return "AWS"
	}
	return endpoint
}

func expiryOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPresignedURLExpiry
	}
	return d
}

// GeneratePresignedUploadURL signs a PUT; the upload must carry the same Content-Type.
func (b *photoBucket) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	req, err := b.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiryOrDefault(expires)))
	if err != nil {
		return "", fmt.Errorf("presign upload of %s: %w", objectKey, err)
	}
	return req.URL, nil
}

func (b *photoBucket) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(expiryOrDefault(expires)))
	if err != nil {
		return "", fmt.Errorf("presign download of %s: %w", objectKey, err)
	}
	return req.URL, nil
}

// DeleteObject removes a photo. Deleting a missing key is not an error on S3.
func (b *photoBucket) DeleteObject(ctx context.Context, objectKey string) error {
	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("delete %s from %s: %w", objectKey, b.bucket, err)
	}
	log.Debugf("deleted photo %s", objectKey)
	return nil
}
