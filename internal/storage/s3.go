package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "drawparty-backend/internal/config"
)

// ObjectStore persists composited rasters and generated images, addressed
// by roomId-derived keys.
type ObjectStore interface {
	PutDrawing(ctx context.Context, roomID string, data []byte) (string, error)
	PutGenerated(ctx context.Context, roomID string, data []byte) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// S3Service implements ObjectStore on top of S3.
type S3Service struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
}

// NewS3Service builds the client from static credentials.
func NewS3Service(cfg *appconfig.S3Config) (*S3Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Service{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.BucketName,
		presignExpiry: cfg.PresignExpiry,
	}, nil
}

// DrawingKey is the canonical object key for a room's composited raster.
func DrawingKey(roomID string) string {
	return fmt.Sprintf("rooms/%s/drawing.png", roomID)
}

// GeneratedKey is the canonical object key for a room's stylized image.
func GeneratedKey(roomID string) string {
	return fmt.Sprintf("rooms/%s/generated.png", roomID)
}

// PutDrawing uploads the composited raster and returns its key.
func (s *S3Service) PutDrawing(ctx context.Context, roomID string, data []byte) (string, error) {
	return s.put(ctx, DrawingKey(roomID), data)
}

// PutGenerated uploads the stylized image and returns its key.
func (s *S3Service) PutGenerated(ctx context.Context, roomID string, data []byte) (string, error) {
	return s.put(ctx, GeneratedKey(roomID), data)
}

func (s *S3Service) put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	log.Printf("[S3] Uploaded %s (%d bytes)", key, len(data))
	return key, nil
}

// PresignGet returns a time-limited download URL for a stored object.
func (s *S3Service) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}
