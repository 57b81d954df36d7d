package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds MinIO connection settings. Endpoint empty means deliverable
// storage is disabled.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func ConfigFromEnv() Config {
	return Config{
		Endpoint:  getenv("MINIO_ENDPOINT", ""),
		AccessKey: getenv("MINIO_ACCESS_KEY", ""),
		SecretKey: getenv("MINIO_SECRET_KEY", ""),
		Bucket:    getenv("MINIO_BUCKET", "gigchain-deliverables"),
		UseSSL:    getenvBool("MINIO_USE_SSL", false),
	}
}

// DeliverableStore keeps task outcome attachments in an object storage bucket,
// keyed by record id.
type DeliverableStore struct {
	client *minio.Client
	bucket string
}

// NewDeliverableStore connects to MinIO and ensures the bucket exists.
func NewDeliverableStore(ctx context.Context, cfg Config) (*DeliverableStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &DeliverableStore{client: client, bucket: cfg.Bucket}, nil
}

// Put stores the attachment and returns its URI.
func (s *DeliverableStore) Put(ctx context.Context, recordID uuid.UUID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName := fmt.Sprintf("%s/%s", recordID, filename)
	if _, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return fmt.Sprintf("deliverable://%s/%s", s.bucket, objectName), nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
