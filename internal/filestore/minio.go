package filestore

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"fitLogAPI/internal/config"
)

// presignExpiry is the longest expiry S3-compatible stores accept.
const presignExpiry = 7 * 24 * time.Hour

// MinioStore keeps images in one bucket under <user>_logs/<Workouts|Meals>/.
// The file id is the object key.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, cfg config.MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating minio client: %w", err)
	}
	log.Printf("MinIO: Client initialized for %s", cfg.Endpoint)

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("MinIO: Created bucket %s", cfg.Bucket)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func objectKey(obj Object, now time.Time) string {
	return path.Join(userFolder(obj.OwnerEmail), categoryFolder(obj.Category), uniqueName(obj.Name, now))
}

func (m *MinioStore) Put(ctx context.Context, obj Object) (Ref, error) {
	key := objectKey(obj, time.Now())

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(obj.Data), int64(len(obj.Data)), minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return Ref{}, fmt.Errorf("failed to upload object: %w", err)
	}

	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, presignExpiry, url.Values{})
	if err != nil {
		return Ref{}, fmt.Errorf("failed to presign object: %w", err)
	}

	return Ref{FileID: key, ViewURL: u.String()}, nil
}

func (m *MinioStore) Delete(ctx context.Context, fileID string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
