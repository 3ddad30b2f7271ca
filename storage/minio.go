package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"ShelfFM/config"
	"ShelfFM/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and makes sure the bucket exists.
func InitMinio(cfg *config.Config) error {
	logger.Info("connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO client initialized")
	return nil
}

// GetMinioClient returns the MinIO client instance.
func GetMinioClient() *minio.Client {
	return minioClient
}

// BlobStore stores audio payloads and cover art as objects under
// audio/<id> and covers/<id>.
type BlobStore struct {
	client *minio.Client
	bucket string
}

// NewBlobStore wraps a MinIO client for a single bucket.
func NewBlobStore(client *minio.Client, bucket string) *BlobStore {
	return &BlobStore{client: client, bucket: bucket}
}

func audioObjectName(id string) string { return "audio/" + id }
func coverObjectName(id string) string { return "covers/" + id }

// PutAudio uploads a track's audio payload.
func (s *BlobStore) PutAudio(ctx context.Context, id string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, audioObjectName(id),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "audio/mpeg",
		})
	if err != nil {
		return fmt.Errorf("failed to upload audio object %s: %w", id, err)
	}
	return nil
}

// PutCover uploads a track's cover art.
func (s *BlobStore) PutCover(ctx context.Context, id string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, coverObjectName(id),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "image/jpeg",
		})
	if err != nil {
		return fmt.Errorf("failed to upload cover object %s: %w", id, err)
	}
	return nil
}

// GetAudio fetches a track's audio payload. Missing objects return (nil, nil).
func (s *BlobStore) GetAudio(ctx context.Context, id string) ([]byte, error) {
	return s.getObject(ctx, audioObjectName(id))
}

// GetCover fetches a track's cover art. Missing objects return (nil, nil).
func (s *BlobStore) GetCover(ctx context.Context, id string) ([]byte, error) {
	return s.getObject(ctx, coverObjectName(id))
}

func (s *BlobStore) getObject(ctx context.Context, name string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", name, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read object %s: %w", name, err)
	}
	return data, nil
}

// RemoveTrackObjects deletes a track's audio and cover objects.
func (s *BlobStore) RemoveTrackObjects(ctx context.Context, id string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, audioObjectName(id), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove audio object %s: %w", id, err)
	}
	// Cover art may not exist; removal of a missing object is not an error.
	if err := s.client.RemoveObject(ctx, s.bucket, coverObjectName(id), minio.RemoveObjectOptions{}); err != nil {
		logger.Warn("failed to remove cover object", logger.String("id", id), logger.ErrorField(err))
	}
	return nil
}

// RemoveAll deletes every object under the audio/ and covers/ prefixes.
func (s *BlobStore) RemoveAll(ctx context.Context) error {
	for _, prefix := range []string{"audio/", "covers/"} {
		objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		})
		for object := range objects {
			if object.Err != nil {
				return fmt.Errorf("failed to list objects under %s: %w", prefix, object.Err)
			}
			if err := s.client.RemoveObject(ctx, s.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
				return fmt.Errorf("failed to remove object %s: %w", object.Key, err)
			}
		}
	}
	return nil
}

func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || strings.Contains(err.Error(), "NoSuchKey")
}
