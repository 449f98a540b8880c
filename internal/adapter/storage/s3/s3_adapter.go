package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Storage uploads listing images to a MinIO bucket and hands back the
// public URL the listing record stores.
type S3Storage struct {
	client *minio.Client
	bucket string
	logger logger.Logger
}

func NewS3Storage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log logger.Logger) (*S3Storage, error) {
	log.Infof("Initializing image storage: endpoint=%s bucket=%s use_ssl=%v", endpoint, bucketName, useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Errorf("S3Storage: failed to create MinIO client for %s: %v", endpoint, err)
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	// Create bucket if it doesn't exist
	err = client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := client.BucketExists(context.Background(), bucketName)
		if errBucketExists == nil && exists {
			log.Infof("S3Storage: bucket %s already exists", bucketName)
		} else {
			log.Errorf("S3Storage: failed to make or verify bucket %s: make=%v exists_check=%v", bucketName, err, errBucketExists)
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucketName, err, errBucketExists)
		}
	}

	return &S3Storage{
		client: client,
		bucket: bucketName,
		logger: log,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, originalFileName string, data []byte) (string, error) {
	ext := filepath.Ext(originalFileName)
	objectKey := fmt.Sprintf("listings/%s%s", uuid.New().String(), ext)

	s.logger.Infof("S3Storage.Upload: uploading %s as %s (%d bytes)", originalFileName, objectKey, len(data))

	uploadInfo, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.logger.Errorf("S3Storage.Upload: PutObject failed for %s: %v", objectKey, err)
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	fileURL := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
	s.logger.Infof("S3Storage.Upload: uploaded key=%s etag=%s url=%s", uploadInfo.Key, uploadInfo.ETag, fileURL)
	return fileURL, nil
}
