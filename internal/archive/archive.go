// Package archive uploads chapter exports to S3-compatible object storage
// so finished sessions survive the document store being reset.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Service wraps a MinIO client and a target bucket.
type Service struct {
	client *minio.Client
	bucket string
}

// New connects to the object store. The bucket is created lazily on first
// upload, not here, so a missing bucket does not block startup.
func New(endpoint, accessKey, secretKey, bucket string, secure bool) (*Service, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &Service{client: client, bucket: bucket}, nil
}

// Upload stores one export artifact under chapters/{id}/{timestamp}{ext}
// and returns the object key.
func (s *Service) Upload(ctx context.Context, chapterID, filename, contentType string, data []byte) (string, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket: %w", err)
		}
	}

	key := fmt.Sprintf("chapters/%s/%s-%s", chapterID, time.Now().UTC().Format("20060102T150405Z"), filename)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload archive object: %w", err)
	}
	return key, nil
}
