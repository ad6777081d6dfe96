package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"ngelmak/internal/middleware"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// MinioStorage keeps objects in a single MinIO bucket.
type MinioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinioStorage connects to MinIO and creates the bucket when missing.
func NewMinioStorage(ctx context.Context, opts MinioOptions) (*MinioStorage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create minio client: %v", ErrStorage, err)
	}

	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: check bucket: %v", ErrStorage, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("%w: create bucket: %v", ErrStorage, err)
		}
	}

	middleware.Logger.Info("Connected to MinIO", "endpoint", opts.Endpoint, "bucket", opts.Bucket)
	return &MinioStorage{client: client, bucket: opts.Bucket}, nil
}

func (s *MinioStorage) Store(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if size == 0 {
		return fmt.Errorf("%w: failed to store empty file", ErrStorage)
	}
	if size < 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("%w: read upload: %v", ErrStorage, err)
		}
		if len(data) == 0 {
			return fmt.Errorf("%w: failed to store empty file", ErrStorage)
		}
		r, size = bytes.NewReader(data), int64(len(data))
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrStorage, key, err)
	}
	return nil
}

func (s *MinioStorage) Load(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap(key, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap(key, err)
	}
	return data, nil
}

func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return s.wrap(key, err)
	}
	return nil
}

// DeleteDir removes every object below prefix.
func (s *MinioStorage) DeleteDir(ctx context.Context, prefix string) error {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return s.wrap(prefix, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return s.wrap(obj.Key, err)
		}
	}
	return nil
}

func (s *MinioStorage) wrap(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrFileNotFound, key)
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, key, err)
}
