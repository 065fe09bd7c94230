package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Sink persists artifacts and reports where they went.
type Sink interface {
	Store(ctx context.Context, a *Artifact) (string, error)
}

// NopSink keeps artifacts in memory only.
type NopSink struct{}

func (NopSink) Store(context.Context, *Artifact) (string, error) { return "", nil }

// LocalSink writes artifacts into a directory.
type LocalSink struct {
	Dir string
}

func (s LocalSink) Store(_ context.Context, a *Artifact) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", errors.NewIOError(errors.ErrCodeExportFailed, "failed to create export directory", err).
			WithContext("directory", s.Dir)
	}
	path := filepath.Join(s.Dir, objectName(a.Name))
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", errors.NewIOError(errors.ErrCodeExportFailed, "failed to write export", err).
			WithContext("path", path)
	}
	a.Location = path
	return path, nil
}

// MinioSink uploads artifacts to a bucket and returns a presigned URL.
type MinioSink struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *errors.Logger
}

// NewMinioSink connects to the object store and makes sure the bucket exists.
func NewMinioSink(ctx context.Context, cfg config.MinioConfig, expiry time.Duration, logger *errors.Logger) (*MinioSink, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to create object storage client", err)
	}

	s := &MinioSink{client: client, bucket: cfg.Bucket, expiry: expiry, logger: logger}
	if err := s.ensureBucketExists(ctx, cfg.Location); err != nil {
		return nil, err
	}
	logger.Info("Object storage sink ready", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return s, nil
}

func (s *MinioSink) ensureBucketExists(ctx context.Context, location string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeStoreFailed,
			fmt.Sprintf("failed to check bucket %s", s.bucket), err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return errors.NewNetworkError(errors.ErrCodeStoreFailed,
			fmt.Sprintf("failed to create bucket %s", s.bucket), err)
	}
	s.logger.Info("Bucket created", "bucket", s.bucket)
	return nil
}

func (s *MinioSink) Store(ctx context.Context, a *Artifact) (string, error) {
	name := objectName(a.Name)
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(a.Data), int64(len(a.Data)),
		minio.PutObjectOptions{ContentType: a.ContentType})
	if err != nil {
		return "", errors.NewNetworkError(errors.ErrCodeStoreFailed, "failed to upload export", err).
			WithContext("object", name)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, name, s.expiry, nil)
	if err != nil {
		return "", errors.NewNetworkError(errors.ErrCodeStoreFailed, "failed to presign export URL", err).
			WithContext("object", name)
	}
	a.Location = u.String()
	s.logger.Debug("Export uploaded", "bucket", s.bucket, "object", name)
	return a.Location, nil
}

// NewSink builds the sink selected by cfg.Sink.
func NewSink(ctx context.Context, cfg *config.Config, logger *errors.Logger) (Sink, error) {
	switch strings.ToLower(cfg.Export.Sink) {
	case "", "none":
		return NopSink{}, nil
	case "local":
		return LocalSink{Dir: cfg.Export.OutputDir}, nil
	case "minio":
		return NewMinioSink(ctx, cfg.Minio, cfg.Export.PresignExpiry, logger)
	}
	return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
		fmt.Sprintf("unknown export sink %q", cfg.Export.Sink), nil)
}

// objectName prefixes a unique id so repeated exports never collide.
func objectName(name string) string {
	return uuid.NewString() + "-" + filepath.Base(name)
}
