package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"virtualtourist/internal/keys"
	"virtualtourist/internal/models"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// S3Images keeps image bytes as objects in an S3-compatible bucket and
// records the object key on the photo.
type S3Images struct {
	client *minio.Client
	bucket string
	photos PhotoWriter
}

// NewS3Images connects to the MinIO server and makes sure the bucket exists.
func NewS3Images(ctx context.Context, cfg S3Config, photos PhotoWriter) (*S3Images, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("missing one or more required settings: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &S3Images{client: minioClient, bucket: cfg.Bucket, photos: photos}
	if err := s.CreateBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}

	slog.Info("connected to MinIO", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return s, nil
}

func (s *S3Images) CreateBucket(ctx context.Context, location string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Save uploads the bytes unless the object already exists, then records
// the object key on the photo.
func (s *S3Images) Save(ctx context.Context, photo models.Photo, data []byte) error {
	objectKey := keys.Photo(photo)

	_, err := s.client.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{})
	switch {
	case err == nil:
		slog.Debug("image object already exists, skipping upload", "key", objectKey)
	case minio.ToErrorResponse(err).Code != "NoSuchKey":
		return fmt.Errorf("failed to check for existing object: %w", err)
	default:
		_, err = s.client.PutObject(
			ctx,
			s.bucket,
			objectKey,
			bytes.NewReader(data),
			int64(len(data)),
			minio.PutObjectOptions{ContentType: "image/jpeg"},
		)
		if err != nil {
			return fmt.Errorf("failed to store object in S3: %w", err)
		}
		slog.Debug("stored image object", "bucket", s.bucket, "key", objectKey)
	}

	return s.photos.SetPhotoObjectKey(ctx, photo.ID, objectKey)
}

func (s *S3Images) Load(ctx context.Context, photo models.Photo) ([]byte, error) {
	// placeholders keep their bytes inline
	if len(photo.Image) > 0 {
		return photo.Image, nil
	}
	if photo.ObjectKey == "" {
		return nil, ErrNotStored
	}

	object, err := s.client.GetObject(ctx, s.bucket, photo.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotStored
		}
		return nil, fmt.Errorf("failed to read object %s: %w", photo.ObjectKey, err)
	}
	return data, nil
}

func (s *S3Images) Delete(ctx context.Context, photo models.Photo) error {
	if photo.ObjectKey == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, photo.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", photo.ObjectKey, err)
	}
	return nil
}

func (s *S3Images) Wipe(ctx context.Context) error {
	return s.removePrefix(ctx, keys.AllPhotos())
}

func (s *S3Images) removePrefix(ctx context.Context, prefix string) error {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})

	var failed int
	for rErr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		failed++
		slog.Error("failed to remove object", "key", rErr.ObjectName, "error", rErr.Err)
	}
	if failed > 0 {
		return fmt.Errorf("failed to remove %d objects under %s", failed, prefix)
	}
	return nil
}
