package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	uploadURLExpiry   = 15 * time.Minute
	downloadURLExpiry = time.Hour
)

var ErrBadObjectKey = errors.New("invalid object key")

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// AttachmentStorage hands out presigned URLs so attachment bytes never
// pass through this service; messages carry object keys only.
type AttachmentStorage struct {
	client *minio.Client
	bucket string
}

func NewAttachmentStorage(cfg S3Config) (*AttachmentStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("missing required S3 settings: endpoint, bucket, access key, secret key")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &AttachmentStorage{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *AttachmentStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// PresignUpload returns the object key and a presigned PUT URL for a new
// attachment. The key is prefixed with a fresh UUID so client-chosen
// filenames cannot collide or traverse.
func (s *AttachmentStorage) PresignUpload(ctx context.Context, userID, filename string) (string, string, error) {
	name, err := sanitizeFilename(filename)
	if err != nil {
		return "", "", err
	}
	key := fmt.Sprintf("attachments/%s/%s_%s", userID, uuid.New().String(), name)

	presigned, err := s.client.PresignedPutObject(ctx, s.bucket, key, uploadURLExpiry)
	if err != nil {
		return "", "", err
	}
	return key, presigned.String(), nil
}

// PresignDownload returns a presigned GET URL for an attachment key.
func (s *AttachmentStorage) PresignDownload(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, downloadURLExpiry, url.Values{})
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

func (s *AttachmentStorage) DeleteObject(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func sanitizeFilename(filename string) (string, error) {
	name := path.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == ".." {
		return "", ErrBadObjectKey
	}
	// Keep keys URL- and filesystem-friendly.
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return name, nil
}

func validateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrBadObjectKey
	}
	return nil
}
