package imagestore

import (
	"context"
	"io"
	"strings"

	"github.com/danilwladich/2rnik/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultContentType = "application/octet-stream"

// objectAPI is the subset of the minio client used by the store, so tests
// can stub it.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinioStore struct {
	bucket    string
	publicURL string
	client    objectAPI
}

func NewMinio(cfg config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStore{
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimRight(cfg.S3PublicURL, "/"),
		client:    client,
	}, nil
}

func (s *MinioStore) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (Image, error) {
	if contentType == "" {
		contentType = defaultContentType
	}

	info, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return Image{}, err
	}
	return Image{ID: info.Key, URL: s.publicURL + "/" + info.Key}, nil
}

func (s *MinioStore) Delete(ctx context.Context, id string) error {
	return s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{})
}
