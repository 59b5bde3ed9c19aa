package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/storage/media"
)

type s3Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

var newMinioClient = func(endpoint string, opts *minio.Options) (s3Client, error) {
	return minio.New(endpoint, opts)
}

// StoreImpl uploads media to S3 or any compatible service (R2, Backblaze, MinIO).
type StoreImpl struct {
	client         s3Client
	bucket         string
	publicBase     string
	forcePathStyle bool
	endpointHost   string
	secure         bool
	region         string
}

func NewS3MediaStore(cfg *config.S3MediaStrategy) (*StoreImpl, error) {
	if cfg == nil {
		return nil, fmt.Errorf("s3 media config is nil")
	}

	region := strings.TrimSpace(cfg.Region)
	if strings.EqualFold(region, "auto") {
		region = ""
	}

	endpointHost := strings.TrimSpace(cfg.Endpoint)
	if endpointHost == "" {
		if region == "" {
			endpointHost = "s3.amazonaws.com"
		} else {
			endpointHost = fmt.Sprintf("s3.%s.amazonaws.com", region)
		}
	} else {
		if parsed, err := url.Parse(endpointHost); err == nil && parsed.Host != "" {
			endpointHost = parsed.Host
		}
	}

	lookup := minio.BucketLookupAuto
	if cfg.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}

	secure := !cfg.DisableSSL

	client, err := newMinioClient(endpointHost, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyId, cfg.SecretKeyId, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to verify s3 bucket %q: %w", cfg.Bucket, err)
	}

	if !exists {
		return nil, fmt.Errorf("s3 bucket %q does not exist or is not accessible", cfg.Bucket)
	}

	publicBase := ""
	if strings.TrimSpace(cfg.PublicUrl) != "" {
		publicBase = strings.TrimSuffix(strings.TrimSpace(cfg.PublicUrl), "/") + "/"
	}

	return &StoreImpl{
		client:         client,
		bucket:         cfg.Bucket,
		publicBase:     publicBase,
		forcePathStyle: cfg.ForcePathStyle,
		endpointHost:   endpointHost,
		secure:         secure,
		region:         cfg.Region,
	}, nil
}

func (s *StoreImpl) Upload(ctx context.Context, asset *media.Asset) (*media.Stored, error) {
	if asset == nil || asset.Body == nil {
		return nil, fmt.Errorf("asset and body are required")
	}

	name, ext := asset.ObjectName()
	if name == "" {
		name = uuid.New().String()
	}
	key := path.Join(asset.Folder, name+ext)

	size := asset.Size
	if size <= 0 {
		size = -1
	}

	opts := minio.PutObjectOptions{ContentType: asset.ContentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, asset.Body, size, opts); err != nil {
		return nil, fmt.Errorf("upload to s3 failed: %w", err)
	}

	return &media.Stored{URL: s.objectURL(key), Key: key, Kind: asset.Kind}, nil
}

func (s *StoreImpl) Delete(ctx context.Context, stored *media.Stored) error {
	if stored == nil || stored.Key == "" {
		return fmt.Errorf("stored asset has no key")
	}

	if err := s.client.RemoveObject(ctx, s.bucket, stored.Key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete from s3 failed: %w", err)
	}

	return nil
}

func (s *StoreImpl) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()

	if s.publicBase != "" {
		return s.publicBase + escaped
	}

	scheme := "https"
	if !s.secure {
		scheme = "http"
	}

	if s.forcePathStyle {
		return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpointHost, s.bucket, escaped)
	}

	return fmt.Sprintf("%s://%s.%s/%s", scheme, s.bucket, s.endpointHost, escaped)
}
