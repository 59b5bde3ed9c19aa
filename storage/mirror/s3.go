package mirror

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/indieinfra/capture/config"
	storageutil "github.com/indieinfra/capture/storage/util"
)

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Mirror copies bytes into a bucket on any S3-compatible service. Supabase
// Storage is reached through the same client via its S3 gateway.
type S3Mirror struct {
	client     objectAPI
	bucket     string
	publicBase string
}

var newObjectAPI = func(endpoint, region, accessKey, secretKey string) objectAPI {
	return s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
	})
}

// NewSupabaseMirror targets <url>/storage/v1/s3 and serves objects from the
// bucket's public object route.
func NewSupabaseMirror(cfg *config.SupabaseMirrorStrategy) (*S3Mirror, error) {
	if cfg == nil {
		return nil, fmt.Errorf("supabase mirror config is nil")
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.Url), "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid supabase url %q: %w", cfg.Url, err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	return &S3Mirror{
		client:     newObjectAPI(base+"/storage/v1/s3", region, cfg.AccessKeyId, cfg.SecretAccessKey),
		bucket:     cfg.Bucket,
		publicBase: storageutil.NormalizeBaseURL(base + "/storage/v1/object/public/" + cfg.Bucket),
	}, nil
}

func NewS3Mirror(cfg *config.S3MirrorStrategy) (*S3Mirror, error) {
	if cfg == nil {
		return nil, fmt.Errorf("s3 mirror config is nil")
	}

	region := cfg.Region
	if region == "" || strings.EqualFold(region, "auto") {
		region = "us-east-1"
	}

	return &S3Mirror{
		client:     newObjectAPI(strings.TrimRight(cfg.Endpoint, "/"), region, cfg.AccessKeyId, cfg.SecretAccessKey),
		bucket:     cfg.Bucket,
		publicBase: storageutil.NormalizeBaseURL(cfg.PublicUrl),
	}, nil
}

func (m *S3Mirror) Put(ctx context.Context, key, contentType string, body []byte) error {
	if key == "" {
		return fmt.Errorf("mirror key cannot be empty")
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := m.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to mirror %q: %w", key, err)
	}

	return nil
}

func (m *S3Mirror) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return m.publicBase + strings.Join(segments, "/")
}

func (m *S3Mirror) Delete(ctx context.Context, key string) error {
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete mirrored %q: %w", key, err)
	}

	return nil
}
