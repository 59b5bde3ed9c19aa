package mirror

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/indieinfra/capture/config"
)

type stubObjectAPI struct {
	putInput  *s3.PutObjectInput
	putBody   []byte
	putErr    error
	deleteKey string
	deleteErr error
}

func (s *stubObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.putInput = params
	if params.Body != nil {
		s.putBody, _ = io.ReadAll(params.Body)
	}
	return &s3.PutObjectOutput{}, s.putErr
}

func (s *stubObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	s.deleteKey = aws.ToString(params.Key)
	return &s3.DeleteObjectOutput{}, s.deleteErr
}

func withStubAPI(t *testing.T) (*stubObjectAPI, *string) {
	t.Helper()

	stub := &stubObjectAPI{}
	var endpoint string
	orig := newObjectAPI
	newObjectAPI = func(ep, region, accessKey, secretKey string) objectAPI {
		endpoint = ep
		return stub
	}
	t.Cleanup(func() { newObjectAPI = orig })

	return stub, &endpoint
}

func TestNewSupabaseMirror(t *testing.T) {
	_, endpoint := withStubAPI(t)

	m, err := NewSupabaseMirror(&config.SupabaseMirrorStrategy{
		Url:             "https://project.supabase.co/",
		Bucket:          "captures",
		AccessKeyId:     "key",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *endpoint != "https://project.supabase.co/storage/v1/s3" {
		t.Fatalf("unexpected endpoint %q", *endpoint)
	}
	if got := m.PublicURL("3f2a9c1b7d4e/image.jpg"); got != "https://project.supabase.co/storage/v1/object/public/captures/3f2a9c1b7d4e/image.jpg" {
		t.Fatalf("unexpected public url %q", got)
	}
}

func TestNewSupabaseMirror_Errors(t *testing.T) {
	if _, err := NewSupabaseMirror(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := NewSupabaseMirror(&config.SupabaseMirrorStrategy{Url: "not a url"}); err == nil {
		t.Fatalf("expected error for invalid url")
	}
}

func TestS3Mirror_Put(t *testing.T) {
	stub, _ := withStubAPI(t)

	m, err := NewS3Mirror(&config.S3MirrorStrategy{
		Endpoint:  "http://localhost:9000",
		PublicUrl: "https://cdn.example.org",
		Bucket:    "mirror",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Put(context.Background(), "u1/video.webm", "video/webm", []byte("abc")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if aws.ToString(stub.putInput.Bucket) != "mirror" || aws.ToString(stub.putInput.Key) != "u1/video.webm" {
		t.Fatalf("unexpected put input: %+v", stub.putInput)
	}
	if aws.ToString(stub.putInput.ContentType) != "video/webm" || aws.ToInt64(stub.putInput.ContentLength) != 3 {
		t.Fatalf("unexpected content headers: %+v", stub.putInput)
	}
	if string(stub.putBody) != "abc" {
		t.Fatalf("unexpected body %q", stub.putBody)
	}
	if got := m.PublicURL("u1/my file.txt"); got != "https://cdn.example.org/u1/my%20file.txt" {
		t.Fatalf("unexpected public url %q", got)
	}
}

func TestS3Mirror_PutErrors(t *testing.T) {
	stub, _ := withStubAPI(t)
	stub.putErr = errors.New("boom")

	m, _ := NewS3Mirror(&config.S3MirrorStrategy{Endpoint: "http://localhost:9000", PublicUrl: "https://cdn.example.org", Bucket: "b"})

	if err := m.Put(context.Background(), "", "", nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if err := m.Put(context.Background(), "k", "", []byte("x")); err == nil {
		t.Fatalf("expected error from client")
	}
}

func TestS3Mirror_Delete(t *testing.T) {
	stub, _ := withStubAPI(t)

	m, _ := NewS3Mirror(&config.S3MirrorStrategy{Endpoint: "http://localhost:9000", PublicUrl: "https://cdn.example.org", Bucket: "b"})
	if err := m.Delete(context.Background(), "u1/image.jpg"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if stub.deleteKey != "u1/image.jpg" {
		t.Fatalf("unexpected delete key %q", stub.deleteKey)
	}
}

func TestNoneMirror(t *testing.T) {
	m := &NoneMirror{}
	if err := m.Put(context.Background(), "k", "text/plain", []byte("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.PublicURL("k") != "" {
		t.Fatalf("expected empty public url")
	}
	if Enabled(m) || Enabled(nil) {
		t.Fatalf("expected none mirror to be disabled")
	}
	if !Enabled(&S3Mirror{}) {
		t.Fatalf("expected s3 mirror to be enabled")
	}
}
