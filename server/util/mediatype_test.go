package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractMediaType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=abc")
	rr := httptest.NewRecorder()

	mediaType, ok := ExtractMediaType(rr, req)
	if !ok {
		t.Fatalf("expected media type to parse")
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("unexpected media type %q", mediaType)
	}
}

func TestExtractMediaTypeMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()

	if _, ok := ExtractMediaType(rr, req); ok {
		t.Fatalf("expected missing content type to fail")
	}
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
}

func TestExtractMediaTypeMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary")
	rr := httptest.NewRecorder()

	if _, ok := ExtractMediaType(rr, req); ok {
		t.Fatalf("expected malformed content type to fail")
	}
}

func TestRequireValidUploadContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=abc")
	rr := httptest.NewRecorder()

	if mediaType, ok := RequireValidUploadContentType(rr, req); !ok || mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart/form-data to be accepted")
	}
}

func TestRequireValidUploadContentTypeRejectsInvalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	if _, ok := RequireValidUploadContentType(rr, req); ok {
		t.Fatalf("expected json to be rejected")
	}
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
}
