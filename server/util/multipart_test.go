package util

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

func newMultipartRequest(t *testing.T, build func(w *multipart.Writer)) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	build(w)
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestParseMultipart_ValuesAndFiles(t *testing.T) {
	req := newMultipartRequest(t, func(w *multipart.Writer) {
		_ = w.WriteField("latitude", " 12.34 ")
		_ = w.WriteField("longitude", "56.78")

		head := textproto.MIMEHeader{}
		head.Set("Content-Disposition", `form-data; name="video"; filename="clip.webm"`)
		head.Set("Content-Type", "video/webm")
		part, _ := w.CreatePart(head)
		_, _ = part.Write([]byte("webm"))

		fw, _ := w.CreateFormFile("file", "photo.jpg")
		_, _ = fw.Write([]byte("jpeg"))
	})

	pm, err := ParseMultipart(httptest.NewRecorder(), req, 1<<20, 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	defer pm.Close()

	if pm.Value("latitude") != "12.34" || pm.Value("longitude") != "56.78" {
		t.Fatalf("unexpected values %v", pm.Values)
	}

	image := pm.FileByKey("image", "file")
	if image == nil || image.Field != "file" {
		t.Fatalf("expected file alias to resolve, got %+v", image)
	}
	data, err := image.ReadAll()
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("unexpected image data %q err=%v", data, err)
	}

	video := pm.FileByKey("video")
	if video == nil || video.ContentType() != "video/webm" {
		t.Fatalf("expected video part with content type, got %+v", video)
	}

	if pm.FileByKey("missing") != nil {
		t.Fatalf("expected nil for missing key")
	}
}

func TestParseMultipart_FileTooLargeIsSkipped(t *testing.T) {
	req := newMultipartRequest(t, func(w *multipart.Writer) {
		fw, _ := w.CreateFormFile("image", "a.jpg")
		_, _ = fw.Write([]byte("0123456789"))
	})

	pm, err := ParseMultipart(httptest.NewRecorder(), req, 1<<20, 1<<20, 5)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	defer pm.Close()

	if len(pm.Files) != 0 {
		t.Fatalf("expected oversized file to be skipped, got %d files", len(pm.Files))
	}
}

func TestParseMultipart_PayloadTooLarge(t *testing.T) {
	req := newMultipartRequest(t, func(w *multipart.Writer) {
		fw, _ := w.CreateFormFile("image", "a.jpg")
		_, _ = fw.Write([]byte(strings.Repeat("x", 4096)))
	})

	_, err := ParseMultipart(httptest.NewRecorder(), req, 512, 1<<20, 0)
	if !errors.Is(err, ErrRequestTooLarge) {
		t.Fatalf("expected ErrRequestTooLarge, got %v", err)
	}
}

func TestParseMultipart_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	if _, err := ParseMultipart(httptest.NewRecorder(), req, 1<<20, 1<<20, 0); err == nil {
		t.Fatalf("expected parse error for malformed body")
	}
}
