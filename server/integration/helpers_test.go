//go:build testcontainers
// +build testcontainers

package integration

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/server/handler/upload"
	"github.com/indieinfra/capture/server/metrics"
	"github.com/indieinfra/capture/server/state"
	"github.com/indieinfra/capture/session"
	"github.com/indieinfra/capture/storage/media"
	"github.com/indieinfra/capture/storage/mirror"
	"github.com/indieinfra/capture/storage/records"
	storageutil "github.com/indieinfra/capture/storage/util"
)

func stringPtr(s string) *string {
	return &s
}

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.Server{Limits: config.ServerLimits{MaxPayloadSize: 1 << 20, MaxFileSize: 1 << 20, MaxMultipartMem: 1 << 20}},
		Upload: config.Upload{Concurrency: 3, Timeout: 30 * time.Second},
		Session: config.Session{
			Mode:       "session",
			Store:      "memory",
			CookieName: "capture_session",
			MaxAge:     time.Hour,
		},
		Media:   config.Media{Strategy: "noop", Folder: "SUS CAPTURE"},
		Mirror:  config.Mirror{Strategy: "none"},
		Records: config.Records{Strategy: "noop"},
	}
}

// newState assembles handler state the way the server does, from already built stores.
func newState(t *testing.T, cfg *config.Config, ss session.Store, ms media.Store, mir mirror.Store, rs records.Store) *state.CaptureState {
	t.Helper()

	if ss == nil && cfg.Session.Mode == "session" {
		ss = session.NewMemoryStore()
	}
	resolver, err := session.NewResolver(&cfg.Session, ss)
	if err != nil {
		t.Fatalf("failed to build session resolver: %v", err)
	}
	if mir == nil {
		mir = &mirror.NoneMirror{}
	}

	pattern := storageutil.DefaultMirrorPattern()
	if cfg.Mirror.PathPattern != "" {
		pattern = storageutil.NewPathPattern(cfg.Mirror.PathPattern)
	}

	return &state.CaptureState{
		Cfg:           cfg,
		MirrorPattern: pattern,
		Sessions:      resolver,
		MediaStore:    ms,
		MirrorStore:   mir,
		RecordStore:   rs,
		Metrics:       metrics.New(),
	}
}

type part struct {
	field, filename, contentType string
	body                         []byte
}

func uploadRequest(t *testing.T, values map[string]string, files ...part) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		mw.WriteField(k, v)
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		w, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		w.Write(f.body)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doUpload(t *testing.T, st *state.CaptureState, req *http.Request) (*httptest.ResponseRecorder, upload.Response) {
	t.Helper()

	rec := httptest.NewRecorder()
	upload.HandleUpload(st).ServeHTTP(rec, req)

	var out upload.Response
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, out
}
