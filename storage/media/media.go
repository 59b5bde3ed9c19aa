package media

import (
	"context"
	"encoding/base64"
	"io"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

// Kind mirrors the resource types understood by media-hosting APIs.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindRaw   Kind = "raw"
)

// Asset is a single request-scoped upload. Body is consumed by the store.
type Asset struct {
	Kind        Kind
	Folder      string
	PublicID    string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored describes an asset accepted by a Store. Key is store specific and is
// what Delete uses to find the object again.
type Stored struct {
	URL  string
	Key  string
	Kind Kind
}

type Store interface {
	// Upload sends the asset to the backing service and returns where it can be fetched.
	Upload(ctx context.Context, asset *Asset) (*Stored, error)

	// Delete removes a previously stored asset. Deleting an object that no
	// longer exists is not an error.
	Delete(ctx context.Context, stored *Stored) error
}

// PublicIDFromFilename derives a URL-safe object name from an uploaded file
// name, e.g. "IMG 0042.JPG" becomes "img-0042". Returns "" when nothing usable remains.
func PublicIDFromFilename(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}

	return slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ObjectName returns the name and extension a key-addressed store should use for the asset.
func (a *Asset) ObjectName() (string, string) {
	ext := strings.ToLower(filepath.Ext(a.Filename))

	name := a.PublicID
	if name == "" {
		name = PublicIDFromFilename(a.Filename)
	}

	return name, ext
}

// DataURI encodes body as a base64 data URI, the form media-hosting APIs accept
// for raw payloads that never existed as files.
func DataURI(contentType string, body []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)
}
