package mirror

import (
	"context"
	"log"
)

// Store is a secondary copy of uploaded bytes. Failures are never fatal to an
// upload; callers log them and leave the mirror URL empty.
type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// Enabled reports whether s actually mirrors anything.
func Enabled(s Store) bool {
	if s == nil {
		return false
	}

	_, none := s.(*NoneMirror)
	return !none
}

// NoneMirror is the disabled mirror.
type NoneMirror struct{}

func (*NoneMirror) Put(ctx context.Context, key, contentType string, body []byte) error {
	log.Printf("mirror disabled, skipping %v (%d bytes)", key, len(body))
	return nil
}

func (*NoneMirror) PublicURL(key string) string {
	return ""
}

func (*NoneMirror) Delete(ctx context.Context, key string) error {
	return nil
}
