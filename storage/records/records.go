package records

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidRecord = errors.New("invalid record")

// Record is the row written once per successful upload call. Nil pointers
// are absent values and serialize as null.
type Record struct {
	ID                uuid.UUID `json:"id"`
	UserID            string    `json:"user_id"`
	PhotoURL          *string   `json:"photo_url"`
	VideoURL          *string   `json:"video_url"`
	PhotoMirrorURL    *string   `json:"photo_mirror_url"`
	VideoMirrorURL    *string   `json:"video_mirror_url"`
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	LocationURL       *string   `json:"location_url"`
	LocationMirrorURL *string   `json:"location_mirror_url"`
	CreatedAt         time.Time `json:"created_at"`
}

// Store persists upload records. Records are never updated or deleted.
type Store interface {
	Insert(ctx context.Context, record *Record) error
}

// Prepare fills the generated columns of r when they are unset.
func Prepare(r *Record) error {
	if r == nil {
		return ErrInvalidRecord
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	return nil
}

// columns lists record fields in storage order; values returns them aligned.
var columns = []string{
	"id", "user_id", "photo_url", "video_url", "photo_mirror_url", "video_mirror_url",
	"latitude", "longitude", "location_url", "location_mirror_url", "created_at",
}

func (r *Record) values() []any {
	return []any{
		r.ID.String(),
		r.UserID,
		nullString(r.PhotoURL),
		nullString(r.VideoURL),
		nullString(r.PhotoMirrorURL),
		nullString(r.VideoMirrorURL),
		nullFloat(r.Latitude),
		nullFloat(r.Longitude),
		nullString(r.LocationURL),
		nullString(r.LocationMirrorURL),
		r.CreatedAt,
	}
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
