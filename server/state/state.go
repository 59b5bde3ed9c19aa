package state

import (
	"io"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/server/metrics"
	"github.com/indieinfra/capture/session"
	"github.com/indieinfra/capture/storage/media"
	"github.com/indieinfra/capture/storage/mirror"
	"github.com/indieinfra/capture/storage/records"
	"github.com/indieinfra/capture/storage/util"
)

// CaptureState is built once at startup and shared read-only by handlers.
type CaptureState struct {
	Cfg           *config.Config
	MirrorPattern *util.PathPattern
	Sessions      *session.Resolver
	MediaStore    media.Store
	MirrorStore   mirror.Store
	RecordStore   records.Store
	Metrics       *metrics.Metrics

	// Closers are released on shutdown after the record store.
	Closers []io.Closer
}
