package factory

import (
	"fmt"
	"sync"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/storage/mirror"
)

// Factory builds a mirror for the provided mirror config.
type Factory func(*config.Mirror) (mirror.Store, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

func Register(strategy string, factory Factory) {
	mu.Lock()
	registry[strategy] = factory
	mu.Unlock()
}

func Get(strategy string) (Factory, bool) {
	mu.RLock()
	f, ok := registry[strategy]
	mu.RUnlock()
	return f, ok
}

// Create builds a mirror using the registered factory for the configured strategy.
func Create(cfg *config.Mirror) (mirror.Store, error) {
	if f, ok := Get(cfg.Strategy); ok {
		return f(cfg)
	}

	return nil, fmt.Errorf("unknown mirror strategy %q", cfg.Strategy)
}

func init() {
	Register("none", func(cfg *config.Mirror) (mirror.Store, error) {
		return &mirror.NoneMirror{}, nil
	})
	Register("supabase", func(cfg *config.Mirror) (mirror.Store, error) {
		return mirror.NewSupabaseMirror(cfg.Supabase)
	})
	Register("s3", func(cfg *config.Mirror) (mirror.Store, error) {
		return mirror.NewS3Mirror(cfg.S3)
	})
}
