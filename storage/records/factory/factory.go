package factory

import (
	"fmt"
	"sync"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/storage/records"
)

// Factory builds a record store for the provided records config.
type Factory func(*config.Records) (records.Store, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds or replaces a record store factory for the given strategy name.
func Register(strategy string, factory Factory) {
	mu.Lock()
	registry[strategy] = factory
	mu.Unlock()
}

// Get retrieves a factory for the given strategy.
func Get(strategy string) (Factory, bool) {
	mu.RLock()
	f, ok := registry[strategy]
	mu.RUnlock()
	return f, ok
}

// Create builds a record store using the registered factory for the configured strategy.
func Create(cfg *config.Records) (records.Store, error) {
	if f, ok := Get(cfg.Strategy); ok {
		return f(cfg)
	}

	return nil, fmt.Errorf("unknown records strategy %q", cfg.Strategy)
}

func init() {
	Register("noop", func(cfg *config.Records) (records.Store, error) {
		return &records.NoopRecordStore{}, nil
	})
	Register("supabase", func(cfg *config.Records) (records.Store, error) {
		return records.NewSupabaseRecordStore(cfg.Supabase)
	})
	Register("sql", func(cfg *config.Records) (records.Store, error) {
		return records.NewSQLRecordStore(cfg.SQL)
	})
	Register("d1", func(cfg *config.Records) (records.Store, error) {
		return records.NewD1RecordStore(cfg.D1)
	})
	Register("git", func(cfg *config.Records) (records.Store, error) {
		return records.NewGitRecordStore(cfg.Git)
	})
}
