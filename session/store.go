package session

import (
	"fmt"

	"github.com/indieinfra/capture/config"
)

// NewStore builds the configured session store. Modes other than "session"
// need no store and get nil.
func NewStore(cfg *config.Session) (Store, error) {
	if cfg.Mode != "session" {
		return nil, nil
	}

	switch cfg.Store {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sql":
		return NewSQLStore(cfg.SQL)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
