// Package session resolves the per-browser identifier that prefixes every
// upload's storage folder.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/indieinfra/capture/config"
)

var ErrNoStore = errors.New("session store is required in session mode")

// Session binds an opaque cookie value to the user identifier it was issued.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

type Store interface {
	// Get returns the session for id. Unknown and expired sessions report found=false.
	Get(ctx context.Context, id string) (*Session, bool, error)
	Save(ctx context.Context, s *Session) error
}

// NewIdentifier returns 12 lowercase hex characters taken from a random UUID.
func NewIdentifier() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:12]
}

// GetOrCreate looks up sessionID in store. When there is no usable session a
// new one is created with a fresh session ID and generate() as its user, and
// created is true.
func GetOrCreate(ctx context.Context, store Store, sessionID string, ttl time.Duration, generate func() string) (*Session, bool, error) {
	if sessionID != "" {
		s, found, err := store.Get(ctx, sessionID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load session: %w", err)
		}
		if found {
			return s, false, nil
		}
	}

	s := &Session{
		ID:     uuid.NewString(),
		UserID: generate(),
	}
	// A zero ExpiresAt never expires; the cookie then lives as long as the browser session.
	if ttl > 0 {
		s.ExpiresAt = time.Now().Add(ttl)
	}

	if err := store.Save(ctx, s); err != nil {
		return nil, false, fmt.Errorf("failed to save session: %w", err)
	}

	return s, true, nil
}

// Resolver turns a request into a user identifier according to the configured mode.
type Resolver struct {
	mode       string
	store      Store
	cookieName string
	maxAge     time.Duration
	secure     bool
	generate   func() string
}

func NewResolver(cfg *config.Session, store Store) (*Resolver, error) {
	if cfg.Mode == "session" && store == nil {
		return nil, ErrNoStore
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "capture_session"
	}

	return &Resolver{
		mode:       cfg.Mode,
		store:      store,
		cookieName: cookieName,
		maxAge:     cfg.MaxAge,
		secure:     cfg.Secure,
		generate:   NewIdentifier,
	}, nil
}

// Resolve returns the user identifier for r, setting the session cookie on w
// when a new session had to be created.
func (res *Resolver) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	switch res.mode {
	case "none":
		return "", nil
	case "request":
		return res.generate(), nil
	}

	var sessionID string
	if c, err := r.Cookie(res.cookieName); err == nil {
		sessionID = c.Value
	}

	s, created, err := GetOrCreate(ctx, res.store, sessionID, res.maxAge, res.generate)
	if err != nil {
		return "", err
	}

	if created {
		cookie := &http.Cookie{
			Name:     res.cookieName,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   res.secure,
			SameSite: http.SameSiteLaxMode,
		}
		if res.maxAge > 0 {
			cookie.MaxAge = int(res.maxAge.Seconds())
			cookie.Expires = s.ExpiresAt
		}
		http.SetCookie(w, cookie)
	}

	return s.UserID, nil
}
