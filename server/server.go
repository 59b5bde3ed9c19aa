package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/server/handler/home"
	"github.com/indieinfra/capture/server/handler/upload"
	"github.com/indieinfra/capture/server/metrics"
	"github.com/indieinfra/capture/server/middleware"
	"github.com/indieinfra/capture/server/state"
	"github.com/indieinfra/capture/session"
	"github.com/indieinfra/capture/storage/media"
	mediafactory "github.com/indieinfra/capture/storage/media/factory"
	"github.com/indieinfra/capture/storage/mirror"
	mirrorfactory "github.com/indieinfra/capture/storage/mirror/factory"
	"github.com/indieinfra/capture/storage/records"
	recordsfactory "github.com/indieinfra/capture/storage/records/factory"
	"github.com/indieinfra/capture/storage/util"
)

const shutdownTimeout = 10 * time.Second

// StartServer builds every configured backend, serves until SIGINT or SIGTERM
// and then shuts down gracefully.
func StartServer(cfg *config.Config) error {
	st, err := initializeState(cfg)
	if err != nil {
		return err
	}
	defer cleanup(st)

	ln, err := net.Listen("tcp", cfg.BindAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %q: %w", cfg.BindAddress(), err)
	}

	srv := &http.Server{
		Handler:           NewRouter(st),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving http requests on %q", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

// NewRouter wires the HTTP surface around an initialized state.
func NewRouter(st *state.CaptureState) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogging(st.Cfg.Debug))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(corsOptions(st.Cfg.Server.Cors.AllowedOrigins)))

	r.Get("/", home.HandleHome(st.Cfg))
	r.Get("/healthz", home.HandleHealth)
	r.Post("/upload", upload.HandleUpload(st))
	r.Method(http.MethodGet, "/metrics", st.Metrics.Handler())

	return r
}

// corsOptions only allows credentialed requests from an explicit origin list.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	}
}

func initializeState(cfg *config.Config) (*state.CaptureState, error) {
	st := &state.CaptureState{
		Cfg:           cfg,
		MirrorPattern: util.DefaultMirrorPattern(),
		Metrics:       metrics.New(),
	}
	if cfg.Mirror.PathPattern != "" {
		st.MirrorPattern = util.NewPathPattern(cfg.Mirror.PathPattern)
	}

	var err error
	if st.MediaStore, err = initializeMediaStore(&cfg.Media); err != nil {
		return nil, err
	}
	if st.MirrorStore, err = initializeMirrorStore(&cfg.Mirror); err != nil {
		return nil, err
	}
	if st.RecordStore, err = initializeRecordStore(&cfg.Records); err != nil {
		return nil, err
	}

	sessions, err := session.NewStore(&cfg.Session)
	if err != nil {
		cleanup(st)
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	if st.Sessions, err = session.NewResolver(&cfg.Session, sessions); err != nil {
		cleanup(st)
		return nil, err
	}
	if c, ok := sessions.(io.Closer); ok {
		st.Closers = append(st.Closers, c)
	}

	log.Printf("media=%s mirror=%s records=%s session=%s", cfg.Media.Strategy, cfg.Mirror.Strategy, cfg.Records.Strategy, cfg.Session.Mode)
	return st, nil
}

func initializeMediaStore(cfg *config.Media) (media.Store, error) {
	store, err := mediafactory.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}
	return store, nil
}

func initializeMirrorStore(cfg *config.Mirror) (mirror.Store, error) {
	store, err := mirrorfactory.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mirror store: %w", err)
	}
	return store, nil
}

func initializeRecordStore(cfg *config.Records) (records.Store, error) {
	store, err := recordsfactory.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}
	return store, nil
}

// cleanup releases connections and working copies held by the stores.
func cleanup(st *state.CaptureState) {
	if gs, ok := st.RecordStore.(*records.GitRecordStore); ok {
		if err := gs.Cleanup(); err != nil {
			log.Printf("failed to clean up git record store: %v", err)
		}
	} else if c, ok := st.RecordStore.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("failed to close record store: %v", err)
		}
	}

	for _, c := range st.Closers {
		if err := c.Close(); err != nil {
			log.Printf("failed to close session store: %v", err)
		}
	}
}
