package factory

import (
	"context"
	"errors"
	"testing"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/storage/media"
)

type fakeMediaStore struct{}

func (fakeMediaStore) Upload(context.Context, *media.Asset) (*media.Stored, error) {
	return &media.Stored{}, nil
}
func (fakeMediaStore) Delete(context.Context, *media.Stored) error { return nil }

func TestRegisterAndGetMediaFactory(t *testing.T) {
	Register("fake-media", func(cfg *config.Media) (media.Store, error) {
		return fakeMediaStore{}, nil
	})

	factory, ok := Get("fake-media")
	if !ok {
		t.Fatalf("expected media factory to be registered")
	}

	store, err := factory(&config.Media{})
	if err != nil {
		t.Fatalf("factory returned error: %v", err)
	}
	if _, ok := store.(fakeMediaStore); !ok {
		t.Fatalf("unexpected store type: %T", store)
	}
}

func TestCreateMediaUnknownStrategy(t *testing.T) {
	if _, err := Create(&config.Media{Strategy: "missing"}); err == nil {
		t.Fatalf("expected error for unknown media strategy")
	}
}

func TestRegisterMediaReplacesFactory(t *testing.T) {
	Register("replace-media", func(cfg *config.Media) (media.Store, error) {
		return nil, errors.New("first")
	})
	Register("replace-media", func(cfg *config.Media) (media.Store, error) {
		return fakeMediaStore{}, nil
	})

	store, err := Create(&config.Media{Strategy: "replace-media"})
	if err != nil {
		t.Fatalf("expected replaced media factory to succeed: %v", err)
	}
	if _, ok := store.(fakeMediaStore); !ok {
		t.Fatalf("unexpected store type: %T", store)
	}
}

func TestBuiltinMediaStrategiesRegistered(t *testing.T) {
	for _, strategy := range []string{"noop", "cloudinary", "s3", "filesystem"} {
		t.Run("strategy_"+strategy, func(t *testing.T) {
			factory, ok := Get(strategy)
			if !ok || factory == nil {
				t.Fatalf("expected %q strategy to be registered", strategy)
			}
		})
	}
}

func TestCreateNoopMediaStore(t *testing.T) {
	store, err := Create(&config.Media{Strategy: "noop"})
	if err != nil {
		t.Fatalf("expected noop store to be created, got error: %v", err)
	}
	if _, ok := store.(*media.NoopMediaStore); !ok {
		t.Fatalf("expected NoopMediaStore, got %T", store)
	}
}

func TestCreate_MissingStrategyBlocks(t *testing.T) {
	for _, strategy := range []string{"cloudinary", "s3", "filesystem"} {
		t.Run(strategy, func(t *testing.T) {
			if _, err := Create(&config.Media{Strategy: strategy}); err == nil {
				t.Fatalf("expected error when %s config is nil", strategy)
			}
		})
	}
}

func TestCreateCloudinaryMediaStore(t *testing.T) {
	store, err := Create(&config.Media{
		Strategy: "cloudinary",
		Cloudinary: &config.CloudinaryMediaStrategy{
			CloudName: "demo",
			ApiKey:    "key",
			ApiSecret: "secret",
		},
	})
	if err != nil {
		t.Fatalf("expected cloudinary store to be created, got error: %v", err)
	}
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestCreateFilesystemMediaStore_Success(t *testing.T) {
	store, err := Create(&config.Media{
		Strategy: "filesystem",
		Filesystem: &config.FilesystemMediaStrategy{
			Path:      t.TempDir(),
			PublicUrl: "https://example.org/media",
		},
	})
	if err != nil {
		t.Fatalf("expected filesystem media store to be created, got error: %v", err)
	}

	var _ media.Store = store
}
