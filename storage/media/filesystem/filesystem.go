package filesystem

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/storage/media"
	storageutil "github.com/indieinfra/capture/storage/util"
)

// StoreImpl stores uploaded media files in a local directory.
type StoreImpl struct {
	basePath  string
	publicURL string
	pattern   *storageutil.PathPattern
	now       func() time.Time
	mu        sync.Mutex
}

// NewFilesystemMediaStore creates a new filesystem-based media store.
func NewFilesystemMediaStore(cfg *config.FilesystemMediaStrategy) (*StoreImpl, error) {
	if cfg == nil {
		return nil, fmt.Errorf("filesystem media config is nil")
	}

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	pattern := storageutil.DefaultMediaPattern()
	if cfg.PathPattern != "" {
		pattern = storageutil.NewPathPattern(cfg.PathPattern)
	}

	return &StoreImpl{
		basePath:  cfg.Path,
		publicURL: storageutil.NormalizeBaseURL(cfg.PublicUrl),
		pattern:   pattern,
		now:       time.Now,
	}, nil
}

// Upload saves the asset to the filesystem and returns its public URL.
func (fs *StoreImpl) Upload(ctx context.Context, asset *media.Asset) (*media.Stored, error) {
	if asset == nil || asset.Body == nil {
		return nil, fmt.Errorf("asset and body are required")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	name, ext := asset.ObjectName()
	if ext == "" && asset.ContentType != "" {
		exts, err := mime.ExtensionsByType(asset.ContentType)
		if err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	if name == "" {
		name = uuid.New().String()
	}

	values := storageutil.PathValues{
		Folder:    asset.Folder,
		Kind:      string(asset.Kind),
		Name:      name,
		Ext:       ext,
		Timestamp: fs.now(),
	}

	relPath, err := fs.pattern.Generate(values)
	if err != nil {
		return nil, fmt.Errorf("failed to generate path: %w", err)
	}

	absPath := filepath.Join(fs.basePath, filepath.FromSlash(relPath))

	// Existing files get a short unique suffix rather than being overwritten.
	if _, err := os.Stat(absPath); err == nil {
		values.Name = fmt.Sprintf("%s-%s", name, uuid.New().String()[:8])
		relPath, err = fs.pattern.Generate(values)
		if err != nil {
			return nil, fmt.Errorf("failed to generate unique path: %w", err)
		}
		absPath = filepath.Join(fs.basePath, filepath.FromSlash(relPath))
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	outFile, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, asset.Body); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &media.Stored{
		URL:  fs.publicURL + relPath,
		Key:  relPath,
		Kind: asset.Kind,
	}, nil
}

// Delete removes a media file from the filesystem.
func (fs *StoreImpl) Delete(ctx context.Context, stored *media.Stored) error {
	if stored == nil {
		return fmt.Errorf("stored asset is nil")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	relPath := stored.Key
	if relPath == "" {
		if !strings.HasPrefix(stored.URL, fs.publicURL) {
			return fmt.Errorf("url %q does not match public URL prefix %q", stored.URL, fs.publicURL)
		}
		relPath = strings.TrimPrefix(stored.URL, fs.publicURL)
	}

	if !filepath.IsLocal(filepath.FromSlash(relPath)) {
		return fmt.Errorf("refusing to delete %q outside of media directory", relPath)
	}

	absPath := filepath.Join(fs.basePath, filepath.FromSlash(relPath))

	if err := os.Remove(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}

	return nil
}
