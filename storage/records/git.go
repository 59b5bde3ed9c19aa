package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/plumbing/transport/ssh"

	"github.com/indieinfra/capture/config"
)

// GitRecordStore commits one JSON document per record to a git repository
// and pushes it, for deployments that want an audit trail instead of a table.
type GitRecordStore struct {
	cfg    *config.GitRecordStrategy
	auth   transport.AuthMethod
	branch string
	repo   *git.Repository
	tmpDir string
	mu     sync.Mutex
}

func NewGitRecordStore(cfg *config.GitRecordStrategy) (*GitRecordStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("git records config is nil")
	}

	auth, err := buildGitAuth(cfg)
	if err != nil {
		return nil, err
	}

	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}

	store := &GitRecordStore{cfg: cfg, auth: auth, branch: branch}
	if err := store.clone(); err != nil {
		return nil, err
	}

	return store, nil
}

func buildGitAuth(cfg *config.GitRecordStrategy) (transport.AuthMethod, error) {
	switch cfg.Auth.Method {
	case "", "none":
		return nil, nil
	case "plain":
		if cfg.Auth.Plain == nil {
			return nil, fmt.Errorf("plain git authentication requires credentials")
		}
		return &http.BasicAuth{
			Username: cfg.Auth.Plain.Username,
			Password: cfg.Auth.Plain.Password,
		}, nil
	case "ssh":
		if cfg.Auth.Ssh == nil {
			return nil, fmt.Errorf("ssh git authentication requires a key")
		}
		pubkeys, err := ssh.NewPublicKeysFromFile(cfg.Auth.Ssh.Username, cfg.Auth.Ssh.PrivateKeyFilePath, cfg.Auth.Ssh.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare records git ssh authentication: %w", err)
		}
		return pubkeys, nil
	default:
		return nil, fmt.Errorf("invalid git authentication method %v", cfg.Auth.Method)
	}
}

func (rs *GitRecordStore) clone() error {
	tmpDir, err := os.MkdirTemp("", "capture-records-*")
	if err != nil {
		return err
	}

	repo, err := git.PlainClone(tmpDir, &git.CloneOptions{
		URL:           rs.cfg.Repository,
		Auth:          rs.auth,
		ReferenceName: plumbing.NewBranchReferenceName(rs.branch),
		SingleBranch:  true,
	})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("failed to clone records repository: %w", err)
	}

	if rs.tmpDir != "" {
		_ = os.RemoveAll(rs.tmpDir)
	}
	rs.tmpDir = tmpDir
	rs.repo = repo

	return nil
}

// Cleanup removes the local clone. Call it on shutdown.
func (rs *GitRecordStore) Cleanup() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.tmpDir == "" {
		return nil
	}

	if err := os.RemoveAll(rs.tmpDir); err != nil {
		return fmt.Errorf("failed to cleanup git records store: %w", err)
	}

	rs.tmpDir = ""
	return nil
}

func (rs *GitRecordStore) fetchAndFastForward(ctx context.Context) error {
	var lastErr error

	for range 3 {
		if err := rs.repo.FetchContext(ctx, &git.FetchOptions{Auth: rs.auth}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			lastErr = err
			_ = rs.clone()
			continue
		}

		remoteRef, err := rs.repo.Reference(plumbing.NewRemoteReferenceName("origin", rs.branch), true)
		if err != nil {
			lastErr = err
			_ = rs.clone()
			continue
		}

		wt, err := rs.repo.Worktree()
		if err != nil {
			lastErr = err
			_ = rs.clone()
			continue
		}

		if err := wt.Reset(&git.ResetOptions{Mode: git.HardReset, Commit: remoteRef.Hash()}); err != nil {
			lastErr = err
			_ = rs.clone()
			continue
		}

		return nil
	}

	return fmt.Errorf("could not fetch + fastforward after 3 retries: %w", lastErr)
}

// recordPath files records by creation month, e.g. uploads/2026/03/<id>.json.
func (rs *GitRecordStore) recordPath(record *Record) string {
	return filepath.Join(
		rs.cfg.Path,
		fmt.Sprintf("%04d", record.CreatedAt.Year()),
		fmt.Sprintf("%02d", record.CreatedAt.Month()),
		record.ID.String()+".json",
	)
}

func (rs *GitRecordStore) Insert(ctx context.Context, record *Record) error {
	if err := Prepare(record); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if err := rs.fetchAndFastForward(ctx); err != nil {
		return fmt.Errorf("failed to update repo from remote: %w", err)
	}

	relPath := rs.recordPath(record)
	fullPath := filepath.Join(rs.tmpDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create required directory structure: %w", err)
	}

	if err := os.WriteFile(fullPath, payload, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	wt, err := rs.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	if _, err := wt.Add(filepath.ToSlash(relPath)); err != nil {
		return fmt.Errorf("failed to add file to git: %w", err)
	}

	_, err = wt.Commit(fmt.Sprintf("capture(add): upload record %v for %v", record.ID, record.UserID), &git.CommitOptions{
		Author: &object.Signature{
			Name:  "capture",
			Email: "capture@local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}

	if err := rs.repo.PushContext(ctx, &git.PushOptions{Auth: rs.auth}); err != nil {
		return fmt.Errorf("failed to push local: %w", err)
	}

	return nil
}
