package records

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v6"
	gogitcfg "github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"

	"github.com/indieinfra/capture/config"
)

func setupRemoteRepo(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	workDir := filepath.Join(base, "work")
	bareDir := filepath.Join(base, "remote.git")

	bareRepo, err := git.PlainInit(bareDir, true)
	if err != nil {
		t.Fatalf("failed to init bare repo: %v", err)
	}

	workRepo, err := git.PlainInit(workDir, false)
	if err != nil {
		t.Fatalf("failed to init work repo: %v", err)
	}

	wt, err := workRepo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	if err := os.WriteFile(filepath.Join(workDir, "README.md"), []byte("uploads\n"), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatalf("failed to add seed file: %v", err)
	}

	commitHash, err := wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit seed: %v", err)
	}

	mainRef := plumbing.NewBranchReferenceName("main")
	if err := workRepo.Storer.SetReference(plumbing.NewHashReference(mainRef, commitHash)); err != nil {
		t.Fatalf("failed to create main reference: %v", err)
	}
	if err := workRepo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, mainRef)); err != nil {
		t.Fatalf("failed to move HEAD to main: %v", err)
	}

	if _, err := workRepo.CreateRemote(&gogitcfg.RemoteConfig{Name: "origin", URLs: []string{bareDir}}); err != nil {
		t.Fatalf("failed to create remote: %v", err)
	}

	if err := workRepo.Push(&git.PushOptions{RemoteName: "origin", RefSpecs: []gogitcfg.RefSpec{"refs/heads/main:refs/heads/main"}}); err != nil {
		t.Fatalf("failed to push seed commit: %v", err)
	}

	if err := bareRepo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, mainRef)); err != nil {
		t.Fatalf("failed to set bare head: %v", err)
	}

	return bareDir
}

func TestGitRecordStore_Insert(t *testing.T) {
	remote := setupRemoteRepo(t)

	store, err := NewGitRecordStore(&config.GitRecordStrategy{
		Repository: remote,
		Path:       "uploads",
		Auth:       config.GitRecordStrategyAuth{Method: "none"},
	})
	if err != nil {
		t.Fatalf("failed to create git records store: %v", err)
	}
	t.Cleanup(func() { _ = store.Cleanup() })

	record := sampleRecord()
	record.CreatedAt = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	if err := store.Insert(context.Background(), record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// A fresh clone of the remote must contain the pushed record.
	checkDir := t.TempDir()
	if _, err := git.PlainClone(checkDir, &git.CloneOptions{URL: remote}); err != nil {
		t.Fatalf("failed to clone remote: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(checkDir, "uploads", "2026", "03", record.ID.String()+".json"))
	if err != nil {
		t.Fatalf("expected record file in remote: %v", err)
	}

	var got Record
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if got.UserID != record.UserID || got.Latitude == nil || *got.Latitude != 12.34 {
		t.Fatalf("unexpected stored record: %+v", got)
	}
}

func TestBuildGitAuth(t *testing.T) {
	if auth, err := buildGitAuth(&config.GitRecordStrategy{Auth: config.GitRecordStrategyAuth{Method: "none"}}); err != nil || auth != nil {
		t.Fatalf("expected nil auth for none, got %v %v", auth, err)
	}

	auth, err := buildGitAuth(&config.GitRecordStrategy{Auth: config.GitRecordStrategyAuth{
		Method: "plain",
		Plain:  &config.UsernamePasswordAuth{Username: "u", Password: "p"},
	}})
	if err != nil || auth == nil {
		t.Fatalf("expected basic auth, got %v %v", auth, err)
	}

	if _, err := buildGitAuth(&config.GitRecordStrategy{Auth: config.GitRecordStrategyAuth{Method: "plain"}}); err == nil {
		t.Fatalf("expected error for plain without credentials")
	}
	if _, err := buildGitAuth(&config.GitRecordStrategy{Auth: config.GitRecordStrategyAuth{Method: "token"}}); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}

func TestNewGitRecordStore_Errors(t *testing.T) {
	if _, err := NewGitRecordStore(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}

	_, err := NewGitRecordStore(&config.GitRecordStrategy{
		Repository: filepath.Join(t.TempDir(), "missing.git"),
		Path:       "uploads",
		Auth:       config.GitRecordStrategyAuth{Method: "none"},
	})
	if err == nil {
		t.Fatalf("expected error cloning missing repository")
	}
}
