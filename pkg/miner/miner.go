// Package miner clones or updates a repository and extracts the raw file
// tree and commit history the dashboard pipeline consumes.
package miner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/Sumatoshi-tech/reposcope/pkg/model"
)

const (
	// DefaultCacheDir is where clones are kept between analyses.
	DefaultCacheDir = "cache"

	// DefaultHistoryLimit caps the number of mined commits, newest first.
	DefaultHistoryLimit = 2000
)

// ErrEmptyURL indicates an analysis request without a repository URL.
var ErrEmptyURL = errors.New("repository url is required")

// Miner mines repositories into model.Analysis payloads. The zero value is
// not usable; construct with New.
type Miner struct {
	cacheDir     string
	historyLimit int
}

// Option configures a Miner.
type Option func(*Miner)

// WithCacheDir overrides the clone cache directory.
func WithCacheDir(dir string) Option {
	return func(m *Miner) { m.cacheDir = dir }
}

// WithHistoryLimit overrides the mined-commit cap.
func WithHistoryLimit(limit int) Option {
	return func(m *Miner) { m.historyLimit = limit }
}

// New returns a Miner with the default cache directory and history limit.
func New(opts ...Option) *Miner {
	m := &Miner{
		cacheDir:     DefaultCacheDir,
		historyLimit: DefaultHistoryLimit,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Analyze clones or updates the repository and returns the complete
// analysis payload: file tree, commit history, and metadata.
func (m *Miner) Analyze(ctx context.Context, repoURL string) (*model.Analysis, error) {
	if repoURL == "" {
		return nil, ErrEmptyURL
	}

	name := RepoName(repoURL)

	repo, localPath, err := m.prepare(ctx, repoURL, name)
	if err != nil {
		return nil, err
	}

	slog.Info("analyzing file structure", "repo", name)

	tree, err := buildFileTree(localPath, name)
	if err != nil {
		return nil, fmt.Errorf("build file tree: %w", err)
	}

	slog.Info("mining commit history", "repo", name, "limit", m.historyLimit)

	history, err := mineHistory(ctx, repo, m.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("mine history: %w", err)
	}

	return &model.Analysis{
		Meta: model.Meta{
			RepoName:   name,
			AnalyzedAt: time.Now().UTC(),
		},
		FileTree: tree,
		History:  history,
	}, nil
}

// CheckForUpdate reports whether the repository head moved past lastHash.
// Remote URLs are probed with a ref listing; local paths read HEAD directly.
func (m *Miner) CheckForUpdate(ctx context.Context, repoURL, lastHash string) (bool, error) {
	if repoURL == "" {
		return false, ErrEmptyURL
	}

	head, err := headHash(ctx, repoURL)
	if err != nil {
		return false, err
	}

	return head != "" && head != lastHash, nil
}

// prepare clones the repository into the cache, or pulls when a clone
// already exists. A failing pull clears the cached copy and reclones.
func (m *Miner) prepare(ctx context.Context, repoURL, name string) (*git.Repository, string, error) {
	if isLocalPath(repoURL) {
		repo, err := git.PlainOpen(repoURL)
		if err != nil {
			return nil, "", fmt.Errorf("open repository %s: %w", repoURL, err)
		}

		return repo, repoURL, nil
	}

	localPath := filepath.Join(m.cacheDir, name)

	if _, statErr := os.Stat(localPath); statErr == nil {
		repo, err := m.pull(ctx, localPath, name)
		if err == nil {
			return repo, localPath, nil
		}

		slog.Warn("pull failed, recloning", "repo", name, "error", err)

		if rmErr := os.RemoveAll(localPath); rmErr != nil {
			return nil, "", fmt.Errorf("clear stale clone: %w", rmErr)
		}
	}

	slog.Info("cloning repository", "repo", name, "url", repoURL)

	repo, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{URL: repoURL})
	if err != nil {
		return nil, "", fmt.Errorf("clone %s: %w", repoURL, err)
	}

	return repo, localPath, nil
}

func (m *Miner) pull(ctx context.Context, localPath, name string) (*git.Repository, error) {
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return nil, fmt.Errorf("open cached clone: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	slog.Info("pulling latest changes", "repo", name)

	pullErr := worktree.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName})
	if pullErr != nil && !errors.Is(pullErr, git.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("pull: %w", pullErr)
	}

	return repo, nil
}

func headHash(ctx context.Context, repoURL string) (string, error) {
	if isLocalPath(repoURL) {
		repo, err := git.PlainOpen(repoURL)
		if err != nil {
			return "", fmt.Errorf("open repository %s: %w", repoURL, err)
		}

		head, err := repo.Head()
		if err != nil {
			return "", fmt.Errorf("resolve head: %w", err)
		}

		return head.Hash().String(), nil
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{repoURL},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("list remote refs: %w", err)
	}

	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, ref := range refs {
		byName[ref.Name()] = ref
	}

	head, ok := byName[plumbing.HEAD]
	if !ok {
		return "", nil
	}

	// Listed HEADs are usually symbolic; follow the target branch.
	if head.Type() == plumbing.SymbolicReference {
		target, found := byName[head.Target()]
		if !found {
			return "", nil
		}

		return target.Hash().String(), nil
	}

	return head.Hash().String(), nil
}

// RepoName derives the repository name from its URL or path.
func RepoName(repoURL string) string {
	trimmed := strings.TrimRight(repoURL, "/")
	name := trimmed[strings.LastIndexByte(trimmed, '/')+1:]

	return strings.TrimSuffix(name, ".git")
}

func isLocalPath(repoURL string) bool {
	if strings.Contains(repoURL, "://") || strings.HasPrefix(repoURL, "git@") {
		return false
	}

	info, err := os.Stat(repoURL)

	return err == nil && info.IsDir()
}
