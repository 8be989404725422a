// Package session owns one dashboard session: the refresh pipeline that
// turns a mined analysis into the per-view datasets, the linkage bus and
// view-sync engines scoped to the session, and the polling controller that
// keeps the datasets current.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/reposcope/pkg/commitgraph"
	"github.com/Sumatoshi-tech/reposcope/pkg/hierarchy"
	"github.com/Sumatoshi-tech/reposcope/pkg/linkage"
	"github.com/Sumatoshi-tech/reposcope/pkg/model"
	"github.com/Sumatoshi-tech/reposcope/pkg/timeseries"
	"github.com/Sumatoshi-tech/reposcope/pkg/viewsync"
)

// DefaultPollInterval is the gap between head-hash checks.
const DefaultPollInterval = 10 * time.Second

// ErrNoAnalysis indicates the session has not completed an initial load.
var ErrNoAnalysis = errors.New("no analysis loaded")

// Fetcher is the mining collaborator the session consumes.
type Fetcher interface {
	Analyze(ctx context.Context, repoURL string) (*model.Analysis, error)
	CheckForUpdate(ctx context.Context, repoURL, lastHash string) (bool, error)
}

// Snapshot is the complete set of per-view datasets one refresh produced.
// A refresh replaces the snapshot atomically; stages never merge partially.
type Snapshot struct {
	Meta      model.Meta        `json:"meta"`
	Hierarchy *hierarchy.Node   `json:"hierarchy"`
	Series    timeseries.Series `json:"series"`
	Graph     commitgraph.Graph `json:"graph"`
	HeadHash  string            `json:"headHash"`
	Analysis  *model.Analysis   `json:"-"`
}

// BuildSnapshot runs the three pipeline stages over one analysis. Each stage
// independently degrades to its empty-but-valid result on missing input, so
// views with valid partial data still render.
func BuildSnapshot(analysis *model.Analysis) Snapshot {
	return Snapshot{
		Meta:      analysis.Meta,
		Hierarchy: hierarchy.Aggregate(analysis.FileTree),
		Series:    timeseries.Bucket(analysis.History),
		Graph:     commitgraph.Build(analysis.History),
		HeadHash:  analysis.HeadHash(),
		Analysis:  analysis,
	}
}

// Session drives one dashboard lifetime. All pipeline work runs on the
// caller's goroutine; the poller is the only background activity and applies
// its results through the same guarded paths.
type Session struct {
	fetcher      Fetcher
	bus          *linkage.Bus
	pollInterval time.Duration
	onRefresh    func(Snapshot)

	mu         sync.Mutex
	repoURL    string
	generation uint64
	snapshot   *Snapshot
	engines    map[string]*viewsync.Engine
	poller     *Poller
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithPollInterval overrides the update-check interval. A non-positive
// interval disables background polling entirely.
func WithPollInterval(interval time.Duration) SessionOption {
	return func(s *Session) { s.pollInterval = interval }
}

// WithRefreshHook registers a callback invoked after every applied snapshot,
// initial load included. Used by the server to push updates to views.
func WithRefreshHook(hook func(Snapshot)) SessionOption {
	return func(s *Session) { s.onRefresh = hook }
}

// SetRefreshHook replaces the refresh callback. Safe to call while the
// poller is running; the next applied snapshot uses the new hook.
func (s *Session) SetRefreshHook(hook func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onRefresh = hook
}

// NewSession creates a session around the given collaborator.
func NewSession(fetcher Fetcher, opts ...SessionOption) *Session {
	s := &Session{
		fetcher:      fetcher,
		bus:          linkage.NewBus(),
		pollInterval: DefaultPollInterval,
		engines:      map[string]*viewsync.Engine{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Bus returns the session's linkage bus.
func (s *Session) Bus() *linkage.Bus {
	return s.bus
}

// RepoURL returns the repository the session is currently analyzing.
func (s *Session) RepoURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repoURL
}

// Engine returns the view-sync engine for the named view, creating it on
// first use. Engines persist geometry across refreshes within the session.
func (s *Session) Engine(viewID string) *viewsync.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine, ok := s.engines[viewID]
	if !ok {
		engine = viewsync.NewEngine()
		s.engines[viewID] = engine
	}

	return engine
}

// Snapshot returns the current datasets, or ErrNoAnalysis before the first
// successful load.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return Snapshot{}, ErrNoAnalysis
	}

	return *s.snapshot, nil
}

// Load starts a new analysis. Any pending poll check is cancelled first and
// all session state bound to the previous dataset is reset: subscriptions,
// geometry caches, and the snapshot. A generation bump makes any still
// in-flight fetch from the previous analysis inert.
func (s *Session) Load(ctx context.Context, repoURL string) error {
	s.mu.Lock()

	// Bump the generation first: any in-flight fetch or check from the
	// previous analysis becomes inert before we wait for the poller.
	s.generation++
	generation := s.generation
	s.repoURL = repoURL
	s.snapshot = nil
	s.bus.Reset()

	for _, engine := range s.engines {
		engine.Reset()
	}

	poller := s.poller
	s.poller = nil
	s.mu.Unlock()

	// Stopped outside the lock: a check that is mid-flight may still need
	// the lock to observe its stale generation and bail.
	if poller != nil {
		poller.Stop()
	}

	if err := s.refresh(ctx, repoURL, generation); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer Load won the race while we were fetching; do not start a
	// poller for the stale session.
	if s.generation != generation {
		return nil
	}

	if s.pollInterval > 0 {
		s.poller = NewPoller(s.pollInterval, s.check(repoURL, generation))
		s.poller.Start()
	}

	return nil
}

// Close stops the poller and clears session-scoped state.
func (s *Session) Close() {
	s.mu.Lock()

	s.generation++
	s.snapshot = nil
	s.bus.Reset()

	for _, engine := range s.engines {
		engine.Reset()
	}

	poller := s.poller
	s.poller = nil
	s.mu.Unlock()

	if poller != nil {
		poller.Stop()
	}
}

// PollNow triggers an immediate update check, used by the filesystem
// watcher to react faster than the ticker for local repositories.
func (s *Session) PollNow() {
	s.mu.Lock()
	poller := s.poller
	s.mu.Unlock()

	if poller != nil {
		poller.Nudge()
	}
}

// refresh fetches the analysis and, if the session generation still
// matches, applies the rebuilt snapshot atomically.
func (s *Session) refresh(ctx context.Context, repoURL string, generation uint64) error {
	analysis, err := s.fetcher.Analyze(ctx, repoURL)
	if err != nil {
		return fmt.Errorf("fetch analysis: %w", err)
	}

	snapshot := BuildSnapshot(analysis)

	s.mu.Lock()

	if s.generation != generation {
		s.mu.Unlock()

		return nil
	}

	s.snapshot = &snapshot
	hook := s.onRefresh
	s.mu.Unlock()

	if hook != nil {
		hook(snapshot)
	}

	return nil
}

// check returns the poll callback for one session generation: compare the
// head hash and re-fetch on mismatch.
func (s *Session) check(repoURL string, generation uint64) func(context.Context) error {
	return func(ctx context.Context) error {
		s.mu.Lock()

		if s.generation != generation || s.snapshot == nil {
			s.mu.Unlock()

			return nil
		}

		lastHash := s.snapshot.HeadHash
		s.mu.Unlock()

		hasUpdate, err := s.fetcher.CheckForUpdate(ctx, repoURL, lastHash)
		if err != nil {
			return fmt.Errorf("update check: %w", err)
		}

		if !hasUpdate {
			return nil
		}

		return s.refresh(ctx, repoURL, generation)
	}
}
