package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/reposcope/pkg/linkage"
	"github.com/Sumatoshi-tech/reposcope/pkg/model"
	"github.com/Sumatoshi-tech/reposcope/pkg/viewsync"
)

var errNetwork = errors.New("network down")

// fakeFetcher scripts the collaborator: a sequence of analyses returned by
// successive Analyze calls and a sequence of update-check answers.
type fakeFetcher struct {
	mu        sync.Mutex
	analyses  []*model.Analysis
	updates   []bool
	checkErrs []error

	analyzeCalls int
	checkCalls   int

	analyzeGate chan struct{} // when non-nil, Analyze blocks until closed.
	checkDone   chan int
}

func analysisFixture(head string) *model.Analysis {
	return &model.Analysis{
		Meta: model.Meta{RepoName: "widgets"},
		FileTree: &model.FileTreeNode{
			Name: "widgets",
			Children: []*model.FileTreeNode{
				{Name: "main.go", Value: 10, Authors: []string{"alice"}},
			},
		},
		History: []model.CommitRecord{
			{Hash: head, Author: "alice", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Insertions: 10},
		},
	}
}

func (f *fakeFetcher) Analyze(ctx context.Context, _ string) (*model.Analysis, error) {
	f.mu.Lock()
	gate := f.analyzeGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.analyzeCalls++
	if len(f.analyses) == 0 {
		return nil, errNetwork
	}

	analysis := f.analyses[0]
	if len(f.analyses) > 1 {
		f.analyses = f.analyses[1:]
	}

	return analysis, nil
}

func (f *fakeFetcher) CheckForUpdate(_ context.Context, _, _ string) (bool, error) {
	f.mu.Lock()

	f.checkCalls++
	call := f.checkCalls

	var (
		update bool
		err    error
	)

	if len(f.updates) > 0 {
		update = f.updates[0]
		f.updates = f.updates[1:]
	}

	if len(f.checkErrs) > 0 {
		err = f.checkErrs[0]
		f.checkErrs = f.checkErrs[1:]
	}

	done := f.checkDone
	f.mu.Unlock()

	if done != nil {
		done <- call
	}

	return update, err
}

func TestLoadBuildsSnapshot(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{analyses: []*model.Analysis{analysisFixture("c1")}}
	s := NewSession(fetcher, WithPollInterval(time.Hour))
	defer s.Close()

	require.NoError(t, s.Load(context.Background(), "https://example.com/widgets.git"))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "widgets", snap.Meta.RepoName)
	assert.Equal(t, 10, snap.Hierarchy.Value)
	assert.Equal(t, []string{"alice"}, snap.Series.Keys)
	assert.Len(t, snap.Graph.Nodes, 1)
	assert.Equal(t, "c1", snap.HeadHash)
}

func TestSnapshotBeforeLoad(t *testing.T) {
	t.Parallel()

	s := NewSession(&fakeFetcher{})
	defer s.Close()

	_, err := s.Snapshot()
	assert.ErrorIs(t, err, ErrNoAnalysis)
}

func TestLoadFetchFailure(t *testing.T) {
	t.Parallel()

	s := NewSession(&fakeFetcher{}, WithPollInterval(time.Hour))
	defer s.Close()

	err := s.Load(context.Background(), "https://example.com/widgets.git")
	require.ErrorIs(t, err, errNetwork)

	_, snapErr := s.Snapshot()
	assert.ErrorIs(t, snapErr, ErrNoAnalysis)
}

func TestEmptyAnalysisDegradesPerStage(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{analyses: []*model.Analysis{{Meta: model.Meta{RepoName: "bare"}}}}
	s := NewSession(fetcher, WithPollInterval(time.Hour))
	defer s.Close()

	require.NoError(t, s.Load(context.Background(), "https://example.com/bare.git"))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snap.Hierarchy)
	assert.Empty(t, snap.Series.Rows)
	assert.Empty(t, snap.Graph.Nodes)
	assert.Empty(t, snap.HeadHash)
}

func TestPollRefetchesAfterThirdCheck(t *testing.T) {
	t.Parallel()

	refreshed := make(chan Snapshot, 4)
	fetcher := &fakeFetcher{
		analyses:  []*model.Analysis{analysisFixture("c1"), analysisFixture("c2")},
		updates:   []bool{false, false, true},
		checkDone: make(chan int, 16),
	}

	s := NewSession(fetcher,
		WithPollInterval(5*time.Millisecond),
		WithRefreshHook(func(snap Snapshot) { refreshed <- snap }),
	)
	defer s.Close()

	require.NoError(t, s.Load(context.Background(), "https://example.com/widgets.git"))

	// Initial load fires the hook once.
	first := <-refreshed
	assert.Equal(t, "c1", first.HeadHash)

	// Checks one and two are no-ops; the third triggers the re-fetch.
	for i := 1; i <= 3; i++ {
		select {
		case call := <-fetcher.checkDone:
			assert.Equal(t, i, call)
		case <-time.After(2 * time.Second):
			t.Fatalf("check %d never ran", i)
		}
	}

	select {
	case second := <-refreshed:
		assert.Equal(t, "c2", second.HeadHash)
	case <-time.After(2 * time.Second):
		t.Fatal("re-fetch never applied")
	}

	fetcher.mu.Lock()
	assert.Equal(t, 2, fetcher.analyzeCalls)
	fetcher.mu.Unlock()
}

func TestPollSurvivesCheckFailure(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		analyses:  []*model.Analysis{analysisFixture("c1")},
		updates:   []bool{false, false, false},
		checkErrs: []error{errNetwork},
		checkDone: make(chan int, 16),
	}

	s := NewSession(fetcher, WithPollInterval(5*time.Millisecond))
	defer s.Close()

	require.NoError(t, s.Load(context.Background(), "https://example.com/widgets.git"))

	// The first check fails; the loop keeps scheduling.
	for i := 1; i <= 3; i++ {
		select {
		case <-fetcher.checkDone:
		case <-time.After(2 * time.Second):
			t.Fatalf("check %d never ran after earlier failure", i)
		}
	}
}

func TestLoadResetsSessionState(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{analyses: []*model.Analysis{analysisFixture("c1"), analysisFixture("c9")}}
	s := NewSession(fetcher, WithPollInterval(time.Hour))
	defer s.Close()

	require.NoError(t, s.Load(context.Background(), "https://example.com/widgets.git"))

	fired := false

	s.Bus().Subscribe(linkage.KindSelectAuthor, "treemap", func(linkage.Event) { fired = true })
	s.Engine("treemap").Apply(map[string]viewsync.Geometry{"widgets/main.go": {Width: 10}})

	require.NoError(t, s.Load(context.Background(), "https://example.com/other.git"))

	s.Bus().Emit(linkage.KindSelectAuthor, "alice", "graph")
	assert.False(t, fired, "subscriptions must not survive a new analysis")
	assert.Equal(t, 0, s.Engine("treemap").Len(), "geometry must not survive a new analysis")
}

func TestStaleFetchIgnored(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	slow := &fakeFetcher{
		analyses:    []*model.Analysis{analysisFixture("stale")},
		analyzeGate: gate,
	}

	s := NewSession(slow, WithPollInterval(time.Hour))
	defer s.Close()

	firstDone := make(chan error, 1)

	go func() {
		firstDone <- s.Load(context.Background(), "https://example.com/old.git")
	}()

	// Wait until the first load is blocked inside Analyze, then start a
	// newer one.
	time.Sleep(20 * time.Millisecond)

	slow.mu.Lock()
	slow.analyzeGate = nil
	slow.analyses = []*model.Analysis{analysisFixture("fresh"), analysisFixture("stale")}
	slow.mu.Unlock()

	require.NoError(t, s.Load(context.Background(), "https://example.com/new.git"))

	// Release the stale fetch; its response must be discarded.
	close(gate)
	require.NoError(t, <-firstDone)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "fresh", snap.HeadHash)
}

func TestZeroPollIntervalDisablesPolling(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{analyses: []*model.Analysis{analysisFixture("c1")}}
	s := NewSession(fetcher, WithPollInterval(0))
	defer s.Close()

	require.NoError(t, s.Load(context.Background(), "https://example.com/repo.git"))

	// No poller runs; a nudge has nowhere to go and must not panic.
	s.PollNow()
	time.Sleep(20 * time.Millisecond)

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Zero(t, fetcher.checkCalls)
}

func TestEnginePerView(t *testing.T) {
	t.Parallel()

	s := NewSession(&fakeFetcher{})
	defer s.Close()

	treemap := s.Engine("treemap")
	graph := s.Engine("graph")

	assert.NotSame(t, treemap, graph)
	assert.Same(t, treemap, s.Engine("treemap"))
}
