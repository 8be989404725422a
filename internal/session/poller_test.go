package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollerNudgeRunsAheadOfTimer(t *testing.T) {
	t.Parallel()

	ran := make(chan struct{}, 8)
	p := NewPoller(time.Hour, func(context.Context) error {
		ran <- struct{}{}

		return nil
	})

	p.Start()
	defer p.Stop()

	p.Nudge()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("nudged check never ran")
	}
}

func TestPollerStopHaltsLoop(t *testing.T) {
	t.Parallel()

	var checks atomic.Int64

	p := NewPoller(time.Millisecond, func(context.Context) error {
		checks.Add(1)

		return nil
	})

	p.Start()
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	after := checks.Load()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, after, checks.Load())

	// Stop is idempotent.
	p.Stop()
}

func TestPollerChecksNeverOverlap(t *testing.T) {
	t.Parallel()

	var inFlight, maxInFlight atomic.Int64

	p := NewPoller(time.Millisecond, func(context.Context) error {
		cur := inFlight.Add(1)
		if cur > maxInFlight.Load() {
			maxInFlight.Store(cur)
		}

		time.Sleep(3 * time.Millisecond)
		inFlight.Add(-1)

		return nil
	})

	p.Start()

	for i := 0; i < 20; i++ {
		p.Nudge()
		time.Sleep(time.Millisecond)
	}

	p.Stop()

	assert.Equal(t, int64(1), maxInFlight.Load())
}

// Not parallel: swaps the process-wide default logger.
func TestPollerLogsFailuresViaSlog(t *testing.T) {
	var buf bytes.Buffer

	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	defer slog.SetDefault(prev)

	ran := make(chan struct{}, 8)
	p := NewPoller(time.Hour, func(context.Context) error {
		ran <- struct{}{}

		return errors.New("remote unreachable")
	})

	p.Start()

	p.Nudge()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("nudged check never ran")
	}

	p.Stop()

	out := buf.String()
	assert.Contains(t, out, "poll check failed")
	assert.Contains(t, out, "remote unreachable")
}
