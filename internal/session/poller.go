package session

import (
	"context"
	"log/slog"
	"time"
)

// Poller schedules periodic update checks. The next check is scheduled only
// after the current one finishes — success, no-op, or failure — so checks
// never overlap. Failures are logged and swallowed; the loop is never
// aborted by a failing check.
type Poller struct {
	interval time.Duration
	check    func(context.Context) error
	nudge    chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPoller builds a poller around the check callback. Start begins the
// loop; Stop cancels the pending check timer and waits for the loop to end.
func NewPoller(interval time.Duration, check func(context.Context) error) *Poller {
	return &Poller{
		interval: interval,
		check:    check,
		nudge:    make(chan struct{}, 1),
	}
}

// Start launches the poll loop.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)
}

// Stop cancels the pending check and waits for the loop to exit. An
// in-flight check is not aborted mid-call; Stop returns once it completes.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}

	p.cancel()
	<-p.done
	p.cancel = nil
}

// Nudge requests an immediate check ahead of the timer. Nudges during a
// running check coalesce into at most one extra check.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-p.nudge:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		if err := p.check(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("poll check failed", "error", err)
		}

		timer.Reset(p.interval)
	}
}
