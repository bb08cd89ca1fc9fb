// Package autoposter publishes statistics snapshots on a fixed interval.
//
// An Autoposter owns a background flusher and a single-slot mailbox. Any
// number of goroutines feed snapshots through its Handle; each feed
// overwrites the previous unposted snapshot, so the flusher always publishes
// the most recent one. A feed that arrives while the flusher is idle is
// posted promptly; later posts are spaced at least the configured interval
// apart. Posting is best effort: failures are dropped and the next flush
// simply tries again with whatever snapshot is current.
//
// Run at most one Autoposter per client, otherwise the copies compete and
// publish duplicate snapshots.
package autoposter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qepting91/topgg"
)

// MinInterval is the shortest allowed posting interval. The service ignores
// stats posted more often than once per fifteen minutes.
const MinInterval = 15 * time.Minute

// Poster publishes one statistics snapshot. *topgg.Client satisfies it.
type Poster interface {
	PostStats(ctx context.Context, stats topgg.Stats) error
}

var _ Poster = (*topgg.Client)(nil)

// mailbox is the shared slot between feeders and the flusher. It never
// queues: a feed overwrites whatever the flusher has not consumed yet. The
// wake channel holds at most one token so repeated feeds collapse into a
// single wake-up.
type mailbox struct {
	mu    sync.Mutex
	stats topgg.Stats
	ready bool
	wake  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) put(stats topgg.Stats) {
	m.mu.Lock()
	m.stats = stats
	m.ready = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// take returns the pending snapshot and clears readiness. ok is false when
// nothing new arrived since the last take, which happens when a wake token
// outlives the feed it announced.
func (m *mailbox) take() (topgg.Stats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return topgg.Stats{}, false
	}
	m.ready = false
	return m.stats, true
}

// Handle feeds snapshots to a running Autoposter. Handles are cheap shared
// references: copy or pass them to as many goroutines as needed.
type Handle struct {
	box *mailbox
}

// Feed replaces the pending snapshot and wakes the flusher. It never blocks
// beyond the mailbox lock and never fails; whether the snapshot is actually
// delivered is not observable from here.
func (h *Handle) Feed(stats topgg.Stats) {
	h.box.put(stats)
}

// Autoposter runs the background flusher. Create one with New, feed it
// through Feed or Handle, and Stop it when done.
type Autoposter struct {
	handle   *Handle
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New validates the interval, starts the flusher and returns the running
// Autoposter. Intervals below MinInterval are a configuration mistake and
// are rejected outright rather than clamped.
func New(poster Poster, interval time.Duration) (*Autoposter, error) {
	if poster == nil {
		return nil, fmt.Errorf("autoposter: nil poster")
	}
	if interval < MinInterval {
		return nil, fmt.Errorf("autoposter: interval %s is below the %s minimum", interval, MinInterval)
	}

	box := newMailbox()
	ctx, cancel := context.WithCancel(context.Background())
	ap := &Autoposter{
		handle: &Handle{box: box},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(ap.done)
		run(ctx, poster, box, interval)
	}()

	return ap, nil
}

// run is the flush loop: block until a feed wakes it, publish the snapshot,
// then hold off for the interval before listening again. A wake without a
// pending snapshot is skipped without posting or sleeping, and a wake that
// races with cancellation loses to it.
func run(ctx context.Context, poster Poster, box *mailbox, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-box.wake:
		}

		// Both arms above can be ready at once and the select picks
		// arbitrarily; cancellation must win.
		if ctx.Err() != nil {
			return
		}

		stats, ok := box.take()
		if !ok {
			continue
		}

		// Best effort: a failed post is dropped, the next cycle retries
		// with the then-current snapshot.
		_ = poster.PostStats(ctx, stats)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Feed replaces the pending snapshot, waking the flusher if it is idle.
func (a *Autoposter) Feed(stats topgg.Stats) {
	a.handle.Feed(stats)
}

// Handle returns the feeder capability for distribution to producers.
func (a *Autoposter) Handle() *Handle {
	return a.handle
}

// Stop cancels the flusher. It does not wait for an in-flight post; the
// post's context is cancelled along with the loop. Feeding a stopped
// Autoposter is harmless. Stop is idempotent.
func (a *Autoposter) Stop() {
	a.stopOnce.Do(a.cancel)
}

// Done is closed once the flusher has exited.
func (a *Autoposter) Done() <-chan struct{} {
	return a.done
}
