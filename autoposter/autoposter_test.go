package autoposter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/topgg"
)

type postCall struct {
	stats topgg.Stats
	at    time.Time
}

// fakePoster records every post. If unblock is set, PostStats waits on it
// before returning, letting tests hold the flusher inside a post.
type fakePoster struct {
	mu      sync.Mutex
	calls   []postCall
	err     error
	unblock chan struct{}
}

var _ Poster = (*fakePoster)(nil)

func (f *fakePoster) PostStats(ctx context.Context, stats topgg.Stats) error {
	f.mu.Lock()
	f.calls = append(f.calls, postCall{stats: stats, at: time.Now()})
	unblock := f.unblock
	f.mu.Unlock()

	if unblock != nil {
		select {
		case <-unblock:
		case <-ctx.Done():
		}
	}
	return f.err
}

func (f *fakePoster) snapshot() []postCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]postCall(nil), f.calls...)
}

func (f *fakePoster) callCount() int {
	return len(f.snapshot())
}

// startRun drives the flush loop with an arbitrary interval, bypassing the
// minimum New enforces so tests finish in milliseconds.
func startRun(t *testing.T, poster Poster, box *mailbox, interval time.Duration) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(ctx, poster, box, interval)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name     string
		poster   Poster
		interval time.Duration
		wantErr  bool
	}{
		{name: "nil poster", poster: nil, interval: MinInterval, wantErr: true},
		{name: "zero interval", poster: &fakePoster{}, interval: 0, wantErr: true},
		{name: "negative interval", poster: &fakePoster{}, interval: -time.Minute, wantErr: true},
		{name: "one second short", poster: &fakePoster{}, interval: MinInterval - time.Second, wantErr: true},
		{name: "exact minimum", poster: &fakePoster{}, interval: MinInterval, wantErr: false},
		{name: "above minimum", poster: &fakePoster{}, interval: time.Hour, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap, err := New(tt.poster, tt.interval)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, ap)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, ap)
			ap.Stop()
			<-ap.Done()
		})
	}
}

func TestRejectedIntervalPostsNothing(t *testing.T) {
	fake := &fakePoster{}
	ap, err := New(fake, time.Second)
	require.Error(t, err)
	require.Nil(t, ap)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, fake.callCount())
}

func TestFirstFeedPostsPromptly(t *testing.T) {
	fake := &fakePoster{}
	box := newMailbox()
	startRun(t, fake, box, time.Hour)

	h := &Handle{box: box}
	fed := topgg.NewStats(5)
	start := time.Now()
	h.Feed(fed)

	require.Eventually(t, func() bool { return fake.callCount() == 1 }, time.Second, time.Millisecond)

	calls := fake.snapshot()
	assert.Equal(t, fed, calls[0].stats)
	assert.Less(t, calls[0].at.Sub(start), 500*time.Millisecond)
}

func TestPostsSpacedByInterval(t *testing.T) {
	const interval = 80 * time.Millisecond

	fake := &fakePoster{}
	box := newMailbox()
	startRun(t, fake, box, interval)

	h := &Handle{box: box}
	h.Feed(topgg.NewStats(5))

	require.Eventually(t, func() bool { return fake.callCount() == 1 }, time.Second, time.Millisecond)

	// Lands mid-sleep: must not trigger a post of its own.
	h.Feed(topgg.NewStats(9))
	time.Sleep(interval / 4)
	assert.Equal(t, 1, fake.callCount())

	require.Eventually(t, func() bool { return fake.callCount() == 2 }, time.Second, time.Millisecond)

	calls := fake.snapshot()
	assert.Equal(t, 9, calls[1].stats.ServerCount)
	assert.GreaterOrEqual(t, calls[1].at.Sub(calls[0].at), interval)
}

func TestOverwritesCollapseToLastValue(t *testing.T) {
	const interval = 60 * time.Millisecond

	fake := &fakePoster{}
	box := newMailbox()
	startRun(t, fake, box, interval)

	h := &Handle{box: box}
	h.Feed(topgg.NewStats(1))
	require.Eventually(t, func() bool { return fake.callCount() == 1 }, time.Second, time.Millisecond)

	// All land during one sleep window; only the last survives.
	h.Feed(topgg.NewStats(2))
	h.Feed(topgg.NewStats(3))
	h.Feed(topgg.NewStats(4))

	require.Eventually(t, func() bool { return fake.callCount() == 2 }, time.Second, time.Millisecond)

	calls := fake.snapshot()
	assert.Equal(t, 4, calls[1].stats.ServerCount)

	// Nothing left to flush afterwards.
	time.Sleep(2 * interval)
	assert.Equal(t, 2, fake.callCount())
}

func TestStaleWakeDoesNotPost(t *testing.T) {
	fake := &fakePoster{}
	box := newMailbox()
	startRun(t, fake, box, 30*time.Millisecond)

	h := &Handle{box: box}
	h.Feed(topgg.NewStats(5))
	require.Eventually(t, func() bool { return fake.callCount() == 1 }, time.Second, time.Millisecond)

	// A wake token with no snapshot behind it, as left behind when a feed
	// slips in between wake-up and mailbox read.
	box.wake <- struct{}{}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, fake.callCount())
}

func TestFeedDuringPostIsFlushedNextCycle(t *testing.T) {
	const interval = 40 * time.Millisecond

	unblock := make(chan struct{})
	fake := &fakePoster{unblock: unblock}
	box := newMailbox()
	startRun(t, fake, box, interval)

	h := &Handle{box: box}
	h.Feed(topgg.NewStats(5))

	require.Eventually(t, func() bool { return fake.callCount() == 1 }, time.Second, time.Millisecond)

	// The flusher is stuck inside PostStats; feed a replacement.
	h.Feed(topgg.NewStats(7))
	close(unblock)

	require.Eventually(t, func() bool { return fake.callCount() == 2 }, time.Second, time.Millisecond)
	calls := fake.snapshot()
	assert.Equal(t, 5, calls[0].stats.ServerCount)
	assert.Equal(t, 7, calls[1].stats.ServerCount)
}

func TestConcurrentFeedersPostLastCommitted(t *testing.T) {
	fake := &fakePoster{}
	box := newMailbox()

	h := &Handle{box: box}
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(count int) {
			defer wg.Done()
			h.Feed(topgg.NewStats(count))
		}(i)
	}
	wg.Wait()

	// Whichever write was committed last is what the flusher must publish.
	box.mu.Lock()
	want := box.stats
	box.mu.Unlock()

	startRun(t, fake, box, time.Hour)

	require.Eventually(t, func() bool { return fake.callCount() == 1 }, time.Second, time.Millisecond)
	calls := fake.snapshot()
	assert.Equal(t, want, calls[0].stats)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fake.callCount())
}

func TestPostFailureIsSwallowed(t *testing.T) {
	const interval = 40 * time.Millisecond

	fake := &fakePoster{err: assert.AnError}
	box := newMailbox()
	startRun(t, fake, box, interval)

	h := &Handle{box: box}
	h.Feed(topgg.NewStats(5))
	require.Eventually(t, func() bool { return fake.callCount() == 1 }, time.Second, time.Millisecond)

	// The loop survives the failure and keeps flushing later feeds.
	h.Feed(topgg.NewStats(6))
	require.Eventually(t, func() bool { return fake.callCount() == 2 }, time.Second, time.Millisecond)
}

func TestStopHaltsPosting(t *testing.T) {
	fake := &fakePoster{}
	ap, err := New(fake, MinInterval)
	require.NoError(t, err)

	ap.Feed(topgg.NewStats(5))
	require.Eventually(t, func() bool { return fake.callCount() == 1 }, time.Second, time.Millisecond)

	ap.Stop()
	<-ap.Done()

	ap.Feed(topgg.NewStats(9))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fake.callCount())

	// Stop twice is fine.
	ap.Stop()
}

func TestStopBeforeFirstFlushIsClean(t *testing.T) {
	fake := &fakePoster{}
	ap, err := New(fake, MinInterval)
	require.NoError(t, err)

	ap.Stop()
	<-ap.Done()

	ap.Feed(topgg.NewStats(5))
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fake.callCount())
}

func TestStopWithPendingFeedNeverPosts(t *testing.T) {
	// A pending wake and a finished cancellation are ready at the same
	// moment. The loop must exit without posting, whichever arm the select
	// happens to pick, so repeat enough times to see both picks.
	for i := 0; i < 400; i++ {
		fake := &fakePoster{}
		box := newMailbox()
		box.put(topgg.NewStats(5))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		run(ctx, fake, box, time.Millisecond)
		require.Zero(t, fake.callCount())
	}
}

func TestHandleIsSharedAcrossAccessors(t *testing.T) {
	fake := &fakePoster{}
	ap, err := New(fake, MinInterval)
	require.NoError(t, err)
	defer ap.Stop()

	assert.Same(t, ap.Handle(), ap.Handle())

	// Feeding through the handle reaches the same mailbox as ap.Feed.
	ap.Handle().Feed(topgg.NewStats(3))
	require.Eventually(t, func() bool { return fake.callCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 3, fake.snapshot()[0].stats.ServerCount)
}

func TestMailboxTake(t *testing.T) {
	box := newMailbox()

	_, ok := box.take()
	assert.False(t, ok)

	box.put(topgg.NewStats(1))
	box.put(topgg.NewStats(2))
	box.put(topgg.NewStats(3))

	stats, ok := box.take()
	require.True(t, ok)
	assert.Equal(t, 3, stats.ServerCount)

	_, ok = box.take()
	assert.False(t, ok)
}
