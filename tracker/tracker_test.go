package tracker

import (
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/topgg"
)

type fakeFeeder struct {
	mu    sync.Mutex
	feeds []topgg.Stats
}

var _ Feeder = (*fakeFeeder)(nil)

func (f *fakeFeeder) Feed(stats topgg.Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds = append(f.feeds, stats)
}

func (f *fakeFeeder) last(t *testing.T) topgg.Stats {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.feeds)
	return f.feeds[len(f.feeds)-1]
}

func guild(id string) *discordgo.Guild {
	return &discordgo.Guild{ID: id}
}

func TestReadySeedsGuildSet(t *testing.T) {
	feeder := &fakeFeeder{}
	tr := New(feeder)

	tr.HandleReady(nil, &discordgo.Ready{
		Guilds: []*discordgo.Guild{guild("1"), guild("2"), guild("3")},
	})

	assert.Equal(t, 3, tr.ServerCount())
	assert.Equal(t, 3, feeder.last(t).ServerCount)
}

func TestReadyReplacesPreviousSet(t *testing.T) {
	feeder := &fakeFeeder{}
	tr := New(feeder)

	tr.HandleGuildCreate(nil, &discordgo.GuildCreate{Guild: guild("stale")})
	tr.HandleReady(nil, &discordgo.Ready{
		Guilds: []*discordgo.Guild{guild("1"), guild("2")},
	})

	assert.Equal(t, 2, tr.ServerCount())
}

func TestGuildCreateAndDelete(t *testing.T) {
	feeder := &fakeFeeder{}
	tr := New(feeder)

	tr.HandleGuildCreate(nil, &discordgo.GuildCreate{Guild: guild("1")})
	tr.HandleGuildCreate(nil, &discordgo.GuildCreate{Guild: guild("2")})
	assert.Equal(t, 2, tr.ServerCount())

	// Duplicate create events do not inflate the count.
	tr.HandleGuildCreate(nil, &discordgo.GuildCreate{Guild: guild("2")})
	assert.Equal(t, 2, tr.ServerCount())

	tr.HandleGuildDelete(nil, &discordgo.GuildDelete{Guild: guild("1")})
	assert.Equal(t, 1, tr.ServerCount())
	assert.Equal(t, 1, feeder.last(t).ServerCount)

	// Deleting an unknown guild is a no-op.
	tr.HandleGuildDelete(nil, &discordgo.GuildDelete{Guild: guild("ghost")})
	assert.Equal(t, 1, tr.ServerCount())
}

func TestEveryChangeFeeds(t *testing.T) {
	feeder := &fakeFeeder{}
	tr := New(feeder)

	tr.HandleReady(nil, &discordgo.Ready{Guilds: []*discordgo.Guild{guild("1")}})
	tr.HandleGuildCreate(nil, &discordgo.GuildCreate{Guild: guild("2")})
	tr.HandleGuildDelete(nil, &discordgo.GuildDelete{Guild: guild("2")})

	feeder.mu.Lock()
	defer feeder.mu.Unlock()
	require.Len(t, feeder.feeds, 3)
	assert.Equal(t, 1, feeder.feeds[0].ServerCount)
	assert.Equal(t, 2, feeder.feeds[1].ServerCount)
	assert.Equal(t, 1, feeder.feeds[2].ServerCount)
}

func TestShardedSessionScopesStats(t *testing.T) {
	feeder := &fakeFeeder{}
	tr := New(feeder)

	session := &discordgo.Session{ShardCount: 4, ShardID: 2}
	tr.HandleGuildCreate(session, &discordgo.GuildCreate{Guild: guild("1")})

	stats := feeder.last(t)
	assert.Equal(t, 1, stats.ServerCount)
	assert.Equal(t, 4, stats.ShardCount)
	require.NotNil(t, stats.ShardID)
	assert.Equal(t, 2, *stats.ShardID)
}

func TestUnshardedSessionLeavesShardFieldsEmpty(t *testing.T) {
	feeder := &fakeFeeder{}
	tr := New(feeder)

	session := &discordgo.Session{ShardCount: 1}
	tr.HandleGuildCreate(session, &discordgo.GuildCreate{Guild: guild("1")})

	stats := feeder.last(t)
	assert.Zero(t, stats.ShardCount)
	assert.Nil(t, stats.ShardID)
}
