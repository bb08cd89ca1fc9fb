// Package tracker keeps a bot's server count current from Discord gateway
// events and feeds every change to an autoposter.
package tracker

import (
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/qepting91/topgg"
	"github.com/qepting91/topgg/autoposter"
)

// Feeder consumes statistics snapshots. Both *autoposter.Autoposter and
// *autoposter.Handle satisfy it.
type Feeder interface {
	Feed(stats topgg.Stats)
}

var (
	_ Feeder = (*autoposter.Autoposter)(nil)
	_ Feeder = (*autoposter.Handle)(nil)
)

// Tracker mirrors the set of guilds the gateway reports and feeds the
// resulting server count downstream after every change. Register its
// handlers on a discordgo session with Attach, or call them directly from
// your own event dispatch.
type Tracker struct {
	mu     sync.Mutex
	guilds map[string]struct{}
	feeder Feeder
}

// New returns a Tracker feeding the given, non-nil Feeder.
func New(feeder Feeder) *Tracker {
	return &Tracker{
		guilds: make(map[string]struct{}),
		feeder: feeder,
	}
}

// Attach registers the gateway handlers on a session.
func (t *Tracker) Attach(s *discordgo.Session) {
	s.AddHandler(t.HandleReady)
	s.AddHandler(t.HandleGuildCreate)
	s.AddHandler(t.HandleGuildDelete)
}

// HandleReady replaces the guild set with the session's initial listing.
func (t *Tracker) HandleReady(s *discordgo.Session, r *discordgo.Ready) {
	t.mu.Lock()
	t.guilds = make(map[string]struct{}, len(r.Guilds))
	for _, g := range r.Guilds {
		t.guilds[g.ID] = struct{}{}
	}
	count := len(t.guilds)
	t.mu.Unlock()

	t.feed(s, count)
}

// HandleGuildCreate records a joined guild.
func (t *Tracker) HandleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	t.mu.Lock()
	t.guilds[g.ID] = struct{}{}
	count := len(t.guilds)
	t.mu.Unlock()

	t.feed(s, count)
}

// HandleGuildDelete records a left guild. Guilds that merely became
// unavailable are removed too; they re-announce through GuildCreate when
// they come back.
func (t *Tracker) HandleGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	t.mu.Lock()
	delete(t.guilds, g.ID)
	count := len(t.guilds)
	t.mu.Unlock()

	t.feed(s, count)
}

// ServerCount returns the currently tracked guild count.
func (t *Tracker) ServerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.guilds)
}

// feed publishes the count, scoping it to the session's shard when the bot
// runs sharded so the service can sum counts across shards.
func (t *Tracker) feed(s *discordgo.Session, count int) {
	stats := topgg.NewStats(count)
	if s != nil && s.ShardCount > 1 {
		shardID := s.ShardID
		stats.ShardCount = s.ShardCount
		stats.ShardID = &shardID
	}
	t.feeder.Feed(stats)
}
