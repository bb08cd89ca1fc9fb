package topgg

import (
	"fmt"
	"strconv"
	"time"
)

// Bot is a Discord bot listed on the service.
type Bot struct {
	ID               Snowflake   `json:"id"`
	Username         string      `json:"username"`
	Discriminator    string      `json:"discriminator"`
	Avatar           string      `json:"avatar,omitempty"`
	DefAvatar        string      `json:"defAvatar,omitempty"`
	Lib              string      `json:"lib,omitempty"`
	Prefix           string      `json:"prefix"`
	ShortDesc        string      `json:"shortdesc"`
	LongDesc         string      `json:"longdesc,omitempty"`
	Tags             []string    `json:"tags"`
	Website          string      `json:"website,omitempty"`
	Support          string      `json:"support,omitempty"`
	GitHub           string      `json:"github,omitempty"`
	Owners           []Snowflake `json:"owners"`
	Guilds           []Snowflake `json:"guilds"`
	Invite           string      `json:"invite,omitempty"`
	BannerURL        string      `json:"bannerUrl,omitempty"`
	Date             time.Time   `json:"date"`
	Certified        bool        `json:"certifiedBot"`
	Vanity           string      `json:"vanity,omitempty"`
	Shards           []int       `json:"shards,omitempty"`
	Votes            int         `json:"points"`
	MonthlyVotes     int         `json:"monthlyPoints"`
	DonateBotGuildID Snowflake   `json:"donatebotguildid,omitempty"`
}

// AvatarURL returns the CDN URL of the bot's avatar image.
func (b *Bot) AvatarURL() string {
	return avatarURL(b.Avatar, b.Discriminator, b.ID)
}

// URL returns the bot's listing page, preferring its vanity slug.
func (b *Bot) URL() string {
	if b.Vanity != "" {
		return "https://top.gg/bot/" + b.Vanity
	}
	return "https://top.gg/bot/" + b.ID.String()
}

// CreatedAt returns the bot's creation time derived from its ID.
func (b *Bot) CreatedAt() time.Time {
	return b.ID.Time()
}

// botsResponse is the envelope of the search endpoint.
type botsResponse struct {
	Results []Bot `json:"results"`
}

// BotStats are the statistics the service has on record for a bot.
type BotStats struct {
	ServerCount *int  `json:"server_count,omitempty"`
	Shards      []int `json:"shards,omitempty"`
	ShardCount  *int  `json:"shard_count,omitempty"`
}

// Stats is a statistics snapshot posted to the service. The zero value is a
// valid placeholder but carries no server count, and PostStats rejects it.
type Stats struct {
	ServerCount int   `json:"server_count"`
	Shards      []int `json:"shards,omitempty"`
	ShardCount  int   `json:"shard_count,omitempty"`
	ShardID     *int  `json:"shard_id,omitempty"`
}

// NewStats returns a snapshot carrying a plain server count.
func NewStats(serverCount int) Stats {
	return Stats{ServerCount: serverCount}
}

// NewShardedStats returns a snapshot built from per-shard server counts. The
// total server count is the sum over shards. A non-negative shardIndex marks
// which shard is posting and must be in range; pass -1 to omit it.
func NewShardedStats(shards []int, shardIndex int) (Stats, error) {
	stats := Stats{
		Shards:     shards,
		ShardCount: len(shards),
	}
	for _, count := range shards {
		stats.ServerCount += count
	}
	if shardIndex >= 0 {
		if shardIndex >= len(shards) {
			return Stats{}, fmt.Errorf("shard index %d out of range for %d shards", shardIndex, len(shards))
		}
		idx := shardIndex
		stats.ShardID = &idx
	}
	return stats, nil
}

type votedResponse struct {
	Voted int `json:"voted"`
}

type weekendResponse struct {
	IsWeekend bool `json:"is_weekend"`
}

// avatarURL builds a Discord CDN avatar URL. Animated hashes carry an "a_"
// prefix and resolve to GIFs; accounts without an avatar fall back to one of
// the five default embeds keyed by discriminator.
func avatarURL(hash, discriminator string, id Snowflake) string {
	if hash != "" {
		ext := "png"
		if len(hash) > 2 && hash[:2] == "a_" {
			ext = "gif"
		}
		return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.%s?size=1024", id, hash, ext)
	}
	disc, _ := strconv.Atoi(discriminator)
	return fmt.Sprintf("https://cdn.discordapp.com/embed/avatars/%d.png", disc%5)
}
