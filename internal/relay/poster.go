package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qepting91/topgg"
	"github.com/qepting91/topgg/autoposter"
)

// NewPoster selects the posting backend for the configured mode.
func NewPoster(cfg *Config, logger *slog.Logger) (autoposter.Poster, error) {
	switch cfg.Mode {
	case ModeLive:
		client, err := topgg.New(cfg.Token, topgg.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("creating API client: %w", err)
		}
		return client, nil
	case ModeDry:
		return NewDryRunPoster(logger), nil
	default:
		return nil, fmt.Errorf("unknown mode: %s (use %q or %q)", cfg.Mode, ModeLive, ModeDry)
	}
}

// DryRunPoster logs snapshots instead of publishing them. Useful for
// staging deployments that must not touch the real listing.
type DryRunPoster struct {
	logger *slog.Logger
}

var _ autoposter.Poster = (*DryRunPoster)(nil)

func NewDryRunPoster(logger *slog.Logger) *DryRunPoster {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRunPoster{logger: logger}
}

func (p *DryRunPoster) PostStats(ctx context.Context, stats topgg.Stats) error {
	p.logger.InfoContext(ctx, "dry-run stats post",
		slog.Int("server_count", stats.ServerCount),
		slog.Int("shard_count", stats.ShardCount))
	return nil
}
