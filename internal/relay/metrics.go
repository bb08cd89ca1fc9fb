package relay

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qepting91/topgg"
	"github.com/qepting91/topgg/autoposter"
)

// Metrics holds the relay's counters on a private registry so the /metrics
// endpoint exposes only what the relay itself records.
type Metrics struct {
	registry *prometheus.Registry

	VotesReceived     prometheus.Counter
	StatsPosts        prometheus.Counter
	StatsPostFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		VotesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_votes_received_total",
			Help: "Authenticated webhook votes received.",
		}),
		StatsPosts: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_stats_posts_total",
			Help: "Statistics snapshots published upstream.",
		}),
		StatsPostFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_stats_post_failures_total",
			Help: "Statistics posts that failed.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CountingPoster wraps a posting backend with outcome counters. The
// autoposter swallows post errors, so these counters are the only place
// failures stay visible.
type CountingPoster struct {
	next    autoposter.Poster
	metrics *Metrics
}

var _ autoposter.Poster = (*CountingPoster)(nil)

func NewCountingPoster(next autoposter.Poster, metrics *Metrics) *CountingPoster {
	return &CountingPoster{next: next, metrics: metrics}
}

func (p *CountingPoster) PostStats(ctx context.Context, stats topgg.Stats) error {
	if err := p.next.PostStats(ctx, stats); err != nil {
		p.metrics.StatsPostFailures.Inc()
		return err
	}
	p.metrics.StatsPosts.Inc()
	return nil
}
