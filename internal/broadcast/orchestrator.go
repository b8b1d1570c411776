// Package broadcast ties the fetch → dedup → deliver → mark pipeline
// together for both news and signal cycles.
//
// Delivery ordering is deliberate: an item is recorded as sent after its
// delivery attempts complete, and it is recorded even when every target
// failed. A permanently-broken target must not cause a resend storm; the
// cost is possibly losing a message to that one target. Because the
// membership check always precedes delivery, a cycle killed mid-flight
// leaves the store consistent: unmarked items are simply retried next
// cycle.
package broadcast

import (
	"context"
	"log/slog"
	"time"

	"finintelbot/internal/metrics"
	"finintelbot/internal/model"
	"finintelbot/internal/notification"
	"finintelbot/internal/store"
)

// FeedSource supplies news items for a cycle.
type FeedSource interface {
	Fetch(ctx context.Context) ([]model.NewsItem, error)
}

// CandleSource supplies the candle series for a signal cycle.
type CandleSource interface {
	Fetch(ctx context.Context) (model.Series, error)
}

// SignalSource evaluates a candle series into zero or more signals.
type SignalSource interface {
	Generate(series model.Series, now time.Time) []model.Signal
}

// Config holds the orchestrator's per-cycle policy knobs.
type Config struct {
	// FreshnessWindow drops news older than this relative to now.
	FreshnessWindow time.Duration
	// MaxPerCycle caps successfully-processed news items per cycle.
	MaxPerCycle int
	// SignalEnabled gates the whole signal cycle.
	SignalEnabled bool
	// Loc is the timezone freshness is evaluated in.
	Loc *time.Location
}

// Orchestrator runs the two broadcast cycles. It never bypasses the dedup
// store to write delivery state anywhere else.
type Orchestrator struct {
	cfg     Config
	dedup   store.Dedup
	feed    FeedSource
	candles CandleSource
	signals SignalSource
	targets []notification.Notifier
	prom    *metrics.Metrics

	now func() time.Time // overridable in tests
}

// New creates an orchestrator. prom may be nil (metrics disabled).
func New(cfg Config, dedup store.Dedup, feed FeedSource, candles CandleSource, signals SignalSource, targets []notification.Notifier, prom *metrics.Metrics) *Orchestrator {
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return &Orchestrator{
		cfg:     cfg,
		dedup:   dedup,
		feed:    feed,
		candles: candles,
		signals: signals,
		targets: targets,
		prom:    prom,
		now:     time.Now,
	}
}

// RunNewsCycle executes one news broadcast cycle.
func (o *Orchestrator) RunNewsCycle(ctx context.Context) {
	start := time.Now()
	defer o.observeCycle("news", start)

	items, err := o.feed.Fetch(ctx)
	if err != nil {
		// Treated as empty: the next scheduled cycle retries naturally.
		slog.Warn("news fetch failed", "err", err)
		if o.prom != nil {
			o.prom.FetchErrorsTotal.WithLabelValues("feed").Inc()
		}
		return
	}

	now := o.now().In(o.cfg.Loc)
	sent := 0
	for _, item := range items {
		if item.Link == "" {
			continue
		}

		exists, err := o.dedup.Exists(ctx, store.NamespaceNews, item.Link)
		if err != nil {
			// Membership unknown: skip rather than risk a double send.
			slog.Error("dedup check failed", "url", item.Link, "err", err)
			continue
		}
		if exists {
			if o.prom != nil {
				o.prom.DedupHitsTotal.WithLabelValues(string(store.NamespaceNews)).Inc()
			}
			continue
		}

		if !item.PublishedAt.IsZero() && now.Sub(item.PublishedAt.In(o.cfg.Loc)) > o.cfg.FreshnessWindow {
			if o.prom != nil {
				o.prom.FreshnessSkipped.Inc()
			}
			continue
		}

		o.deliver(ctx, FormatNews(item))
		if _, err := o.dedup.RecordIfAbsent(ctx, store.NamespaceNews, item.Link, ""); err != nil {
			slog.Error("mark sent failed", "url", item.Link, "err", err)
		}
		if o.prom != nil {
			o.prom.NewsSentTotal.Inc()
		}
		sent++
		if sent >= o.cfg.MaxPerCycle {
			break
		}
	}

	slog.Info("news cycle done", "sent", sent, "fetched", len(items))
}

// RunSignalCycle executes one signal broadcast cycle.
func (o *Orchestrator) RunSignalCycle(ctx context.Context) {
	if !o.cfg.SignalEnabled {
		return
	}
	start := time.Now()
	defer o.observeCycle("signal", start)

	series, err := o.candles.Fetch(ctx)
	if err != nil {
		slog.Warn("candle fetch failed", "err", err)
		if o.prom != nil {
			o.prom.FetchErrorsTotal.WithLabelValues("candles").Inc()
		}
		series = nil // no signal this cycle
	}

	signals := o.signals.Generate(series, o.now())
	if len(signals) == 0 {
		slog.Info("signal cycle done", "sent", 0)
		return
	}

	sent := 0
	for _, sig := range signals {
		key, payload := store.Fingerprint(sig)

		exists, err := o.dedup.Exists(ctx, store.NamespaceSignals, key)
		if err != nil {
			slog.Error("dedup check failed", "fingerprint", key, "err", err)
			continue
		}
		if exists {
			if o.prom != nil {
				o.prom.DedupHitsTotal.WithLabelValues(string(store.NamespaceSignals)).Inc()
			}
			continue
		}

		o.deliver(ctx, FormatSignal(sig))
		if _, err := o.dedup.RecordIfAbsent(ctx, store.NamespaceSignals, key, payload); err != nil {
			slog.Error("mark sent failed", "fingerprint", key, "err", err)
		}
		if o.prom != nil {
			o.prom.SignalsSentTotal.Inc()
		}
		sent++
	}

	slog.Info("signal cycle done", "sent", sent)
}

// deliver sends text to every target. Failures are logged per target and
// never abort delivery to the remaining targets.
func (o *Orchestrator) deliver(ctx context.Context, text string) {
	for _, target := range o.targets {
		if err := target.Send(ctx, text); err != nil {
			slog.Error("send failed", "target", target.Name(), "err", err)
			if o.prom != nil {
				o.prom.SendFailuresTotal.WithLabelValues(target.Name()).Inc()
			}
		}
	}
}

func (o *Orchestrator) observeCycle(job string, start time.Time) {
	if o.prom == nil {
		return
	}
	o.prom.CyclesTotal.WithLabelValues(job).Inc()
	o.prom.CycleDur.WithLabelValues(job).Observe(time.Since(start).Seconds())
}
