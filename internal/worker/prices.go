package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/cgulucan/bilanco/internal/domain"
)

// PriceRefresher defines the interface for refreshing the price snapshot.
type PriceRefresher interface {
	Current(ctx context.Context, force bool) domain.PriceSnapshot
}

// PriceWorker periodically refreshes the external price feed so the cache
// and the stored quote fallback stay warm.
type PriceWorker struct {
	prices   PriceRefresher
	interval time.Duration
}

// NewPriceWorker creates a new PriceWorker.
func NewPriceWorker(prices PriceRefresher, interval time.Duration) *PriceWorker {
	return &PriceWorker{
		prices:   prices,
		interval: interval,
	}
}

// Run starts the price worker loop. It blocks until the context is cancelled.
func (w *PriceWorker) Run(ctx context.Context) {
	slog.Info("PriceWorker: starting")

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("PriceWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *PriceWorker) refresh(ctx context.Context) {
	snap := w.prices.Current(ctx, true)
	if len(snap.Prices) == 0 {
		slog.Warn("PriceWorker: refresh returned no quotes", "notes", snap.Notes)
		return
	}
	slog.Info("PriceWorker: refresh completed", "quotes", len(snap.Prices))
}
