package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/cgulucan/bilanco/internal/session"
)

// Evaluator defines the interface for running evaluation passes.
type Evaluator interface {
	Users(ctx context.Context) ([]string, error)
	Evaluate(ctx context.Context, username string, req session.EvalRequest) (session.Evaluation, error)
}

// AfterPassHook is called after each user's successful evaluation pass.
type AfterPassHook interface {
	Export(ctx context.Context, username string, ev session.Evaluation) error
}

// SnapshotWorker periodically runs an evaluation pass for every known
// user so interest accrues and the net-worth ledger gains a daily entry
// even when nobody opens the dashboard.
type SnapshotWorker struct {
	evaluator Evaluator
	interval  time.Duration
	hook      AfterPassHook // optional
}

// NewSnapshotWorker creates a new SnapshotWorker with an optional post-pass hook.
func NewSnapshotWorker(evaluator Evaluator, interval time.Duration, hook AfterPassHook) *SnapshotWorker {
	return &SnapshotWorker{
		evaluator: evaluator,
		interval:  interval,
		hook:      hook,
	}
}

// Run starts the snapshot worker loop. It blocks until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting")

	w.pass(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

// pass evaluates every known user once.
func (w *SnapshotWorker) pass(ctx context.Context) {
	users, err := w.evaluator.Users(ctx)
	if err != nil {
		slog.Error("SnapshotWorker: listing users failed", "error", err)
		return
	}
	if len(users) == 0 {
		slog.Info("SnapshotWorker: no users yet")
		return
	}

	for _, username := range users {
		ev, err := w.evaluator.Evaluate(ctx, username, session.EvalRequest{})
		if err != nil {
			slog.Error("SnapshotWorker: pass failed", "user", username, "error", err)
			continue
		}
		slog.Info("SnapshotWorker: pass completed", "user", username, "net", ev.Totals.Net)
		w.runHook(ctx, username, ev)
	}
}

// runHook calls the post-pass hook if one is configured.
func (w *SnapshotWorker) runHook(ctx context.Context, username string, ev session.Evaluation) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, username, ev); err != nil {
		slog.Error("SnapshotWorker: export hook failed", "user", username, "error", err)
	}
}
