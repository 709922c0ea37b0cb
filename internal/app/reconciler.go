package app

import (
	"context"
	"time"
)

// Reconciler retries calendar sync for bookings that are still pending or
// failed. Only bookings older than the sync timeout are picked up so that an
// in-flight request is not duplicated.
type Reconciler struct {
	app         *App
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func (a *App) NewReconciler(interval time.Duration, batchSize, maxAttempts int) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Reconciler{app: a, interval: interval, batchSize: batchSize, maxAttempts: maxAttempts}
}

func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			synced, failed, err := r.SyncPending(ctx)
			if err != nil {
				r.app.log.Error("Calendar reconcile failed", "error", err)
				continue
			}
			if synced+failed > 0 {
				r.app.log.Info("Calendar reconcile finished", "synced", synced, "failed", failed)
			}
		}
	}
}

// SyncPending runs one batch and reports how many bookings were synced and
// how many failed again.
func (r *Reconciler) SyncPending(ctx context.Context) (synced, failed int, err error) {
	cutoff := r.app.now().Add(-r.app.syncTimeout)
	pending, err := r.app.bookings.ListUnsynced(ctx, cutoff, r.maxAttempts, r.batchSize)
	if err != nil {
		return 0, 0, err
	}

	for i := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if err := r.app.syncBooking(ctx, &pending[i]); err != nil {
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}
