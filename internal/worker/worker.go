package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/acesurvival/jobboard/internal/service"
	"github.com/acesurvival/jobboard/internal/store"
)

// Worker drives the periodic housekeeping passes: expiring stale orders,
// failing past-deadline claims, reclaiming unfetched items, retrying owed
// refunds and purging old mail.
type Worker struct {
	Orders   *service.OrderService
	Store    *store.Store
	Interval time.Duration
	Log      zerolog.Logger
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		w.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce runs one full housekeeping pass. Order matters: expiry before
// pickup so an order expired this tick is not reclaimed in the same one,
// and refund retries before pickup so a cleared debt can settle this tick
// rather than the next.
func (w *Worker) SweepOnce(ctx context.Context) {
	expired := w.Orders.SweepExpired(ctx)
	failed := w.Orders.SweepDeadlines(ctx)
	refunded := w.Orders.RetryRefunds(ctx)
	reclaimed := w.Orders.SweepPickups(ctx)

	purged, err := w.Store.PurgeExpiredMail(ctx, time.Now().UTC())
	if err != nil {
		w.Log.Warn().Err(err).Msg("mail purge failed")
	}

	if expired+failed+reclaimed+refunded > 0 || purged > 0 {
		w.Log.Info().
			Int("expired", expired).
			Int("deadline_failed", failed).
			Int("reclaimed", reclaimed).
			Int("refunds_retried", refunded).
			Int64("mail_purged", purged).
			Msg("sweep pass complete")
	}
}
