package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/acesurvival/jobboard/internal/config"
	"github.com/acesurvival/jobboard/internal/container"
	"github.com/acesurvival/jobboard/internal/db"
	"github.com/acesurvival/jobboard/internal/economy"
	"github.com/acesurvival/jobboard/internal/notify"
	"github.com/acesurvival/jobboard/internal/service"
	"github.com/acesurvival/jobboard/internal/store"
	"github.com/acesurvival/jobboard/internal/worker"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "sweeper").Logger()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()

	st := store.New(pool)
	ledger := economy.NewWalletLedger(pool)

	// The sweeper has no live feed; notifications for swept orders queue
	// as mail and items always land in the overflow container.
	hub := notify.NewHub(log)
	notifier := notify.NewNotifier(hub, st, st, log)
	notifier.MailEnabled = cfg.Mail.Enabled
	notifier.MailRetention = time.Duration(cfg.Mail.RetentionDays) * 24 * time.Hour

	stash := container.NewManager(st, nil, log)
	orders := service.NewOrderService(st, ledger, stash, notifier, cfg, log)

	w := &worker.Worker{
		Orders:   orders,
		Store:    st,
		Interval: time.Duration(cfg.Sweep.IntervalSeconds) * time.Second,
		Log:      log,
	}

	log.Info().Int64("interval_seconds", cfg.Sweep.IntervalSeconds).Msg("sweeper started")
	w.Run(ctx)
}
