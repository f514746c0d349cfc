package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/acesurvival/jobboard/internal/config"
	"github.com/acesurvival/jobboard/internal/container"
	"github.com/acesurvival/jobboard/internal/db"
	"github.com/acesurvival/jobboard/internal/economy"
	internalhttp "github.com/acesurvival/jobboard/internal/http"
	"github.com/acesurvival/jobboard/internal/notify"
	"github.com/acesurvival/jobboard/internal/service"
	"github.com/acesurvival/jobboard/internal/store"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

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

	hub := notify.NewHub(log)
	notifier := notify.NewNotifier(hub, st, st, log)
	notifier.MailEnabled = cfg.Mail.Enabled
	notifier.MailRetention = time.Duration(cfg.Mail.RetentionDays) * 24 * time.Hour

	stash := container.NewManager(st, &notify.FeedCourier{Hub: hub}, log)
	orders := service.NewOrderService(st, ledger, stash, notifier, cfg, log)

	h := internalhttp.NewHandler(orders, stash, notifier, log)
	feed := &internalhttp.FeedHandler{Hub: hub, Notify: notifier, Log: log}
	srv := internalhttp.NewServer(h, feed)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("api listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
