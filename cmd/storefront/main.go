package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-food-storefront/internal/cart"
	"github.com/ariefcatur/go-food-storefront/internal/config"
	"github.com/ariefcatur/go-food-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-food-storefront/internal/kafka"
	"github.com/ariefcatur/go-food-storefront/internal/logging"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
	"github.com/ariefcatur/go-food-storefront/internal/postgres"
	"github.com/ariefcatur/go-food-storefront/internal/redisx"
	"github.com/ariefcatur/go-food-storefront/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.WithError(err).Fatal("db schema")
	}
	carts := &cart.Repo{DB: db}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	placed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, log)
	placed.Start(ctx)
	cancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024, log)
	cancelled.Start(ctx)
	events := &httpx.Events{Placed: placed, Cancelled: cancelled, Service: cfg.ServiceName}

	sessions := session.NewRegistry(session.Config{
		APIBaseURL:    cfg.APIBaseURL,
		HTTPClient:    &http.Client{Timeout: cfg.APITimeout},
		LoginPath:     cfg.LoginPath,
		TokenBuffer:   &cfg.TokenExpiryBuffer,
		TaxRate:       decimal.NewNullDecimal(cfg.TaxRate),
		Redis:         rdb,
		Carts:         carts,
		OnOrderPlaced: events.OrderPlaced,
		Log:           log,
	})
	go sweep(ctx, sessions, carts, cfg.SessionIdleTTL, log)

	router := httpx.NewRouter(log)
	sf := &httpx.Storefront{Sessions: sessions, Redis: rdb, Events: events}
	sf.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).WithField("api", cfg.APIBaseURL).Info("storefront listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	placed.Close()
	cancelled.Close()
	cancel()
	placed.WaitClosed()
	cancelled.WaitClosed()
}

const abandonedCartAge = 7 * 24 * time.Hour

// sweep drops idle in-memory sessions and abandoned carts.
func sweep(ctx context.Context, sessions *session.Registry, carts *cart.Repo, idle time.Duration, log logrus.FieldLogger) {
	if idle <= 0 {
		return
	}
	t := time.NewTicker(idle / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := sessions.Sweep(idle); n > 0 {
				log.WithField("sessions", n).Debug("idle sessions released")
			}
			if n, err := carts.Purge(ctx, abandonedCartAge); err != nil {
				log.WithError(err).Warn("cart purge failed")
			} else if n > 0 {
				log.WithField("carts", n).Info("abandoned carts purged")
			}
		}
	}
}
