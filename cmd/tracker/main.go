package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-food-storefront/internal/config"
	kafkax "github.com/ariefcatur/go-food-storefront/internal/kafka"
	"github.com/ariefcatur/go-food-storefront/internal/logging"
	"github.com/ariefcatur/go-food-storefront/internal/orders"
	"github.com/ariefcatur/go-food-storefront/internal/redisx"
	"github.com/ariefcatur/go-food-storefront/internal/tracker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	name := cfg.ServiceName + "-tracker"
	svc := &tracker.Service{Redis: rdb, Name: name, Log: log.WithField("service", name)}

	topics := []string{orders.TopicOrderPlaced, orders.TopicOrderCancelled}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.TrackerGroup, topics, cfg.TrackerWorkers, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.WithField("group", cfg.TrackerGroup).WithField("topics", topics).WithField("workers", cfg.TrackerWorkers).Info("tracker consumer started")
		if err := cons.Start(ctx, svc.HandleEvent); err != nil {
			log.WithError(err).Error("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer...")
	cancel()
	<-done
}
