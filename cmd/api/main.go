package main

import (
	"context"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/punchamoorthee/dodoledger/internal/api"
	"github.com/punchamoorthee/dodoledger/internal/config"
	"github.com/punchamoorthee/dodoledger/internal/service"
	"github.com/punchamoorthee/dodoledger/internal/store"
	"github.com/punchamoorthee/dodoledger/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if cfg.Env == "development" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ledgerStore, err := store.NewStore(cfg.DBSource())
	if err != nil {
		logger.Fatal("unable to connect to database", zap.Error(err))
	}
	defer ledgerStore.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Delivery pipeline
	queue := webhook.NewQueue()
	scheduler := webhook.NewRedisScheduler(rdb)
	worker := webhook.NewWorker(ledgerStore, scheduler, queue, logger.Named("worker"))
	subscriber := webhook.NewExpirySubscriber(rdb, queue, logger.Named("subscriber"))

	// Drain orphaned outbox events before taking traffic.
	if err := webhook.Recover(ctx, ledgerStore, queue, logger); err != nil {
		logger.Fatal("webhook recovery failed", zap.Error(err))
	}

	go worker.Run(ctx)
	go subscriber.Run(ctx)

	// Services and HTTP layer
	keys := service.NewKeyService(ledgerStore, cfg.APIKeySecret)
	ledger := service.NewLedgerService(ledgerStore, queue, logger.Named("ledger"))

	handler := api.NewHandler(ledgerStore, ledger, keys, logger.Named("api"))
	auth := api.NewAuthMiddleware(keys, logger.Named("auth"))
	limiter := api.NewRateLimiter(rdb, logger.Named("ratelimit"))
	router := api.NewRouter(handler, auth, limiter)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
