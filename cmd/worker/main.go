package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/paysync/internal/application/reconciliation"
	"github.com/orris-inc/paysync/internal/application/reconciliation/usecases"
	"github.com/orris-inc/paysync/internal/infrastructure/cache"
	"github.com/orris-inc/paysync/internal/infrastructure/config"
	"github.com/orris-inc/paysync/internal/infrastructure/database"
	"github.com/orris-inc/paysync/internal/infrastructure/payment/mercadopago"
	"github.com/orris-inc/paysync/internal/infrastructure/repository"
	"github.com/orris-inc/paysync/internal/shared/biztime"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// The worker runs the subscription resync loop outside the API process, for
// deployments with several server replicas. It requires redis so its commits
// serialize with the servers' webhook commits.
func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env, os.Getenv("PAYSYNC_CONFIG"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting subscription resync worker", "environment", env)

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		log.Fatalw("failed to initialize business timezone", "error", err)
	}

	if !cfg.Redis.Enabled {
		log.Fatalw("resync worker requires redis.enabled for cross-process entitlement locks")
	}

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	entitlementRepo := repository.NewEntitlementRepository(database.Get(), log)
	planRepo := repository.NewPlanRepository(database.Get(), log)

	gatewayClient := mercadopago.NewClient(mercadopago.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		AccessToken: cfg.Gateway.AccessToken,
		Timeout:     cfg.Gateway.Timeout,
	}, log)

	recCfg := cfg.Reconciliation
	resolver := reconciliation.NewResolver(gatewayClient, reconciliation.RetryPolicy{
		MaxAttempts: recCfg.PollAttempts,
		BaseDelay:   recCfg.PollBaseDelay,
		Factor:      recCfg.PollFactor,
	}, nil, log)
	committer := reconciliation.NewCommitter(
		entitlementRepo,
		planRepo,
		cache.NewRedisLocker(redisClient, recCfg.LockTTL, log),
		nil,
		recCfg.CommitRetries,
		log,
	)
	resyncUC := usecases.NewResyncSubscriptionsUseCase(entitlementRepo, resolver, committer, recCfg.ResyncBatch, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	interval := recCfg.ResyncInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce := func() {
		summary, err := resyncUC.Execute(ctx)
		if err != nil {
			log.Errorw("subscription resync failed", "error", err)
			return
		}
		log.Infow("subscription resync completed",
			"checked", summary.Checked,
			"updated", summary.Updated,
			"failed", summary.Failed,
		)
	}

	log.Infow("running initial subscription resync")
	runOnce()

	log.Infow("subscription resync worker started", "interval", interval)

	for {
		select {
		case <-ticker.C:
			runOnce()

		case sig := <-sigChan:
			log.Infow("received signal, shutting down", "signal", sig)
			cancel()
			log.Infow("subscription resync worker stopped")
			return
		}
	}
}
