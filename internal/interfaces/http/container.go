package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orris-inc/paysync/internal/application/reconciliation"
	"github.com/orris-inc/paysync/internal/application/reconciliation/gateway"
	"github.com/orris-inc/paysync/internal/infrastructure/cache"
	"github.com/orris-inc/paysync/internal/infrastructure/config"
	"github.com/orris-inc/paysync/internal/infrastructure/payment/mercadopago"
	"github.com/orris-inc/paysync/internal/infrastructure/ratelimit"
	"github.com/orris-inc/paysync/internal/infrastructure/scheduler"
	"github.com/orris-inc/paysync/internal/interfaces/http/middleware"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// Container holds infrastructure components, repositories, use cases and
// handlers, wires them together, and owns their shutdown.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client // nil when redis is disabled

	gatewayAPI gateway.ReadAPI
	locker     reconciliation.KeyedLocker

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers

	rateLimiter      *middleware.RateLimiter // nil when rate limiting is off
	schedulerManager *scheduler.SchedulerManager
}

// NewContainer creates a Container with all dependencies wired together.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) *Container {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	// Section 1: Infrastructure - Redis, gateway client, lock
	c.initInfrastructure()

	// Section 2: Repositories
	c.initRepositories()

	// Section 3: Use cases and handlers
	c.initUseCases()
	c.initHandlers()

	// Section 4: Background jobs
	c.initScheduler()

	return c
}

func (c *Container) initInfrastructure() {
	cfg := c.cfg

	if cfg.Redis.Enabled {
		c.redis = initRedis(cfg, c.log)
	}

	c.gatewayAPI = mercadopago.NewClient(mercadopago.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		AccessToken: cfg.Gateway.AccessToken,
		Timeout:     cfg.Gateway.Timeout,
	}, c.log)

	// The redis lock serializes commits across instances; the memory lock
	// only within this process.
	if c.redis != nil {
		c.locker = cache.NewRedisLocker(c.redis, cfg.Reconciliation.LockTTL, c.log)
	} else {
		c.log.Warnw("redis disabled, entitlement commits are serialized in-process only")
		c.locker = cache.NewMemoryLocker()
	}

	if cfg.RateLimit.Enabled {
		if c.redis == nil {
			c.log.Warnw("rate limiting requires redis, webhook endpoint will not be rate limited")
		} else {
			limiter := ratelimit.NewRedisRateLimiter(c.redis, ratelimit.Config{
				Limit:  cfg.RateLimit.Limit,
				Window: cfg.RateLimit.Window,
			})
			c.rateLimiter = middleware.NewRateLimiter(limiter, c.log)
		}
	}
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) *redis.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to connect to Redis", "error", err)
	}
	log.Infow("Redis connection established successfully", "address", cfg.Redis.GetAddr())

	return redisClient
}

func (c *Container) initScheduler() {
	recCfg := c.cfg.Reconciliation
	if !recCfg.ResyncEnabled {
		return
	}

	mgr, err := scheduler.NewSchedulerManager(c.log)
	if err != nil {
		c.log.Errorw("failed to create scheduler manager, resync disabled", "error", err)
		return
	}
	if err := mgr.RegisterResyncJob(c.ucs.resyncSubscriptionsUC, recCfg.ResyncInterval); err != nil {
		c.log.Errorw("failed to register resync job, resync disabled", "error", err)
		return
	}
	c.schedulerManager = mgr
}

// StartBackground starts scheduled jobs, if any are configured.
func (c *Container) StartBackground() {
	if c.schedulerManager != nil {
		c.schedulerManager.Start()
	}
}

// Shutdown stops background jobs and closes the Redis client.
func (c *Container) Shutdown() {
	if c.schedulerManager != nil {
		if err := c.schedulerManager.Stop(); err != nil {
			c.log.Errorw("failed to stop scheduler", "error", err)
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Errorw("failed to close redis client", "error", err)
		}
	}
}
