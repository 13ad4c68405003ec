package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/fiscal-ledger/internal/catalog"
	"github.com/angelmondragon/fiscal-ledger/internal/cron"
	"github.com/angelmondragon/fiscal-ledger/pkg/config"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/metrics"
	"github.com/angelmondragon/fiscal-ledger/pkg/redis"
)

// NewScheduler registers the periodic ledger jobs. Without a redis client
// the cycle lock is process-local.
func NewScheduler(cfg *config.Config, logg *logger.Logger, svcs *Services, redisClient *redis.Client, reg prometheus.Registerer) (*cron.Service, error) {
	if cfg == nil || svcs == nil {
		return nil, fmt.Errorf("config and services required")
	}

	overdue, err := cron.NewOverdueSweepJob(logg, svcs.Invoices)
	if err != nil {
		return nil, err
	}
	lowStock, err := cron.NewLowStockJob(logg, svcs.Catalog, catalog.DefaultLowStockLimit)
	if err != nil {
		return nil, err
	}
	registry := cron.NewRegistry()
	for _, job := range []cron.Job{overdue, lowStock} {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}

	var lock cron.Lock = cron.NewLocalLock()
	if redisClient != nil {
		redisLock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockKey, cfg.Cron.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("cron lock: %w", err)
		}
		lock = redisLock
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Cron.Interval,
	})
}
