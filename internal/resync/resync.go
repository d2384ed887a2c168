// Package resync schedules periodic full refreshes of the participating
// group set, so group subjects and membership converge even when no event
// for a group ever arrives.
package resync

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"chatstore/pkg/config"
	"chatstore/pkg/groupmeta"
	"chatstore/pkg/logger"
)

// Start starts the resync scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.ResyncConfig, cache *groupmeta.Cache) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("resync_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "*/30 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("resync_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid resync cron expression: %s", cfg.Cron)
	}

	logger.Info("resync_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, cache)
	return cancel, nil
}

// runScheduler computes the next tick for the cron expression with gronx
// and sleeps until then.
func runScheduler(ctx context.Context, cronExpr string, cache *groupmeta.Cache) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("resync_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("resync_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			cache.ResyncAll(ctx)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			cache.ResyncAll(ctx)
		case <-ctx.Done():
			logger.Info("resync_scheduler_stopping")
			return
		}
	}
}
