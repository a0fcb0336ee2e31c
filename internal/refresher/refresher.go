// Package refresher reloads the key table on a cron schedule so sheet
// edits show up without an admin /reload.
package refresher

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/keystore"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/metrics"
)

// Start launches the reload scheduler when enabled and returns a cancel
// func. An empty cron defaults to hourly. Reload failures are logged,
// never fatal: the previous table stays in place.
func Start(ctx context.Context, enabled bool, cronExpr string, ks *keystore.Store) (context.CancelFunc, error) {
	if !enabled {
		logger.Info("refresh_disabled")
		return func() {}, nil
	}
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid refresh cron expression: %s", cronExpr)
	}

	ctx2, cancel := context.WithCancel(ctx)
	go run(ctx2, cronExpr, ks)
	logger.Info("refresh_scheduler_started", "cron", cronExpr)
	return cancel, nil
}

func run(ctx context.Context, cronExpr string, ks *keystore.Store) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("refresh_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("refresh_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := ks.Reload(ctx, false); err != nil {
				metrics.Reloads.WithLabelValues("failed").Inc()
				logger.Error("refresh_reload_failed", "error", err)
			} else {
				metrics.Reloads.WithLabelValues("ok").Inc()
			}
		case <-ctx.Done():
			logger.Info("refresh_scheduler_stopping")
			return
		}
	}
}
