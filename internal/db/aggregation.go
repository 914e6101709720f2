package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"propinsight/internal/logging"
)

// refreshOverview recomputes the overview view without blocking readers.
func refreshOverview(ctx context.Context, db *gorm.DB) error {
	start := time.Now()
	err := db.WithContext(ctx).Exec("REFRESH MATERIALIZED VIEW CONCURRENTLY " + overviewView).Error
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	queryDuration.WithLabelValues("refresh_area_overview", outcome).Observe(time.Since(start).Seconds())
	return err
}

// StartOverviewRefreshWorker refreshes the overview view every interval
// until ctx is done. A non-positive interval disables the worker.
func StartOverviewRefreshWorker(ctx context.Context, db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		return
	}
	log := logging.WithComponent("overview-refresh")
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := refreshOverview(ctx, db); err != nil {
					log.Error().Err(err).Msg("refresh failed")
					continue
				}
				log.Debug().Msg("refreshed")
			}
		}
	}()
}
