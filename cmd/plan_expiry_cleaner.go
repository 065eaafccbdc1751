package main

import (
	"context"
	"log"
	"time"

	"controlhub/internal/repositories"
)

const planExpiryCleanerTimeout = 1 * time.Minute

// startPlanExpiryCleaner flips purchases whose expiry date has passed to
// the expired status, once at startup and then daily. Credits already
// granted are never reclaimed.
func startPlanExpiryCleaner(ctx context.Context, repo *repositories.PurchaseRepository, infoLog, errorLog *log.Logger) {
	if repo == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, planExpiryCleanerTimeout)
			expired, err := repo.ExpireDue(runCtx, time.Now().UTC())
			cancel()
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("plan expiry cleaner: failed to expire purchases: %v", err)
				}
			} else if expired > 0 && infoLog != nil {
				infoLog.Printf("plan expiry cleaner: expired %d purchases", expired)
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
