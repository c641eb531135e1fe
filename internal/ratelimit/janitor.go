package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron"
)

// StartJanitor prunes idle callers from store every interval until the
// returned scheduler is stopped. The first prune runs immediately.
func StartJanitor(store Store, every time.Duration, logger *log.Logger) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	_, err := s.Every(every).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := store.Prune(ctx, time.Now()); err != nil {
			logger.Error("pruning rate limit store", "err", err)
			return
		}
		logger.Debug("pruned rate limit store")
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling rate limit janitor: %w", err)
	}

	s.StartAsync()
	return s, nil
}
