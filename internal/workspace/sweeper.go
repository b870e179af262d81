package workspace

import (
	"context"
	"time"
)

// RunSweeper sweeps expired workspaces every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		s.logger.Info("artifact sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := s.Sweep(ttl, now)
			if err != nil {
				s.logger.WithError(err).Error("artifact sweep failed")
				continue
			}
			if removed > 0 {
				s.logger.WithField("removed", removed).Info("expired workspaces removed")
			}
		}
	}
}
