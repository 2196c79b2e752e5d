package index

import (
	"context"
	"fmt"
	"time"

	"github.com/gorhill/cronexpr"
)

// StartRefresher reloads the index on the given cron schedule until ctx is
// cancelled. Supports "@hourly", "@daily" and standard cron expressions.
// Reload failures are logged and the previous index stays in service.
func (s *Store) StartRefresher(ctx context.Context, spec string) error {
	if spec == "" {
		return nil
	}
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return fmt.Errorf("parse refresh cron %q: %w", spec, err)
	}
	go func() {
		for {
			next := expr.Next(time.Now())
			if next.IsZero() {
				return
			}
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
			if err := s.Load(loadCtx); err != nil {
				s.logger.Printf("scheduled refresh failed: %v", err)
			}
			cancel()
		}
	}()
	return nil
}
