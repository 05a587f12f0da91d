package updater

import (
	"context"
	"time"
)

// RunSchedule repeats RefreshNow at a fixed interval until the context is
// canceled. An immediate first cycle runs before the ticker starts. Each tick
// is independent: a failed cycle is logged and the loop continues. A cycle
// already committing finishes its atomic write before the stop is honored.
func (u *Updater) RunSchedule(ctx context.Context, interval time.Duration, opts Options) error {
	if interval < time.Second {
		interval = time.Second
	}
	u.log.Info("starting periodic updates", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := u.RefreshNow(ctx, opts); err != nil {
			u.log.Error("scheduled update failed", "err", err)
		}
		select {
		case <-ctx.Done():
			u.log.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
