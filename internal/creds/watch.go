package creds

import (
	"context"
	"log/slog"
	"time"
)

// Watch polls credential availability and calls onAvailable each time it
// flips from absent to present. Disappearance is not signalled; flush
// gates re-check availability on every pass anyway. Blocks until ctx is
// done.
func Watch(ctx context.Context, interval time.Duration, onAvailable func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := Available()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := Available()
			if now && !last {
				slog.Debug("credential appeared")
				onAvailable()
			} else if !now && last {
				slog.Debug("credential removed")
			}
			last = now
		}
	}
}
