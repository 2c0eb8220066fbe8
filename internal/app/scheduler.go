package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"
)

// RefreshFunc reloads the user directory; trigger labels the caller.
type RefreshFunc func(ctx context.Context, trigger string) error

// RunDirectoryRefresh refreshes on schedule until ctx is cancelled, then
// waits for an in-flight refresh to finish. A blank schedule disables the
// job and returns once ctx is done.
func RunDirectoryRefresh(ctx context.Context, schedule string, refresh RefreshFunc) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" || refresh == nil {
		<-ctx.Done()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		// Failures are logged by the refresher; the next tick retries.
		_ = refresh(ctx, "schedule")
	}); err != nil {
		return fmt.Errorf("schedule user directory refresh: %w", err)
	}

	c.Start()
	slog.Info("user directory refresh scheduled", slog.String("schedule", schedule))

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}
