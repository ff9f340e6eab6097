package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// CleanupPastEvents deletes generated occurrences whose start time has
// passed. Templates are exempt: only leaf events (those with a parent) are
// swept. The operation is idempotent; running it twice deletes nothing new.
func (s *EventService) CleanupPastEvents(ctx context.Context) (int64, error) {
	deleted, err := s.events.DeletePastChildren(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		slog.Info("cleaned up past occurrences", "deleted", deleted)
	}
	return deleted, nil
}

// StartCleanupScheduler runs CleanupPastEvents on the given cron schedule
// (e.g. "0 2 * * *" for daily at 02:00). The returned cron is already
// started; stop it during shutdown.
func (s *EventService) StartCleanupScheduler(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.CleanupPastEvents(ctx); err != nil {
			slog.Error("scheduled cleanup failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
