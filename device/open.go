package device

import (
	"context"
	"log/slog"
	"time"

	"github.com/fences/IcpDasDaqCore/errors"
	"github.com/fences/IcpDasDaqCore/pkg/retry"
)

// OpenWithRetry opens a board through the retry framework. Transient
// failures back off and retry; anything classified invalid or fatal fails
// fast. When a logger is supplied each failed attempt is logged before the
// backoff sleep.
func OpenWithRetry(ctx context.Context, board Board, cfg retry.Config, logger *slog.Logger) error {
	if logger != nil && cfg.Notify == nil {
		cfg.Notify = func(attempt int, err error, delay time.Duration) {
			logger.Warn("board open failed, backing off",
				"attempt", attempt,
				"delay", delay,
				"error", err)
		}
	}

	return retry.Do(ctx, cfg, func() error {
		err := board.Open()
		if err == nil {
			return nil
		}
		if errors.IsTransient(err) {
			return err
		}
		return retry.NonRetryable(err)
	})
}
