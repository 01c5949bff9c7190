package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Closer closes issues resolved longer than olderThan ago.
type Closer interface {
	CloseResolved(ctx context.Context, olderThan time.Duration) (int, error)
}

// StartCloseoutWorker sweeps resolved issues every interval until ctx ends.
// The returned channel is closed once the loop has stopped.
func StartCloseoutWorker(ctx context.Context, closer Closer, interval, olderThan time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if closer == nil || interval <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				closed, err := closer.CloseResolved(ctx, olderThan)
				if err != nil {
					logger.Warn("closeout sweep incomplete", zap.Int("closed", closed), zap.Error(err))
					continue
				}
				if closed > 0 {
					logger.Info("closeout sweep", zap.Int("closed", closed))
				}
			}
		}
	}()
	return done
}
