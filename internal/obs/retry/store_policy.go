package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// StoreConnectPolicy waits for a remote store that may come up after us.
func StoreConnectPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "store_connect",
		Attempts: 8,
		Backoff:  ExpoJitter{Base: 250 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("store not reachable yet", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil {
				log.Error("store unreachable, giving up", zap.Error(err))
			}
		},
	}
}
