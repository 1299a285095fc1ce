package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/ecat-io/dataplane-master/internal/wire"
)

// WaitForLink blocks, retrying on an exponential schedule, until device
// reports an up link or ctx is canceled. Grounded on
// modules/route/bird-adapter/service.go's reconnectStream ticker
// pattern, applied here to a down redundant link rather than a gRPC
// stream: a master whose main NIC drops out should keep retrying
// rather than give up the cycle.
func WaitForLink(ctx context.Context, monitor *LinkMonitor, device wire.DeviceIndex, log *zap.SugaredLogger) bool {
	ticker := backoff.NewTicker(&backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         30 * time.Second,
	})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Warnw("link wait aborted", "error", ctx.Err())
			return false
		case <-ticker.C:
			if monitor.IsUp(device) {
				return true
			}
			log.Debugw("link still down, retrying")
		}
	}
}
