package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// RunHealthReporter periodically updates the standard gRPC health
// service's overall status from Master.Healthy (SPEC_FULL.md DOMAIN
// STACK): SERVING once every domain reports a complete working
// counter, NOT_SERVING otherwise. Grounded on
// modules/balancer/app/cmd/balancer/main.go's listen(), which registers
// the same health.NewServer() but never drives its status — this
// repo's master actually has a meaningful readiness signal to report.
func RunHealthReporter(ctx context.Context, m *Master, srv *health.Server, interval time.Duration, log *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_SERVICE_UNKNOWN
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := healthpb.HealthCheckResponse_NOT_SERVING
			if m.Healthy() {
				status = healthpb.HealthCheckResponse_SERVING
			}
			if status != last {
				log.Infow("master health changed", "status", status)
				last = status
			}
			srv.SetServingStatus("", status)
		}
	}
}
