package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "storefront"

// Check reports whether one backing dependency answers.
type Check func(ctx context.Context) error

type Checker struct {
	mu       sync.RWMutex
	checks   map[string]Check
	lastErr  error
	server   *health.Server
	grpc     *grpc.Server
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

// NewChecker builds a gRPC server exposing grpc.health.v1.Health and
// reflection. Status starts as NOT_SERVING until the first Update.
func NewChecker(checks map[string]Check, interval time.Duration, log *slog.Logger) *Checker {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(grpcServer, hs)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)

	return &Checker{
		checks:   checks,
		lastErr:  errors.New("not checked yet"),
		server:   hs,
		grpc:     grpcServer,
		interval: interval,
		timeout:  2 * time.Second,
		log:      log,
	}
}

// Update runs every check once and publishes the combined status.
func (c *Checker) Update(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := c.checks[name](ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	err := errors.Join(errs...)

	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	c.mu.Lock()
	changed := (c.lastErr == nil) != (err == nil)
	c.lastErr = err
	c.mu.Unlock()

	if changed {
		c.log.InfoContext(ctx, "health status changed", "status", status.String(), "error", err)
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(ServiceName, status)
	return err
}

// Ready returns the result of the last Update.
func (c *Checker) Ready(context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Run updates the status every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	_ = c.Update(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Update(ctx)
		}
	}
}

func (c *Checker) Serve(lis net.Listener) error {
	return c.grpc.Serve(lis)
}

// Stop marks everything NOT_SERVING and drains the gRPC server.
func (c *Checker) Stop() {
	c.server.Shutdown()
	c.grpc.GracefulStop()
}
