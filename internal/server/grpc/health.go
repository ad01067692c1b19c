// Package grpcserver runs the gRPC side listener: the standard health service
// backed by a storage probe, plus logging and recovery interceptors.
package grpcserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Service is the name reported alongside the overall ("") status.
const Service = "crudkeeper.v1.API"

// Pinger checks that storage answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober flips the health status according to periodic storage pings.
type Prober struct {
	hs       *health.Server
	ping     Pinger
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

// NewProber constructs a Prober. A nil ping means storage is always healthy.
func NewProber(hs *health.Server, ping Pinger, interval time.Duration, log *zap.Logger) *Prober {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Prober{hs: hs, ping: ping, interval: interval, timeout: interval / 2, log: log}
}

// Check pings once and publishes the result.
func (p *Prober) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if p.ping != nil {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		err := p.ping.Ping(cctx)
		cancel()
		if err != nil {
			p.log.Warn("storage ping failed", zap.Error(err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	p.hs.SetServingStatus("", st)
	p.hs.SetServingStatus(Service, st)
	return st
}

// Run checks immediately and then every interval until ctx is done.
// On exit every service is marked NOT_SERVING.
func (p *Prober) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			p.hs.Shutdown()
			return
		case <-t.C:
			p.Check(ctx)
		}
	}
}

// NewServer builds a gRPC server with the health service registered.
// Reflection is registered when dev is set.
func NewServer(hs *health.Server, log *zap.Logger, dev bool, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(RecoverUnary(log), LoggingUnary(log)),
		grpc.ChainStreamInterceptor(RecoverStream(log), LoggingStream(log)),
	)
	s := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(s, hs)
	if dev {
		reflection.Register(s)
	}
	return s
}
