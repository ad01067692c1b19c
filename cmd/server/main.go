// Command crudkeeper-server serves the JSON API over HTTP and the gRPC health service.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health"

	"github.com/and161185/crudkeeper/internal/app"
	"github.com/and161185/crudkeeper/internal/auth"
	"github.com/and161185/crudkeeper/internal/config"
	"github.com/and161185/crudkeeper/internal/logging"
	grpcserver "github.com/and161185/crudkeeper/internal/server/grpc"
	httpserver "github.com/and161185/crudkeeper/internal/server/http"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	configDir := flag.String("config-dir", config.DefaultDir, "directory holding base.yaml and profile files")
	profile := flag.String("profile", os.Getenv("CRUDKEEPER_PROFILE"), "configuration profile, e.g. dev")
	flag.Parse()

	cfg, err := config.Load(*configDir, *profile)
	if err != nil {
		// no logger yet
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("exit", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("driver", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	tokens := app.Tokens(cfg.Auth)
	router := httpserver.NewRouter(app.Services(backend, tokens, logger), auth.NewResolver(tokens, backend.Users), logger)
	api := httpserver.NewServer(httpserver.Config{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, router, logger)

	hs := health.NewServer()
	prober := grpcserver.NewProber(hs, backend, cfg.GRPC.ProbeInterval, logger)
	gs := grpcserver.NewServer(hs, logger, cfg.GRPC.Reflection)

	httpLis, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return err
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		_ = httpLis.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return api.Serve(httpLis) })
	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", cfg.GRPC.Addr))
		return gs.Serve(grpcLis)
	})
	g.Go(func() error {
		prober.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			gs.GracefulStop()
			close(done)
		}()
		err := api.Shutdown(sctx)
		select {
		case <-done:
		case <-sctx.Done():
			gs.Stop()
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
