// TimeStore gRPC Server
// Provides remote undo/redo over a history-enabled note workspace
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/nainya/timestore/internal/config"
	"github.com/nainya/timestore/internal/logger"
	"github.com/nainya/timestore/internal/metrics"
	"github.com/nainya/timestore/internal/server"
	"github.com/nainya/timestore/pkg/workspace"
)

var (
	port        = flag.Int("port", 0, "The gRPC server port (overrides TIMESTORE_GRPC_PORT)")
	metricsPort = flag.Int("metrics-port", 0, "The observability port (overrides TIMESTORE_METRICS_PORT)")
	envFile     = flag.String("env", ".env", "Optional .env file")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "timestored: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.GRPCPort = *port
	}
	if *metricsPort != 0 {
		cfg.MetricsPort = *metricsPort
	}

	log := logger.InitGlobalLogger(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	log.LogServerStart(cfg.GRPCPort, cfg.MetricsPort)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	ws, err := workspace.New(
		workspace.WithLogger(log.TimelineLogger().Zerolog()),
		workspace.WithObserver(m),
		workspace.WithSnapshotInterval(cfg.SnapshotInterval),
	)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.MaxMessageBytes),
		grpc.MaxSendMsgSize(cfg.MaxMessageBytes),
		grpc.UnaryInterceptor(server.GrpcMetricsInterceptor(m, log)),
	)
	server.RegisterTimelineService(grpcServer, server.NewServer(ws, server.WithLogger(log), server.WithMetrics(m)))
	healthServer := server.RegisterHealth(grpcServer)

	// Register reflection service for grpcurl/grpcui
	reflection.Register(grpcServer)

	var serving atomic.Bool
	obs := server.NewObservabilityServer(cfg.MetricsPort, reg, serving.Load, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.RunUptime(ctx, 15*time.Second)
		return nil
	})
	g.Go(func() error {
		return obs.Start()
	})
	g.Go(func() error {
		serving.Store(true)
		log.LogServerReady(cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		serving.Store(false)
		healthServer.Shutdown()
		log.LogServerShutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return obs.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
