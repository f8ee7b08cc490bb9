package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/config"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/engine"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/forwardsvc"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/logging"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/observability"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

func newServeCmd(a *app) *cobra.Command {
	var grpcAddr, metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve ForwardModelService over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("grpc-addr") {
				a.cfg.Server.GRPCAddr = grpcAddr
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.Server.MetricsAddr = metricsAddr
			}

			lis, err := net.Listen("tcp", a.cfg.Server.GRPCAddr)
			if err != nil {
				a.log.Error(cmd.Context(), "failed to listen for gRPC",
					logging.String("addr", a.cfg.Server.GRPCAddr),
					logging.Err(err),
				)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, a.cfg, a.log, lis)
		},
	}
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "TCP address the gRPC server listens on (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics; empty disables it")
	return cmd
}

// runServer serves on lis until ctx is done, then stops gracefully.
func runServer(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener) error {
	tracingCfg := observability.TracingConfigFromEnv(observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	shutdownTracing, err := observability.InitTracing(ctx, tracingCfg, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewForwardCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		return err
	}
	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, collector, log)

	eng := engine.New(log,
		engine.WithMetricsRecorder(collector),
		engine.WithSweepWorkers(cfg.Sweep.Workers),
	)
	server := forwardsvc.NewServer(forwardsvc.NewService(eng, log), log, collector)

	log.Info(ctx, "starting gRPC server",
		logging.String("addr", lis.Addr().String()),
		logging.String("service", forwardsvc.ServiceName),
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(lis)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down gRPC server")
		server.GracefulStop()
		<-errCh
	case serveErr = <-errCh:
		if errors.Is(serveErr, grpc.ErrServerStopped) {
			serveErr = nil
		}
		if serveErr != nil {
			log.Error(ctx, "gRPC server exited", logging.Err(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return serveErr
}

func serveMetrics(addr string, collector *observability.ForwardCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
