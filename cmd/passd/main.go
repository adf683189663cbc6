// Command passd serves pass plans and a rolling pass tracker over HTTP, with
// gRPC health checks and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/pass-planner/core"
	"github.com/signalsfoundry/pass-planner/internal/api"
	"github.com/signalsfoundry/pass-planner/internal/config"
	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/internal/observability"
	"github.com/signalsfoundry/pass-planner/internal/planner"
	"github.com/signalsfoundry/pass-planner/kb"
	"github.com/signalsfoundry/pass-planner/timectrl"
)

// serviceName is the health-check service reported alongside the overall
// server status.
const serviceName = "passd"

func main() {
	configPath := flag.String("config", "configs/scenario.yaml", "path to the YAML scenario")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load config", logging.Err(err))
		os.Exit(1)
	}
	cfg.ApplyEnv(log)

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	grpcLis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}
	httpLis, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.Server.HTTPAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, grpcLis, httpLis, nil); err != nil {
		log.Error(ctx, "passd exited", logging.Err(err))
		os.Exit(1)
	}
}

// run wires the daemon and blocks until ctx is cancelled. A nil clock
// starts a controller at the current wall time.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, grpcLis, httpLis net.Listener, clock *timectrl.TimeController) error {
	log = logging.OrNoop(log)

	plannerMetrics, err := observability.NewPlannerCollector(nil)
	if err != nil {
		return err
	}
	apiMetrics, err := observability.NewAPICollector(nil)
	if err != nil {
		return err
	}

	catalog := kb.NewCatalog()
	sats, err := cfg.LoadSatellites(log)
	if err != nil {
		return err
	}
	for _, s := range sats {
		if err := catalog.Add(s); err != nil {
			log.Warn(ctx, "skipping satellite", logging.String("id", s.ID), logging.Err(err))
		}
	}
	plannerMetrics.SetCatalogSize(catalog.Len())

	daylight, err := cfg.DaylightPolicy()
	if err != nil {
		return err
	}
	orbits := core.NewOrbitRegistry()
	p := planner.New(catalog, planner.Options{
		Workers:  cfg.Planner.Workers,
		Daylight: daylight,
		Orbits:   orbits,
		Metrics:  plannerMetrics,
		Logger:   log,
	})
	tracker, err := planner.NewTracker(catalog, planner.TrackerOptions{
		Station:      cfg.Station(),
		MinElevation: cfg.Tracker.MinElevation,
		MaxPasses:    cfg.Tracker.MaxPasses,
		Orbits:       orbits,
		Metrics:      plannerMetrics,
		Logger:       log,
	})
	if err != nil {
		return err
	}
	defer tracker.Close()

	if clock == nil {
		mode := timectrl.RealTime
		if cfg.Tracker.Speed > 1 {
			mode = timectrl.Accelerated
		}
		clock = timectrl.NewTimeController(time.Now().UTC(), cfg.Tracker.Tick, mode)
		clock.Speed = cfg.Tracker.Speed
	}
	tracker.Attach(clock)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	server := api.NewServer(api.Options{
		Catalog:  catalog,
		Planner:  p,
		Tracker:  tracker,
		Clock:    clock,
		Metrics:  apiMetrics,
		Location: loc,
		Logger:   log,
	})

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
	grpcSrv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(apiMetrics.UnaryServerInterceptor()),
	)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	httpSrv := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, apiMetrics, log)

	errCh := make(chan error, 2)
	go func() {
		log.Info(ctx, "starting gRPC health server", logging.String("addr", grpcLis.Addr().String()))
		if err := grpcSrv.Serve(grpcLis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		log.Info(ctx, "starting HTTP API", logging.String("addr", httpLis.Addr().String()))
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// The first refresh can take a while over a large catalogue; health
	// flips to SERVING once it completes.
	go func() {
		if err := tracker.Refresh(ctx, clock.Now()); err != nil {
			log.Warn(ctx, "initial tracker refresh incomplete", logging.Err(err))
		}
		if ctx.Err() != nil {
			return
		}
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
		log.Info(ctx, "tracker ready", logging.Int("satellites", catalog.Len()))
	}()
	clockDone := clock.Start(ctx, 0)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	log.Info(context.Background(), "shutting down passd")
	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	grpcSrv.GracefulStop()
	if runErr == nil {
		<-clockDone
	}
	return runErr
}

// serveMetrics starts a dedicated /metrics listener when addr is set. The
// API handler always serves /metrics as well.
func serveMetrics(addr string, collector *observability.APICollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
