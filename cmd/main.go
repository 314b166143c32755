package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mythra/keymates/internal/adapters/chart"
	"github.com/mythra/keymates/internal/adapters/raiderio"
	app "github.com/mythra/keymates/internal/app"
	"github.com/mythra/keymates/internal/config"
	"github.com/mythra/keymates/pkg/logger"
	"github.com/mythra/keymates/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics server timeout constants.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (default: $KEYMATES_CONFIG)")
	output := flag.String("output", "", "chart output path (overrides config)")
	topN := flag.Int("top", 0, "number of teammates on the chart (overrides config)")
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Flag overrides
	if *output != "" {
		cfg.Output = *output
	}
	if *topN > 0 {
		cfg.TopN = *topN
	}

	invocationID := uuid.NewString()
	log.Info(ctx, "starting teammate pipeline",
		logger.String("invocation", invocationID),
		logger.String("region", cfg.Region),
		logger.String("realm", cfg.Realm),
		logger.String("name", cfg.Name),
		logger.String("season", cfg.Season),
		logger.String("discovery", cfg.Discovery),
	)

	// Optional Prometheus exposition for the duration of the run.
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			log.Info(ctx, "serving metrics", logger.String("addr", cfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn(ctx, "metrics server failed", logger.Error(err))
			}
		}()
	}

	client := raiderio.NewClient(cfg.AccessKey, cfg.Season,
		raiderio.WithBaseURL(cfg.BaseURL),
		raiderio.WithTimeout(time.Duration(cfg.RequestTimeoutMS)*time.Millisecond),
	)

	svc := app.New(client,
		app.WithStrategy(app.Strategy(cfg.Discovery)),
		app.WithRosterDelay(time.Duration(cfg.RosterDelayMS)*time.Millisecond),
		app.WithTopN(cfg.TopN),
	)

	report, err := svc.Run(ctx, cfg.Region, cfg.Realm, cfg.Name)
	if err != nil {
		log.Error(ctx, "pipeline failed", logger.String("invocation", invocationID), logger.Error(err))
		shutdownMetrics(metricsSrv, log)
		os.Exit(1)
	}

	renderer := chart.NewRenderer()
	if err := renderer.Render(ctx, report.Top, report.Identity.Name, report.RunsProcessed, cfg.Output); err != nil {
		log.Error(ctx, "chart render failed", logger.Error(err))
		shutdownMetrics(metricsSrv, log)
		os.Exit(1)
	}

	log.Info(ctx, "pipeline complete",
		logger.String("invocation", invocationID),
		logger.Int("runsDiscovered", report.RunsDiscovered),
		logger.Int("runsProcessed", report.RunsProcessed),
		logger.Int("rostersSkipped", report.RostersSkipped),
		logger.Int("teammates", len(report.TeammateCounts)),
		logger.String("output", cfg.Output),
	)

	shutdownMetrics(metricsSrv, log)
}

// shutdownMetrics gracefully stops the optional metrics listener.
func shutdownMetrics(srv *http.Server, log logger.Logger) {
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "metrics server shutdown failed", logger.Error(err))
	}
}
