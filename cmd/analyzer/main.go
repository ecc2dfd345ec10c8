// Command analyzer evaluates satellite-to-ground signal quality over a
// time window and reports the measurement events a handover controller
// would see. Input is a constellation file (TLEs plus one ground station)
// and an analyzer config; output is a single JSON document with the
// quality samples, events, and plausibility warnings of the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/signalsfoundry/handover-analyzer/internal/config"
	"github.com/signalsfoundry/handover-analyzer/internal/constellation"
	"github.com/signalsfoundry/handover-analyzer/internal/logging"
	"github.com/signalsfoundry/handover-analyzer/internal/observability"
	"github.com/signalsfoundry/handover-analyzer/internal/orbit"
	"github.com/signalsfoundry/handover-analyzer/internal/pipeline"
	"github.com/signalsfoundry/handover-analyzer/timegrid"
)

func main() {
	configPath := flag.String("config", "", "path to analyzer config YAML (defaults to the standard search paths)")
	constellationPath := flag.String("constellation", "", "override the constellation file from the config")
	outputPath := flag.String("output", "", "override the result path from the config (\"-\" for stdout)")
	workers := flag.Int("workers", 0, "override the worker count from the config")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *constellationPath, *outputPath, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "analyzer: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, constellationPath, outputPath string, workers int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if constellationPath != "" {
		cfg.Constellation = constellationPath
	}
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	log := logging.New(cfg.Logging)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewPipelineCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if cfg.Observability.MetricsListen != "" {
		startMetricsListener(ctx, cfg.Observability.MetricsListen, collector, log)
	}

	reg := constellation.NewRegistry()
	scenario, err := loadConstellation(reg, cfg.Constellation)
	if err != nil {
		return err
	}
	log.Info(ctx, "constellation loaded",
		logging.String("path", cfg.Constellation),
		logging.Int("satellites", len(scenario.SatelliteIDs)),
		logging.String("ground_station", scenario.GroundStationID),
	)

	grid, err := timegrid.FromDuration(cfg.Orbit.Start, cfg.Orbit.Step, cfg.Orbit.Duration)
	if err != nil {
		return err
	}

	gs, err := reg.GroundStation()
	if err != nil {
		return err
	}
	sampler, err := orbit.NewSampler(gs, cfg.Orbit.MinElevationDeg)
	if err != nil {
		return err
	}
	series, err := sampler.SampleAll(reg, grid)
	if err != nil {
		return err
	}

	policy, err := cfg.Selection.Build()
	if err != nil {
		return err
	}
	p, err := pipeline.New(pipeline.Config{
		RF:         cfg.RF,
		Atmosphere: cfg.Atmosphere,
		Detector:   cfg.Events,
		Policy:     policy,
		Workers:    cfg.Workers,
	}, log, collector)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, series)
	if err != nil {
		return err
	}

	return writeResult(cfg.Output, result)
}

func loadConstellation(reg *constellation.Registry, path string) (*constellation.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open constellation file: %w", err)
	}
	defer f.Close()
	return constellation.Load(reg, f)
}

// writeResult serialises the run to the configured path, stdout when the
// path is empty or "-".
func writeResult(out config.OutputConfig, result *pipeline.Result) error {
	var w io.Writer = os.Stdout
	if out.Path != "" && out.Path != "-" {
		f, err := os.Create(out.Path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	if out.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

// startMetricsListener serves /metrics until the run context ends. A
// failing listener is logged, not fatal; the analysis itself does not
// depend on it.
func startMetricsListener(ctx context.Context, addr string, collector *observability.PipelineCollector, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(ctx, "metrics listener stopped", logging.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "metrics listener started", logging.String("addr", addr))
}
