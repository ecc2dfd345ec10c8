// Package pipeline runs the full evaluation chain over per-satellite
// geometry series: connectability filtering, link budget and signal
// quality per sample, serving-cell selection per instant, and measurement
// event detection. The per-satellite stage fans out over a worker pool;
// results are merged in a fixed order so the output is identical for any
// worker count.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/handover-analyzer/core"
	"github.com/signalsfoundry/handover-analyzer/internal/logging"
	"github.com/signalsfoundry/handover-analyzer/internal/observability"
)

const defaultWorkers = 4

// Config carries everything a pipeline run needs beyond the geometry
// series themselves. RF, Atmosphere, and Detector have no defaults and
// are validated up front.
type Config struct {
	RF         core.RFConfig
	Atmosphere core.AtmosphereParams
	Detector   core.DetectorConfig

	// Policy picks the serving satellite at each instant. Nil selects
	// MedianRSRP.
	Policy core.SelectionPolicy

	// Workers bounds the per-satellite fan-out. Zero or negative selects
	// defaultWorkers.
	Workers int
}

// Result is the complete output of one run. Samples are ordered by
// timestamp, then satellite ID; Events are in detection order, which is
// also timestamp order.
type Result struct {
	RunID    string                     `json:"run_id"`
	Samples  []core.SignalQualitySample `json:"samples"`
	Events   []core.HandoverEvent       `json:"events"`
	Warnings []core.EvaluationWarning   `json:"warnings"`
}

// Pipeline evaluates geometry series into quality samples and handover
// events. A Pipeline is safe for concurrent Run calls; each run builds
// its own detector state.
type Pipeline struct {
	cfg     Config
	calc    *core.QualityCalculator
	log     logging.Logger
	metrics *observability.PipelineCollector
	tracer  trace.Tracer
}

// New validates the configuration and builds a pipeline. The detector
// configuration is validated here even though detector state is created
// per run, so a bad event config fails fast.
func New(cfg Config, log logging.Logger, metrics *observability.PipelineCollector) (*Pipeline, error) {
	if err := cfg.Atmosphere.Validate(); err != nil {
		return nil, err
	}
	calc, err := core.NewQualityCalculator(cfg.RF)
	if err != nil {
		return nil, err
	}
	if err := cfg.Detector.Validate(); err != nil {
		return nil, err
	}
	if cfg.Policy == nil {
		cfg.Policy = core.MedianRSRP{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if log == nil {
		log = logging.Noop()
	}

	return &Pipeline{
		cfg:     cfg,
		calc:    calc,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("handover-analyzer/pipeline"),
	}, nil
}

// satResult holds one satellite's evaluated series plus the filter
// counts for metrics.
type satResult struct {
	observations []core.Observation
	samples      []core.SignalQualitySample
	warnings     []core.EvaluationWarning
	processed    int
	filtered     int
	err          error
}

// Run evaluates the given per-satellite geometry series. Any evaluation
// error aborts the run with no partial output; all per-satellite errors
// are joined so one report covers the whole input.
func (p *Pipeline) Run(ctx context.Context, series map[string][]core.GeometrySample) (*Result, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("pipeline: no geometry series to evaluate")
	}

	runID := uuid.NewString()
	ctx, log := logging.WithRunLogger(ctx, p.log, runID)

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("constellation.size", len(series)),
			attribute.String("selection.policy", p.cfg.Policy.Name()),
			attribute.Int("workers", p.cfg.Workers),
		),
	)
	defer span.End()

	p.metrics.SetConstellationSize(len(series))
	log.Info(ctx, "pipeline run started",
		logging.Int("satellites", len(series)),
		logging.String("policy", p.cfg.Policy.Name()),
	)

	results, err := p.qualityStage(ctx, series)
	if err != nil {
		log.Error(ctx, "quality stage failed", logging.String("error", err.Error()))
		return nil, err
	}

	samples, warnings, byInstant, instants := p.mergeStage(ctx, results)

	events, err := p.detectStage(ctx, byInstant, instants)
	if err != nil {
		log.Error(ctx, "detection stage failed", logging.String("error", err.Error()))
		return nil, err
	}

	p.metrics.ObserveWarnings(len(warnings))
	for _, ev := range events {
		p.metrics.ObserveEvent(string(ev.Type), ev.Entered)
	}

	log.Info(ctx, "pipeline run finished",
		logging.Int("samples", len(samples)),
		logging.Int("events", len(events)),
		logging.Int("warnings", len(warnings)),
	)

	return &Result{
		RunID:    runID,
		Samples:  samples,
		Events:   events,
		Warnings: warnings,
	}, nil
}

// qualityStage evaluates every satellite's series independently on a
// worker pool. Satellites are dispatched in sorted ID order and results
// land in per-satellite slots, so the stage output does not depend on
// worker count or scheduling.
func (p *Pipeline) qualityStage(ctx context.Context, series map[string][]core.GeometrySample) ([]satResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.quality")
	defer span.End()
	start := time.Now()
	defer func() { p.metrics.ObserveStage("quality", time.Since(start)) }()

	ids := make([]string, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]satResult, len(ids))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := p.cfg.Workers
	if workers > len(ids) {
		workers = len(ids)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = p.evaluateSatellite(series[ids[idx]])
			}
		}()
	}

	for idx := range ids {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	var errs []error
	for i, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("satellite %q: %w", ids[i], r.err))
			continue
		}
		p.metrics.ObserveSamples(ids[i], r.processed, r.filtered)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return results, nil
}

// evaluateSatellite runs one satellite's series through the filter, the
// link budget, and the quality calculator.
func (p *Pipeline) evaluateSatellite(geometry []core.GeometrySample) satResult {
	connectable := core.FilterConnectable(geometry)

	r := satResult{
		observations: make([]core.Observation, 0, len(connectable)),
		samples:      make([]core.SignalQualitySample, 0, len(connectable)),
		processed:    len(connectable),
		filtered:     len(geometry) - len(connectable),
	}

	for _, g := range connectable {
		lb, err := core.EvaluateLinkBudget(p.cfg.RF, p.cfg.Atmosphere, g)
		if err != nil {
			r.err = err
			return r
		}
		sample, warning := p.calc.Sample(g, lb)
		if warning != nil {
			r.warnings = append(r.warnings, *warning)
		}
		r.samples = append(r.samples, sample)
		r.observations = append(r.observations, core.Observation{
			SatelliteID:  g.SatelliteID,
			Time:         g.Time,
			RSRPDBm:      sample.RSRPDBm,
			RSRQDB:       sample.RSRQDB,
			SINRDB:       sample.SINRDB,
			ElevationDeg: g.ElevationDeg,
			SlantRangeKm: g.SlantRangeKm,
		})
	}
	return r
}

// mergeStage flattens per-satellite results into the global sample list,
// sorted by timestamp then satellite ID, and groups observations per
// instant for the detection walk.
func (p *Pipeline) mergeStage(ctx context.Context, results []satResult) (
	[]core.SignalQualitySample, []core.EvaluationWarning, map[time.Time][]core.Observation, []time.Time,
) {
	_, span := p.tracer.Start(ctx, "pipeline.merge")
	defer span.End()
	start := time.Now()
	defer func() { p.metrics.ObserveStage("merge", time.Since(start)) }()

	var samples []core.SignalQualitySample
	var warnings []core.EvaluationWarning
	byInstant := make(map[time.Time][]core.Observation)

	for _, r := range results {
		samples = append(samples, r.samples...)
		warnings = append(warnings, r.warnings...)
		for _, o := range r.observations {
			byInstant[o.Time] = append(byInstant[o.Time], o)
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		if !samples[i].Time.Equal(samples[j].Time) {
			return samples[i].Time.Before(samples[j].Time)
		}
		return samples[i].SatelliteID < samples[j].SatelliteID
	})
	sort.Slice(warnings, func(i, j int) bool {
		if !warnings[i].Time.Equal(warnings[j].Time) {
			return warnings[i].Time.Before(warnings[j].Time)
		}
		return warnings[i].SatelliteID < warnings[j].SatelliteID
	})

	instants := make([]time.Time, 0, len(byInstant))
	for t, obs := range byInstant {
		sort.Slice(obs, func(i, j int) bool { return obs[i].SatelliteID < obs[j].SatelliteID })
		instants = append(instants, t)
	}
	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })

	return samples, warnings, byInstant, instants
}

// detectStage walks the merged timeline: at each instant the policy
// picks the serving satellite and the detector evaluates every
// neighbour against it.
func (p *Pipeline) detectStage(ctx context.Context, byInstant map[time.Time][]core.Observation, instants []time.Time) ([]core.HandoverEvent, error) {
	_, span := p.tracer.Start(ctx, "pipeline.detect")
	defer span.End()
	start := time.Now()
	defer func() { p.metrics.ObserveStage("detect", time.Since(start)) }()

	detector, err := core.NewDetector(p.cfg.Detector)
	if err != nil {
		return nil, err
	}

	for _, t := range instants {
		obs := byInstant[t]
		serving, err := p.cfg.Policy.Select(obs)
		if err != nil {
			return nil, fmt.Errorf("pipeline: selecting serving satellite at %v: %w", t, err)
		}
		detector.Evaluate(t, serving, obs)
	}
	return detector.Events(), nil
}
