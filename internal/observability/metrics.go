package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector bundles Prometheus metrics for the evaluation pipeline
// and provides a ready-to-use /metrics handler.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	SamplesProcessed *prometheus.CounterVec
	SamplesFiltered  prometheus.Counter
	EventsEmitted    *prometheus.CounterVec
	Warnings         prometheus.Counter
	StageDurations   *prometheus.HistogramVec

	ConstellationSatellites prometheus.Gauge
}

// NewPipelineCollector registers pipeline Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when
// nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_samples_processed_total",
		Help: "Geometry samples that passed the connectability filter and were evaluated, labeled by satellite.",
	}, []string{"satellite"})
	processed, err := registerCounterVec(reg, processed, "pipeline_samples_processed_total")
	if err != nil {
		return nil, err
	}

	filtered, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_samples_filtered_total",
		Help: "Geometry samples dropped by the connectability filter.",
	}), "pipeline_samples_filtered_total")
	if err != nil {
		return nil, err
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_events_emitted_total",
		Help: "Handover events emitted by the detector, labeled by event type and direction.",
	}, []string{"event_type", "direction"})
	events, err = registerCounterVec(reg, events, "pipeline_events_emitted_total")
	if err != nil {
		return nil, err
	}

	warnings, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_evaluation_warnings_total",
		Help: "Computed values outside the documented plausibility envelope.",
	}), "pipeline_evaluation_warnings_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Wall time per pipeline stage.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"stage"})
	durations, err = registerHistogramVec(reg, durations, "pipeline_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	satellites, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "constellation_satellites",
		Help: "Number of satellites in the evaluated constellation.",
	}), "constellation_satellites")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:                gatherer,
		SamplesProcessed:        processed,
		SamplesFiltered:         filtered,
		EventsEmitted:           events,
		Warnings:                warnings,
		StageDurations:          durations,
		ConstellationSatellites: satellites,
	}, nil
}

// ObserveSamples records the per-satellite filter outcome. Safe on a nil
// collector so the pipeline can run without metrics wired.
func (c *PipelineCollector) ObserveSamples(satelliteID string, processed, filtered int) {
	if c == nil {
		return
	}
	if c.SamplesProcessed != nil {
		c.SamplesProcessed.WithLabelValues(satelliteID).Add(float64(processed))
	}
	if c.SamplesFiltered != nil {
		c.SamplesFiltered.Add(float64(filtered))
	}
}

// ObserveEvent records one emitted handover event.
func (c *PipelineCollector) ObserveEvent(eventType string, entered bool) {
	if c == nil || c.EventsEmitted == nil {
		return
	}
	direction := "leave"
	if entered {
		direction = "enter"
	}
	c.EventsEmitted.WithLabelValues(eventType, direction).Inc()
}

// ObserveWarnings adds to the plausibility warning counter.
func (c *PipelineCollector) ObserveWarnings(n int) {
	if c == nil || c.Warnings == nil {
		return
	}
	c.Warnings.Add(float64(n))
}

// ObserveStage records the wall time of one pipeline stage.
func (c *PipelineCollector) ObserveStage(stage string, d time.Duration) {
	if c == nil || c.StageDurations == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(d.Seconds())
}

// SetConstellationSize drives the satellite gauge.
func (c *PipelineCollector) SetConstellationSize(n int) {
	if c == nil || c.ConstellationSatellites == nil {
		return
	}
	c.ConstellationSatellites.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
