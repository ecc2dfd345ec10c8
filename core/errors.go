package core

import (
	"fmt"
	"time"
)

// ConfigurationError reports a required parameter that is absent or outside
// its validated physical range. It is fatal: callers raise it before any
// sample is processed, never as a per-sample fallback.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// InvalidGeometryError reports a geometry sample that should never have
// reached a calculator: non-positive elevation or a non-physical range.
// The connectability filter is responsible for discarding such samples
// upstream; the calculators still fail loudly instead of substituting a
// sentinel magnitude that would silently corrupt a power sum.
type InvalidGeometryError struct {
	SatelliteID  string
	ElevationDeg float64
	RangeKm      float64
	Reason       string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry for %q (elevation=%.2f°, range=%.1f km): %s",
		e.SatelliteID, e.ElevationDeg, e.RangeKm, e.Reason)
}

// EvaluationWarning flags a computed quantity outside its documented
// plausibility envelope. The sample is retained: a real extreme value is
// information, not corruption. Warnings travel with the run's output
// metadata instead of aborting anything.
type EvaluationWarning struct {
	SatelliteID  string
	Time         time.Time
	Quantity     string
	Value        float64
	MinPlausible float64
	MaxPlausible float64
}

func (w EvaluationWarning) String() string {
	return fmt.Sprintf("%s=%.2f for %q at %s outside plausible [%.1f, %.1f]",
		w.Quantity, w.Value, w.SatelliteID, w.Time.Format(time.RFC3339),
		w.MinPlausible, w.MaxPlausible)
}
