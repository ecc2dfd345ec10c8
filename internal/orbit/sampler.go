// Package orbit turns a satellite catalog into the per-satellite geometry
// time series the core pipeline consumes: SGP4 propagation from TLEs,
// elevation and slant range against a fixed ground station, and the
// connectability flag from the elevation mask. It sits strictly upstream
// of the signal-quality engine; the engine re-validates what it is given.
package orbit

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/handover-analyzer/core"
	"github.com/signalsfoundry/handover-analyzer/internal/constellation"
	"github.com/signalsfoundry/handover-analyzer/timegrid"
)

// Sampler produces GeometrySample series for one ground station.
type Sampler struct {
	station Vec3
	// minElevationDeg is the elevation mask below which a sample is
	// flagged non-connectable. The flag is still emitted so downstream
	// statistics can count masked samples; only the connectability filter
	// drops them.
	minElevationDeg float64
}

// NewSampler builds a sampler for the registry's ground station.
func NewSampler(gs *constellation.GroundStation, minElevationDeg float64) (*Sampler, error) {
	if gs == nil {
		return nil, fmt.Errorf("orbit: ground station is nil")
	}
	if minElevationDeg < 0 || minElevationDeg >= 90 {
		return nil, fmt.Errorf("orbit: elevation mask %v° outside [0, 90)", minElevationDeg)
	}
	return &Sampler{
		station:         Vec3{X: gs.XKm, Y: gs.YKm, Z: gs.ZKm},
		minElevationDeg: minElevationDeg,
	}, nil
}

// Sample propagates one satellite across the grid and returns its geometry
// series in time order. Propagation is deterministic for a fixed TLE and
// grid, so repeated calls yield identical samples.
func (s *Sampler) Sample(sat *constellation.Satellite, grid timegrid.Grid) ([]core.GeometrySample, error) {
	if sat == nil {
		return nil, fmt.Errorf("orbit: satellite is nil")
	}

	model := satellite.TLEToSat(sat.TLELine1, sat.TLELine2, satellite.GravityWGS72)

	out := make([]core.GeometrySample, 0, grid.Steps)
	for i := 0; i < grid.Steps; i++ {
		t := grid.At(i)
		pos := propagateECEF(model, t)

		elev := ElevationDegrees(s.station, pos)
		rangeKm := s.station.DistanceTo(pos)
		connectable := elev >= s.minElevationDeg && rangeKm <= core.MaxPhysicalRangeKm

		out = append(out, core.GeometrySample{
			SatelliteID:   sat.ID,
			Time:          t,
			ElevationDeg:  elev,
			SlantRangeKm:  rangeKm,
			IsConnectable: connectable,
		})
	}
	return out, nil
}

// SampleAll produces the per-satellite series map for every satellite in
// the registry, keyed by satellite ID.
func (s *Sampler) SampleAll(reg *constellation.Registry, grid timegrid.Grid) (map[string][]core.GeometrySample, error) {
	sats := reg.ListSatellites()
	if len(sats) == 0 {
		return nil, fmt.Errorf("orbit: registry holds no satellites")
	}

	series := make(map[string][]core.GeometrySample, len(sats))
	for _, sat := range sats {
		samples, err := s.Sample(sat, grid)
		if err != nil {
			return nil, fmt.Errorf("orbit: sampling %q: %w", sat.ID, err)
		}
		series[sat.ID] = samples
	}
	return series, nil
}

// propagateECEF runs SGP4 for the given instant and rotates the ECI
// position into ECEF using GMST. go-satellite works in kilometres.
func propagateECEF(model satellite.Satellite, t time.Time) Vec3 {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(model, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	return Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
}
