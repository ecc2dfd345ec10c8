package core

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Observation pairs the derived quality of one satellite at one instant
// with the geometry it was derived from, so the distance-based event can
// read ranges without a second lookup.
type Observation struct {
	SatelliteID  string    `json:"satellite_id"`
	Time         time.Time `json:"time"`
	RSRPDBm      float64   `json:"rsrp_dbm"`
	RSRQDB       float64   `json:"rsrq_db"`
	SINRDB       float64   `json:"sinr_db"`
	ElevationDeg float64   `json:"elevation_deg"`
	SlantRangeKm float64   `json:"slant_range_km"`
}

// SelectionPolicy chooses, for one time instant, which of the connectable
// satellites is serving; the rest become neighbour candidates. Selection is
// recomputed independently at every instant; hysteresis belongs to the
// event detector, not here.
type SelectionPolicy interface {
	// Select returns the serving observation. The input is non-empty and
	// must not be mutated.
	Select(obs []Observation) (Observation, error)
	Name() string
}

// MedianRSRP selects the satellite whose RSRP is the median of the
// connectable set. Selecting the maximum instead makes neighbour-better-
// than-serving comparisons structurally unsatisfiable, since no neighbour
// can exceed an already-maximal serving value; the median keeps relative
// events reachable. For even-sized sets the lower of the two central
// candidates by satellite identifier is picked for determinism.
type MedianRSRP struct{}

func (MedianRSRP) Name() string { return "median_rsrp" }

func (MedianRSRP) Select(obs []Observation) (Observation, error) {
	sorted, err := sortedByRSRP(obs)
	if err != nil {
		return Observation{}, err
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	lo, hi := sorted[n/2-1], sorted[n/2]
	if lo.SatelliteID <= hi.SatelliteID {
		return lo, nil
	}
	return hi, nil
}

// MaxRSRP selects the strongest satellite. Kept as an explicit strategy so
// the degenerate interaction with relative events stays visible and
// testable rather than hidden inside the detector.
type MaxRSRP struct{}

func (MaxRSRP) Name() string { return "max_rsrp" }

func (MaxRSRP) Select(obs []Observation) (Observation, error) {
	sorted, err := sortedByRSRP(obs)
	if err != nil {
		return Observation{}, err
	}
	return sorted[len(sorted)-1], nil
}

// PercentileRSRP selects the satellite at the given RSRP percentile
// (nearest-rank over the sorted set). Percentile 50 approximates the
// median policy; 100 degenerates to the maximum.
type PercentileRSRP struct {
	Percentile float64
}

func (p PercentileRSRP) Name() string { return fmt.Sprintf("percentile_rsrp_%g", p.Percentile) }

func (p PercentileRSRP) Select(obs []Observation) (Observation, error) {
	if p.Percentile < 0 || p.Percentile > 100 {
		return Observation{}, &ConfigurationError{
			Field:  "selection.percentile",
			Reason: "must be within [0, 100]",
		}
	}
	sorted, err := sortedByRSRP(obs)
	if err != nil {
		return Observation{}, err
	}
	idx := int(math.Round(p.Percentile / 100.0 * float64(len(sorted)-1)))
	return sorted[idx], nil
}

// sortedByRSRP returns a copy ordered by ascending RSRP, tie-broken by
// satellite identifier so selection never depends on input order.
func sortedByRSRP(obs []Observation) ([]Observation, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("selection requires at least one connectable observation")
	}
	sorted := append([]Observation(nil), obs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].RSRPDBm != sorted[j].RSRPDBm {
			return sorted[i].RSRPDBm < sorted[j].RSRPDBm
		}
		return sorted[i].SatelliteID < sorted[j].SatelliteID
	})
	return sorted, nil
}
