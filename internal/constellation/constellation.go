// Package constellation holds the catalog of satellites and the ground
// station an evaluation run observes from. It is upstream metadata for the
// geometry sampler; the core engine never touches it.
package constellation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrSatelliteExists   = errors.New("satellite already exists")
	ErrSatelliteNotFound = errors.New("satellite not found")
	ErrSatelliteBadInput = errors.New("invalid satellite")
	ErrNoGroundStation   = errors.New("no ground station configured")
)

// Satellite is one catalog entry: identity plus the TLE pair its orbit is
// propagated from.
type Satellite struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TLELine1 string `json:"tle_line1"`
	TLELine2 string `json:"tle_line2"`
}

// GroundStation is the fixed observation point, in ECEF kilometres.
type GroundStation struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	XKm  float64 `json:"x_km"`
	YKm  float64 `json:"y_km"`
	ZKm  float64 `json:"z_km"`
}

// Registry stores the constellation under evaluation. Concurrency-safe via
// an internal RWMutex so loading and the parallel sampling stage can share
// it.
type Registry struct {
	mu         sync.RWMutex
	satellites map[string]*Satellite
	station    *GroundStation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{satellites: make(map[string]*Satellite)}
}

// AddSatellite validates and registers one satellite.
func (r *Registry) AddSatellite(sat *Satellite) error {
	if sat == nil || sat.ID == "" {
		return fmt.Errorf("%w: nil or empty id", ErrSatelliteBadInput)
	}
	if err := validateTLE(sat.TLELine1, sat.TLELine2); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrSatelliteBadInput, sat.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.satellites[sat.ID]; exists {
		return fmt.Errorf("%w: %q", ErrSatelliteExists, sat.ID)
	}
	r.satellites[sat.ID] = sat
	return nil
}

// GetSatellite returns the satellite with the given ID, or an error.
func (r *Registry) GetSatellite(id string) (*Satellite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sat, ok := r.satellites[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSatelliteNotFound, id)
	}
	return sat, nil
}

// ListSatellites returns all satellites ordered by ID so every consumer
// walks the catalog deterministically.
func (r *Registry) ListSatellites() []*Satellite {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Satellite, 0, len(r.satellites))
	for _, sat := range r.satellites {
		out = append(out, sat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetGroundStation records the observation point.
func (r *Registry) SetGroundStation(gs *GroundStation) error {
	if gs == nil || gs.ID == "" {
		return fmt.Errorf("ground station: nil or empty id")
	}
	if gs.XKm == 0 && gs.YKm == 0 && gs.ZKm == 0 {
		return fmt.Errorf("ground station %q: position must be set", gs.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.station = gs
	return nil
}

// GroundStation returns the configured observation point.
func (r *Registry) GroundStation() (*GroundStation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.station == nil {
		return nil, ErrNoGroundStation
	}
	return r.station, nil
}

// validateTLE applies the cheap structural checks: line markers and the
// fixed 69-column TLE format. Orbital sanity is the propagator's problem.
func validateTLE(line1, line2 string) error {
	if line1 == "" || line2 == "" {
		return fmt.Errorf("both TLE lines are required")
	}
	if !strings.HasPrefix(line1, "1 ") {
		return fmt.Errorf("TLE line 1 must start with \"1 \"")
	}
	if !strings.HasPrefix(line2, "2 ") {
		return fmt.Errorf("TLE line 2 must start with \"2 \"")
	}
	if len(line1) != 69 || len(line2) != 69 {
		return fmt.Errorf("TLE lines must be 69 columns, got %d and %d", len(line1), len(line2))
	}
	return nil
}
