package constellation

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// Scenario is a small summary of what was loaded, mainly useful for
// logging from main().
type Scenario struct {
	GroundStationID string
	SatelliteIDs    []string
}

// internal JSON shapes - kept unexported so the file format can evolve
// without leaking into the registry API.
type scenarioJSON struct {
	GroundStation groundStationJSON `json:"ground_station"`
	Satellites    []satelliteJSON   `json:"satellites"`
}

type groundStationJSON struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	XKm  float64 `json:"x_km"`
	YKm  float64 `json:"y_km"`
	ZKm  float64 `json:"z_km"`
}

type satelliteJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TLELine1 string `json:"tle_line1"`
	TLELine2 string `json:"tle_line2"`
}

// Load reads a JSON constellation scenario from r and populates the
// registry. Structural problems (bad JSON, duplicate IDs, malformed TLEs,
// missing ground station) fail the load outright; a partially loaded
// registry is never returned.
func Load(reg *Registry, r io.Reader) (*Scenario, error) {
	if reg == nil {
		return nil, fmt.Errorf("constellation.Load: registry is nil")
	}

	var payload scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("constellation.Load: decode failed: %w", err)
	}

	if err := reg.SetGroundStation(&GroundStation{
		ID:   payload.GroundStation.ID,
		Name: payload.GroundStation.Name,
		XKm:  payload.GroundStation.XKm,
		YKm:  payload.GroundStation.YKm,
		ZKm:  payload.GroundStation.ZKm,
	}); err != nil {
		return nil, fmt.Errorf("constellation.Load: %w", err)
	}

	if len(payload.Satellites) == 0 {
		return nil, fmt.Errorf("constellation.Load: scenario contains no satellites")
	}

	result := &Scenario{
		GroundStationID: payload.GroundStation.ID,
		SatelliteIDs:    make([]string, 0, len(payload.Satellites)),
	}
	for _, js := range payload.Satellites {
		sat := &Satellite{
			ID:       js.ID,
			Name:     js.Name,
			TLELine1: js.TLELine1,
			TLELine2: js.TLELine2,
		}
		if err := reg.AddSatellite(sat); err != nil {
			return nil, fmt.Errorf("constellation.Load: %w", err)
		}
		result.SatelliteIDs = append(result.SatelliteIDs, js.ID)
	}

	return result, nil
}
