package core

import (
	"time"
)

// EventType identifies a standardized measurement-event family.
type EventType string

const (
	// EventA3 is the relative comparison: neighbour better than serving
	// by an offset.
	EventA3 EventType = "A3"
	// EventA4 is the absolute neighbour threshold, with no serving-side
	// comparison.
	EventA4 EventType = "A4"
	// EventA5 is the dual absolute threshold: serving below threshold1
	// AND neighbour above threshold2.
	EventA5 EventType = "A5"
	// EventD2 is the distance-based condition on serving and neighbour
	// slant ranges, bypassing signal quality.
	EventD2 EventType = "D2"
)

// Threshold plausibility ranges. RSRP-class thresholds far outside the
// measurable envelope or distances beyond physical slant ranges are
// configuration mistakes and rejected at load time.
const (
	minThresholdDBm = -200.0
	maxThresholdDBm = 0.0
)

// A3Config parameterizes the relative event
// (neighbour + offset_n − hys > serving + offset_p).
type A3Config struct {
	NeighbourOffsetDB float64       `json:"neighbour_offset_db" koanf:"neighbour_offset_db"`
	ServingOffsetDB   float64       `json:"serving_offset_db" koanf:"serving_offset_db"`
	HysteresisDB      float64       `json:"hysteresis_db" koanf:"hysteresis_db"`
	TimeToTrigger     time.Duration `json:"time_to_trigger" koanf:"time_to_trigger"`
	Provenance        string        `json:"provenance" koanf:"provenance"`
}

func (c *A3Config) validate() error {
	if err := validateCommon("a3", c.HysteresisDB, c.TimeToTrigger, c.Provenance); err != nil {
		return err
	}
	return nil
}

// A4Config parameterizes the absolute neighbour event
// (neighbour − hys > threshold).
type A4Config struct {
	ThresholdDBm  float64       `json:"threshold_dbm" koanf:"threshold_dbm"`
	HysteresisDB  float64       `json:"hysteresis_db" koanf:"hysteresis_db"`
	TimeToTrigger time.Duration `json:"time_to_trigger" koanf:"time_to_trigger"`
	Provenance    string        `json:"provenance" koanf:"provenance"`
}

func (c *A4Config) validate() error {
	if err := validateCommon("a4", c.HysteresisDB, c.TimeToTrigger, c.Provenance); err != nil {
		return err
	}
	if c.ThresholdDBm < minThresholdDBm || c.ThresholdDBm > maxThresholdDBm {
		return &ConfigurationError{Field: "events.a4.threshold_dbm", Reason: "must be within [-200, 0] dBm"}
	}
	return nil
}

// A5Config parameterizes the dual absolute event
// (serving + hys < threshold1 AND neighbour − hys > threshold2).
type A5Config struct {
	Threshold1DBm float64       `json:"threshold1_dbm" koanf:"threshold1_dbm"`
	Threshold2DBm float64       `json:"threshold2_dbm" koanf:"threshold2_dbm"`
	HysteresisDB  float64       `json:"hysteresis_db" koanf:"hysteresis_db"`
	TimeToTrigger time.Duration `json:"time_to_trigger" koanf:"time_to_trigger"`
	Provenance    string        `json:"provenance" koanf:"provenance"`
}

func (c *A5Config) validate() error {
	if err := validateCommon("a5", c.HysteresisDB, c.TimeToTrigger, c.Provenance); err != nil {
		return err
	}
	if c.Threshold1DBm < minThresholdDBm || c.Threshold1DBm > maxThresholdDBm {
		return &ConfigurationError{Field: "events.a5.threshold1_dbm", Reason: "must be within [-200, 0] dBm"}
	}
	if c.Threshold2DBm < minThresholdDBm || c.Threshold2DBm > maxThresholdDBm {
		return &ConfigurationError{Field: "events.a5.threshold2_dbm", Reason: "must be within [-200, 0] dBm"}
	}
	return nil
}

// A5TerrestrialPreset is the terrestrial-derived default pair. Under
// high-gain space links the serving side rarely drops below threshold1,
// so A5 firing at near-zero frequency with this preset is expected
// behavior, not an error.
func A5TerrestrialPreset() *A5Config {
	return &A5Config{
		Threshold1DBm: -110,
		Threshold2DBm: -95,
		HysteresisDB:  2,
		TimeToTrigger: 0,
		Provenance:    "3GPP TS 38.331 terrestrial A5 operating point (-110/-95 dBm)",
	}
}

// A5LEOPreset is the constellation-specific override pair proposed for
// high-gain LEO links.
func A5LEOPreset() *A5Config {
	return &A5Config{
		Threshold1DBm: -70,
		Threshold2DBm: -50,
		HysteresisDB:  2,
		TimeToTrigger: 0,
		Provenance:    "LEO high-gain link study override (-70/-50 dBm)",
	}
}

// D2Config parameterizes the distance-based event (serving range above
// the serving distance while a neighbour's range is below the neighbour
// distance). Hysteresis is in kilometres.
type D2Config struct {
	ServingDistanceKm   float64       `json:"serving_distance_km" koanf:"serving_distance_km"`
	NeighbourDistanceKm float64       `json:"neighbour_distance_km" koanf:"neighbour_distance_km"`
	HysteresisKm        float64       `json:"hysteresis_km" koanf:"hysteresis_km"`
	TimeToTrigger       time.Duration `json:"time_to_trigger" koanf:"time_to_trigger"`
	Provenance          string        `json:"provenance" koanf:"provenance"`
}

func (c *D2Config) validate() error {
	if c.Provenance == "" {
		return &ConfigurationError{Field: "events.d2.provenance", Reason: "threshold provenance note is mandatory"}
	}
	if c.HysteresisKm < 0 {
		return &ConfigurationError{Field: "events.d2.hysteresis_km", Reason: "must be non-negative"}
	}
	if c.TimeToTrigger < 0 {
		return &ConfigurationError{Field: "events.d2.time_to_trigger", Reason: "must be non-negative"}
	}
	if c.ServingDistanceKm <= 0 || c.ServingDistanceKm > MaxPhysicalRangeKm {
		return &ConfigurationError{Field: "events.d2.serving_distance_km", Reason: "must be within (0, 45000] km"}
	}
	if c.NeighbourDistanceKm <= 0 || c.NeighbourDistanceKm > MaxPhysicalRangeKm {
		return &ConfigurationError{Field: "events.d2.neighbour_distance_km", Reason: "must be within (0, 45000] km"}
	}
	return nil
}

func validateCommon(event string, hysteresisDB float64, ttt time.Duration, provenance string) error {
	if provenance == "" {
		return &ConfigurationError{
			Field:  "events." + event + ".provenance",
			Reason: "threshold provenance note is mandatory",
		}
	}
	if hysteresisDB < 0 {
		return &ConfigurationError{
			Field:  "events." + event + ".hysteresis_db",
			Reason: "must be non-negative",
		}
	}
	if ttt < 0 {
		return &ConfigurationError{
			Field:  "events." + event + ".time_to_trigger",
			Reason: "must be non-negative",
		}
	}
	return nil
}

// DetectorConfig enables and parameterizes the event types the caller
// requests. A nil entry means the event type is not evaluated; a present
// but malformed entry is a fatal configuration error at startup.
type DetectorConfig struct {
	A3 *A3Config `json:"a3,omitempty" koanf:"a3"`
	A4 *A4Config `json:"a4,omitempty" koanf:"a4"`
	A5 *A5Config `json:"a5,omitempty" koanf:"a5"`
	D2 *D2Config `json:"d2,omitempty" koanf:"d2"`
}

// Validate checks every requested event configuration. At least one event
// type must be enabled; a detector with nothing to detect is a wiring
// mistake.
func (c DetectorConfig) Validate() error {
	if c.A3 == nil && c.A4 == nil && c.A5 == nil && c.D2 == nil {
		return &ConfigurationError{Field: "events", Reason: "at least one event type must be configured"}
	}
	if c.A3 != nil {
		if err := c.A3.validate(); err != nil {
			return err
		}
	}
	if c.A4 != nil {
		if err := c.A4.validate(); err != nil {
			return err
		}
	}
	if c.A5 != nil {
		if err := c.A5.validate(); err != nil {
			return err
		}
	}
	if c.D2 != nil {
		if err := c.D2.validate(); err != nil {
			return err
		}
	}
	return nil
}

// HandoverEvent is one emitted enter or leave transition. Appended to the
// ordered event log and never mutated afterwards.
type HandoverEvent struct {
	Type                 EventType `json:"event_type"`
	Time                 time.Time `json:"trigger_time"`
	ServingSatelliteID   string    `json:"serving_satellite_id"`
	NeighbourSatelliteID string    `json:"neighbour_satellite_id"`
	Entered              bool      `json:"entered_condition"`

	// Measurement values at the trigger instant.
	ServingRSRPDBm     float64 `json:"serving_rsrp_dbm"`
	NeighbourRSRPDBm   float64 `json:"neighbour_rsrp_dbm"`
	ServingRangeKm     float64 `json:"serving_range_km"`
	NeighbourRangeKm   float64 `json:"neighbour_range_km"`
}
