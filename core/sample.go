package core

import "time"

// MaxPhysicalRangeKm bounds the slant range the link-budget stage will
// accept. Anything beyond super-synchronous distance cannot be a usable
// LEO/MEO/GEO link and indicates an upstream propagation artefact.
const MaxPhysicalRangeKm = 45000.0

// GeometrySample is one upstream-produced observation of a satellite from
// the ground location at a discrete time step. Immutable once produced.
//
// When IsConnectable is false the elevation may be negative or the range
// non-physical; such samples must never reach the link-budget stage.
type GeometrySample struct {
	SatelliteID   string    `json:"satellite_id"`
	Time          time.Time `json:"time"`
	ElevationDeg  float64   `json:"elevation_deg"`
	SlantRangeKm  float64   `json:"slant_range_km"`
	IsConnectable bool      `json:"is_connectable"`
}

// SignalQualitySample is the derived link-quality record for one surviving
// GeometrySample. Values are the true computed quantities; they are never
// clipped to a standard's UE-reporting quantization range.
type SignalQualitySample struct {
	SatelliteID       string    `json:"satellite_id"`
	Time              time.Time `json:"time"`
	RSRPDBm           float64   `json:"rsrp_dbm"`
	RSRQDB            float64   `json:"rsrq_db"`
	SINRDB            float64   `json:"sinr_db"`
	AtmosphericLossDB float64   `json:"atmospheric_loss_db"`
	PathLossDB        float64   `json:"path_loss_db"`
}

// FilterConnectable returns the subset of samples with IsConnectable set,
// preserving the original time order. This is the single point in the
// pipeline that discards geometrically invalid samples; it must run before
// any attenuation or link-budget computation. Skipping it once let
// negative-elevation samples produce extreme received-power values that
// poisoned downstream statistics.
func FilterConnectable(samples []GeometrySample) []GeometrySample {
	out := make([]GeometrySample, 0, len(samples))
	for _, s := range samples {
		if s.IsConnectable {
			out = append(out, s)
		}
	}
	return out
}
