package core

import "math"

// fsplConstDB is the constant of the free-space path loss equation when
// distance is in kilometres and frequency in GHz:
// FSPL = 92.45 + 20 log10(d_km) + 20 log10(f_GHz).
const fsplConstDB = 92.45

// FreeSpacePathLossDB computes free-space path loss from slant range and
// carrier frequency using the standard inverse-square-law logarithmic form.
func FreeSpacePathLossDB(rangeKm, frequencyGHz float64) (float64, error) {
	if rangeKm <= 0 || rangeKm > MaxPhysicalRangeKm {
		return 0, &InvalidGeometryError{
			RangeKm: rangeKm,
			Reason:  "slant range outside (0, 45000] km",
		}
	}
	if frequencyGHz <= 0 {
		return 0, &ConfigurationError{
			Field:  "rf.carrier_frequency_ghz",
			Reason: "must be positive",
		}
	}
	return fsplConstDB + 20*math.Log10(rangeKm) + 20*math.Log10(frequencyGHz), nil
}

// LinkBudgetResult carries the intermediate terms of one per-sample link
// budget evaluation so they can be recorded alongside the derived quality
// metrics.
type LinkBudgetResult struct {
	AtmosphericLossDB float64
	PathLossDB        float64
	ReceivedPowerDBm  float64
}

// EvaluateLinkBudget runs the atmospheric and free-space stages for one
// geometry sample. The connectability filter is responsible for keeping
// invalid samples away from here; this still validates and fails loudly
// rather than substituting a sentinel, so a filter regression can never
// silently corrupt the output series.
func EvaluateLinkBudget(cfg RFConfig, atm AtmosphereParams, s GeometrySample) (LinkBudgetResult, error) {
	if !s.IsConnectable {
		return LinkBudgetResult{}, &InvalidGeometryError{
			SatelliteID:  s.SatelliteID,
			ElevationDeg: s.ElevationDeg,
			RangeKm:      s.SlantRangeKm,
			Reason:       "non-connectable sample reached the link-budget stage",
		}
	}

	atmLoss, err := AttenuationDB(s.ElevationDeg, cfg.CarrierFrequencyGHz, atm)
	if err != nil {
		if ge, ok := err.(*InvalidGeometryError); ok {
			ge.SatelliteID = s.SatelliteID
			ge.RangeKm = s.SlantRangeKm
		}
		return LinkBudgetResult{}, err
	}

	pathLoss, err := FreeSpacePathLossDB(s.SlantRangeKm, cfg.CarrierFrequencyGHz)
	if err != nil {
		if ge, ok := err.(*InvalidGeometryError); ok {
			ge.SatelliteID = s.SatelliteID
			ge.ElevationDeg = s.ElevationDeg
		}
		return LinkBudgetResult{}, err
	}

	received := cfg.TxPowerDBm + cfg.TxAntennaGainDBi + cfg.RxAntennaGainDBi - pathLoss - atmLoss
	return LinkBudgetResult{
		AtmosphericLossDB: atmLoss,
		PathLossDB:        pathLoss,
		ReceivedPowerDBm:  received,
	}, nil
}

// ReceivedPowerDBm computes the received power at the ground terminal:
//
//	received = tx_power + tx_gain + rx_gain − path_loss − atmospheric_loss
//
// Pure function with no clamping; suitable for parallel evaluation across
// satellites without shared state. Path loss is derived internally from
// range and frequency so callers cannot feed an inconsistent pair.
func ReceivedPowerDBm(txPowerDBm, txGainDBi, rxGainDBi, rangeKm, frequencyGHz, atmosphericLossDB float64) (float64, error) {
	pathLoss, err := FreeSpacePathLossDB(rangeKm, frequencyGHz)
	if err != nil {
		return 0, err
	}
	return txPowerDBm + txGainDBi + rxGainDBi - pathLoss - atmosphericLossDB, nil
}
