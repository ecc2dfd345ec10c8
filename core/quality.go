package core

import "math"

// RFConfig describes the RF configuration of the evaluated carrier. Every
// field must be supplied explicitly by configuration: absence is a
// configuration error, not a fallback. NumResourceBlocks and
// InterferenceDBm are the only optional knobs; when NumResourceBlocks is
// zero the resource-block count is derived from bandwidth and subcarrier
// spacing minus the guard-band allowance.
type RFConfig struct {
	TxPowerDBm           float64 `json:"tx_power_dbm" koanf:"tx_power_dbm"`
	TxAntennaGainDBi     float64 `json:"tx_antenna_gain_dbi" koanf:"tx_antenna_gain_dbi"`
	RxAntennaGainDBi     float64 `json:"rx_antenna_gain_dbi" koanf:"rx_antenna_gain_dbi"`
	NoiseFigureDB        float64 `json:"noise_figure_db" koanf:"noise_figure_db"`
	BandwidthMHz         float64 `json:"bandwidth_mhz" koanf:"bandwidth_mhz"`
	SubcarrierSpacingKHz float64 `json:"subcarrier_spacing_khz" koanf:"subcarrier_spacing_khz"`
	CarrierFrequencyGHz  float64 `json:"carrier_frequency_ghz" koanf:"carrier_frequency_ghz"`

	// NumResourceBlocks overrides the derived N_RB when positive.
	NumResourceBlocks int `json:"num_resource_blocks,omitempty" koanf:"num_resource_blocks"`

	// InterferenceDBm adds a fixed co-channel interference floor to the
	// SINR and RSSI estimates when set. Nil means interference-free.
	InterferenceDBm *float64 `json:"interference_dbm,omitempty" koanf:"interference_dbm"`
}

const (
	// thermalNoiseDensityDBmHz is kT at the 290 K reference temperature.
	thermalNoiseDensityDBmHz = -174.0

	// guardBandFraction is the share of the carrier bandwidth reserved as
	// guard band at the edges when deriving N_RB from bandwidth and
	// subcarrier spacing (NR carriers keep roughly 95% usable spectrum
	// across the standard SCS/bandwidth combinations).
	guardBandFraction = 0.05

	subcarriersPerResourceBlock = 12
)

// Plausibility envelope for RSRP over the modeled link classes. Values
// outside it are reported as EvaluationWarnings but never discarded.
const (
	PlausibleRSRPMinDBm = -150.0
	PlausibleRSRPMaxDBm = -20.0
)

// Validate checks that the configuration is physically sensible. It runs
// once before any sample is processed. Presence of each field is enforced
// at the loading layer, where absence and an explicit zero can still be
// told apart; a zero reaching this point is taken at face value.
func (c RFConfig) Validate() error {
	switch {
	case c.BandwidthMHz <= 0:
		return &ConfigurationError{Field: "rf.bandwidth_mhz", Reason: "must be supplied and positive"}
	case c.SubcarrierSpacingKHz <= 0:
		return &ConfigurationError{Field: "rf.subcarrier_spacing_khz", Reason: "must be supplied and positive"}
	case c.CarrierFrequencyGHz <= 0:
		return &ConfigurationError{Field: "rf.carrier_frequency_ghz", Reason: "must be supplied and positive"}
	case c.NoiseFigureDB < 0 || c.NoiseFigureDB > 20:
		return &ConfigurationError{Field: "rf.noise_figure_db", Reason: "must be within [0, 20] dB"}
	case c.NumResourceBlocks < 0:
		return &ConfigurationError{Field: "rf.num_resource_blocks", Reason: "must be non-negative"}
	}
	if c.ResourceBlocks() < 1 {
		return &ConfigurationError{
			Field:  "rf.bandwidth_mhz",
			Reason: "bandwidth too narrow for even one resource block at the configured subcarrier spacing",
		}
	}
	return nil
}

// ResourceBlocks returns the configured N_RB, or derives it from the
// occupied bandwidth and subcarrier spacing minus the guard-band allowance.
func (c RFConfig) ResourceBlocks() int {
	if c.NumResourceBlocks > 0 {
		return c.NumResourceBlocks
	}
	usableKHz := c.BandwidthMHz * 1000.0 * (1.0 - guardBandFraction)
	return int(usableKHz / (c.SubcarrierSpacingKHz * subcarriersPerResourceBlock))
}

// ThermalNoiseDBm is the noise power over the occupied bandwidth,
// referenced to the configured receiver noise figure.
func (c RFConfig) ThermalNoiseDBm() float64 {
	bwHz := c.BandwidthMHz * 1e6
	return thermalNoiseDensityDBmHz + 10*math.Log10(bwHz) + c.NoiseFigureDB
}

// QualityCalculator derives RSRP, RSRQ and SINR from a link-budget result
// per the 3GPP measurement definitions. Construction fails on incomplete
// configuration so no per-sample default substitution can occur.
type QualityCalculator struct {
	cfg      RFConfig
	nRB      int
	noiseDBm float64
}

func NewQualityCalculator(cfg RFConfig) (*QualityCalculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &QualityCalculator{
		cfg:      cfg,
		nRB:      cfg.ResourceBlocks(),
		noiseDBm: cfg.ThermalNoiseDBm(),
	}, nil
}

// Quality computes the measurement triple for one received power value.
//
//   - RSRP is the received power itself (post link budget).
//   - RSRQ = 10·log10(N_RB) + RSRP − RSSI, with RSSI the linear-domain sum
//     of signal, thermal noise and configured interference across the
//     occupied bandwidth.
//   - SINR = RSRP − (noise ⊕ interference), again summed linearly.
//
// No value is clipped to a UE-reporting quantization range: those ranges
// describe how a receiver reports over a signaling interface, not physical
// bounds. Clipping here once made every satellite report the same
// truncated value and blinded the event detector.
func (q *QualityCalculator) Quality(receivedPowerDBm float64) (rsrpDBm, rsrqDB, sinrDB float64) {
	rsrpDBm = receivedPowerDBm

	floorMW := dbmToMilliwatt(q.noiseDBm)
	if q.cfg.InterferenceDBm != nil {
		floorMW += dbmToMilliwatt(*q.cfg.InterferenceDBm)
	}
	floorDBm := milliwattToDBm(floorMW)

	rssiDBm := milliwattToDBm(dbmToMilliwatt(rsrpDBm) + floorMW)

	rsrqDB = 10*math.Log10(float64(q.nRB)) + rsrpDBm - rssiDBm
	sinrDB = rsrpDBm - floorDBm
	return rsrpDBm, rsrqDB, sinrDB
}

// Sample assembles the full derived record for one geometry sample and its
// link budget, and reports a plausibility warning when RSRP falls outside
// the documented envelope.
func (q *QualityCalculator) Sample(g GeometrySample, lb LinkBudgetResult) (SignalQualitySample, *EvaluationWarning) {
	rsrp, rsrq, sinr := q.Quality(lb.ReceivedPowerDBm)
	out := SignalQualitySample{
		SatelliteID:       g.SatelliteID,
		Time:              g.Time,
		RSRPDBm:           rsrp,
		RSRQDB:            rsrq,
		SINRDB:            sinr,
		AtmosphericLossDB: lb.AtmosphericLossDB,
		PathLossDB:        lb.PathLossDB,
	}

	if rsrp < PlausibleRSRPMinDBm || rsrp > PlausibleRSRPMaxDBm {
		return out, &EvaluationWarning{
			SatelliteID:  g.SatelliteID,
			Time:         g.Time,
			Quantity:     "rsrp_dbm",
			Value:        rsrp,
			MinPlausible: PlausibleRSRPMinDBm,
			MaxPlausible: PlausibleRSRPMaxDBm,
		}
	}
	return out, nil
}

func dbmToMilliwatt(dbm float64) float64 {
	return math.Pow(10, dbm/10)
}

func milliwattToDBm(mw float64) float64 {
	return 10 * math.Log10(mw)
}
