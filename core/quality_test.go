package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestRFConfig_ValidateMissingFields(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*RFConfig)
	}{
		{"missing bandwidth", func(c *RFConfig) { c.BandwidthMHz = 0 }},
		{"missing scs", func(c *RFConfig) { c.SubcarrierSpacingKHz = 0 }},
		{"missing carrier", func(c *RFConfig) { c.CarrierFrequencyGHz = 0 }},
		{"noise figure out of range", func(c *RFConfig) { c.NoiseFigureDB = 30 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testRFConfig()
			tc.mod(&cfg)
			_, err := NewQualityCalculator(cfg)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Errorf("expected ConfigurationError, got %T", err)
			}
		})
	}
}

func TestRFConfig_ZeroTxPowerIsLegal(t *testing.T) {
	// 0 dBm is 1 mW, a real transmit power, not an absence marker.
	cfg := testRFConfig()
	cfg.TxPowerDBm = 0
	if _, err := NewQualityCalculator(cfg); err != nil {
		t.Fatalf("explicit 0 dBm tx power rejected: %v", err)
	}
}

func TestRFConfig_ResourceBlocksDerived(t *testing.T) {
	cfg := testRFConfig() // 20 MHz, 15 kHz SCS
	// 95% of 20000 kHz over 180 kHz per RB -> 105.
	if got := cfg.ResourceBlocks(); got != 105 {
		t.Errorf("derived N_RB = %d, want 105", got)
	}

	cfg.NumResourceBlocks = 106
	if got := cfg.ResourceBlocks(); got != 106 {
		t.Errorf("explicit N_RB = %d, want 106", got)
	}
}

func TestQuality_NoClipping(t *testing.T) {
	// Two received powers ≥5 dB apart must stay ≥5 dB apart in RSRP.
	// Clipping to a reporting range once collapsed every satellite onto
	// the same boundary value.
	q, err := NewQualityCalculator(testRFConfig())
	if err != nil {
		t.Fatal(err)
	}

	rsrpA, _, _ := q.Quality(-45)
	rsrpB, _, _ := q.Quality(-52)
	if diff := rsrpA - rsrpB; math.Abs(diff-7) > 1e-9 {
		t.Errorf("RSRP difference = %.4f dB, want exactly 7 dB", diff)
	}

	// Values far outside the UE-report quantization range pass through
	// untouched.
	rsrpHot, _, _ := q.Quality(-10)
	if rsrpHot != -10 {
		t.Errorf("RSRP %.2f was altered; expected the raw computed value", rsrpHot)
	}
}

func TestQuality_SINRAgainstNoiseFloor(t *testing.T) {
	cfg := testRFConfig()
	q, err := NewQualityCalculator(cfg)
	if err != nil {
		t.Fatal(err)
	}

	received := -60.0
	_, _, sinr := q.Quality(received)
	want := received - cfg.ThermalNoiseDBm()
	if math.Abs(sinr-want) > 1e-9 {
		t.Errorf("interference-free SINR = %.4f, want %.4f", sinr, want)
	}
}

func TestQuality_InterferenceLowersSINR(t *testing.T) {
	base := testRFConfig()
	interfered := testRFConfig()
	iv := -85.0
	interfered.InterferenceDBm = &iv

	qBase, err := NewQualityCalculator(base)
	if err != nil {
		t.Fatal(err)
	}
	qInterf, err := NewQualityCalculator(interfered)
	if err != nil {
		t.Fatal(err)
	}

	_, _, sinrBase := qBase.Quality(-60)
	_, _, sinrInterf := qInterf.Quality(-60)
	if sinrInterf >= sinrBase {
		t.Errorf("interference did not lower SINR: %.4f vs %.4f", sinrInterf, sinrBase)
	}
}

func TestQuality_RSRQNegativeAndFiniteUnderNoise(t *testing.T) {
	q, err := NewQualityCalculator(testRFConfig())
	if err != nil {
		t.Fatal(err)
	}
	_, rsrq, _ := q.Quality(-70)
	if math.IsNaN(rsrq) || math.IsInf(rsrq, 0) {
		t.Fatalf("RSRQ not finite: %v", rsrq)
	}
	// RSSI exceeds RSRP by the noise contribution, so RSRQ stays below
	// 10*log10(N_RB).
	if ceiling := 10 * math.Log10(105); rsrq >= ceiling {
		t.Errorf("RSRQ %.4f above structural ceiling %.4f", rsrq, ceiling)
	}
}

func TestSample_PlausibilityWarning(t *testing.T) {
	q, err := NewQualityCalculator(testRFConfig())
	if err != nil {
		t.Fatal(err)
	}
	g := GeometrySample{SatelliteID: "sat-9", Time: time.Unix(42, 0).UTC(), ElevationDeg: 10, SlantRangeKm: 2000, IsConnectable: true}

	s, warn := q.Sample(g, LinkBudgetResult{ReceivedPowerDBm: -160, PathLossDB: 180, AtmosphericLossDB: 2})
	if warn == nil {
		t.Fatal("expected plausibility warning for -160 dBm RSRP")
	}
	if warn.SatelliteID != "sat-9" || warn.Quantity != "rsrp_dbm" {
		t.Errorf("warning misattributed: %+v", warn)
	}
	// The sample is retained with the true value, not discarded or clipped.
	if s.RSRPDBm != -160 {
		t.Errorf("sample RSRP = %.2f, want -160 retained", s.RSRPDBm)
	}

	_, warn = q.Sample(g, LinkBudgetResult{ReceivedPowerDBm: -80})
	if warn != nil {
		t.Errorf("unexpected warning for in-envelope RSRP: %v", warn)
	}
}
