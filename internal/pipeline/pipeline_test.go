package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/signalsfoundry/handover-analyzer/core"
)

func testConfig() Config {
	return Config{
		RF: core.RFConfig{
			TxPowerDBm:           70,
			TxAntennaGainDBi:     30,
			RxAntennaGainDBi:     25,
			NoiseFigureDB:        7,
			BandwidthMHz:         20,
			SubcarrierSpacingKHz: 15,
			CarrierFrequencyGHz:  20,
		},
		Atmosphere: core.AtmosphereParams{
			TemperatureK:         290,
			PressureHPa:          1013,
			WaterVaporDensityGM3: 7.5,
		},
	}
}

func a3Config(ttt time.Duration) core.DetectorConfig {
	return core.DetectorConfig{
		A3: &core.A3Config{
			HysteresisDB:  1,
			TimeToTrigger: ttt,
			Provenance:    "test: a3 rise scenario",
		},
	}
}

// twoSatelliteSeries builds a handover scenario on a 10-instant, 1s grid:
// sat-a holds steady at 30° / 1200 km while sat-b starts low and distant
// and rises to 60° / 800 km halfway through.
func twoSatelliteSeries(start time.Time) map[string][]core.GeometrySample {
	series := map[string][]core.GeometrySample{}
	for i := 0; i < 10; i++ {
		t := start.Add(time.Duration(i) * time.Second)
		series["sat-a"] = append(series["sat-a"], core.GeometrySample{
			SatelliteID: "sat-a", Time: t,
			ElevationDeg: 30, SlantRangeKm: 1200, IsConnectable: true,
		})
		b := core.GeometrySample{
			SatelliteID: "sat-b", Time: t,
			ElevationDeg: 5, SlantRangeKm: 2500, IsConnectable: true,
		}
		if i >= 5 {
			b.ElevationDeg = 60
			b.SlantRangeKm = 800
		}
		series["sat-b"] = append(series["sat-b"], b)
	}
	return series
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Detector = a3Config(0)
	cfg.RF.BandwidthMHz = 0
	if _, err := New(cfg, nil, nil); err == nil {
		t.Error("expected error for missing bandwidth")
	}

	cfg = testConfig()
	cfg.Detector = core.DetectorConfig{}
	if _, err := New(cfg, nil, nil); err == nil {
		t.Error("expected error for empty detector config")
	}

	cfg = testConfig()
	cfg.Detector = a3Config(0)
	cfg.Atmosphere.TemperatureK = 100
	if _, err := New(cfg, nil, nil); err == nil {
		t.Error("expected error for out-of-range temperature")
	}
}

func TestRun_EmptyInput(t *testing.T) {
	cfg := testConfig()
	cfg.Detector = a3Config(0)
	p, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background(), nil); err == nil {
		t.Error("expected error for empty series map")
	}
}

func TestRun_FiltersNonConnectable(t *testing.T) {
	cfg := testConfig()
	cfg.Detector = a3Config(0)
	p, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	series := map[string][]core.GeometrySample{
		"sat-a": {
			{SatelliteID: "sat-a", Time: start, ElevationDeg: 30, SlantRangeKm: 1200, IsConnectable: true},
			{SatelliteID: "sat-a", Time: start.Add(time.Second), ElevationDeg: -3, SlantRangeKm: 3000, IsConnectable: false},
		},
	}

	res, err := p.Run(context.Background(), series)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Samples) != 1 {
		t.Fatalf("got %d samples, want 1 (masked sample dropped)", len(res.Samples))
	}
	if !res.Samples[0].Time.Equal(start) {
		t.Errorf("surviving sample at %v, want %v", res.Samples[0].Time, start)
	}
}

func TestRun_AbortsOnBadGeometry(t *testing.T) {
	cfg := testConfig()
	cfg.Detector = a3Config(0)
	p, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	series := map[string][]core.GeometrySample{
		"sat-a": {
			// Marked connectable but geometrically impossible.
			{SatelliteID: "sat-a", Time: start, ElevationDeg: -5, SlantRangeKm: 1200, IsConnectable: true},
		},
	}

	res, err := p.Run(context.Background(), series)
	if err == nil {
		t.Fatal("expected evaluation error for negative elevation")
	}
	if res != nil {
		t.Error("expected no partial output on error")
	}
}

func TestRun_DetectsA3Handover(t *testing.T) {
	cfg := testConfig()
	cfg.Detector = a3Config(2 * time.Second)
	p, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res, err := p.Run(context.Background(), twoSatelliteSeries(start))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(res.Events), res.Events)
	}
	ev := res.Events[0]
	if ev.Type != core.EventA3 || !ev.Entered {
		t.Errorf("event = %+v, want entered A3", ev)
	}
	if ev.ServingSatelliteID != "sat-a" || ev.NeighbourSatelliteID != "sat-b" {
		t.Errorf("event pairing = %s/%s, want sat-a/sat-b", ev.ServingSatelliteID, ev.NeighbourSatelliteID)
	}
	// Condition first holds at instant 5; 2s time-to-trigger fires at 7.
	if want := start.Add(7 * time.Second); !ev.Time.Equal(want) {
		t.Errorf("event at %v, want %v", ev.Time, want)
	}
	if ev.NeighbourRSRPDBm <= ev.ServingRSRPDBm {
		t.Errorf("neighbour RSRP %.2f not above serving %.2f", ev.NeighbourRSRPDBm, ev.ServingRSRPDBm)
	}
}

func TestRun_SamplesOrderedByTimeThenID(t *testing.T) {
	cfg := testConfig()
	cfg.Detector = a3Config(time.Second)
	p, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res, err := p.Run(context.Background(), twoSatelliteSeries(start))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Samples) != 20 {
		t.Fatalf("got %d samples, want 20", len(res.Samples))
	}
	for i := 1; i < len(res.Samples); i++ {
		prev, cur := res.Samples[i-1], res.Samples[i]
		if cur.Time.Before(prev.Time) {
			t.Fatalf("sample %d out of time order", i)
		}
		if cur.Time.Equal(prev.Time) && cur.SatelliteID <= prev.SatelliteID {
			t.Fatalf("sample %d breaks ID tie-break: %s after %s", i, cur.SatelliteID, prev.SatelliteID)
		}
	}
}

func TestRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	series := twoSatelliteSeries(start)

	run := func(workers int) *Result {
		t.Helper()
		cfg := testConfig()
		cfg.Detector = a3Config(2 * time.Second)
		cfg.Workers = workers
		p, err := New(cfg, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		res, err := p.Run(context.Background(), series)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	one := run(1)
	many := run(8)

	if len(one.Samples) != len(many.Samples) {
		t.Fatalf("sample counts differ: %d vs %d", len(one.Samples), len(many.Samples))
	}
	for i := range one.Samples {
		if one.Samples[i] != many.Samples[i] {
			t.Fatalf("sample %d differs across worker counts:\n%+v\n%+v", i, one.Samples[i], many.Samples[i])
		}
	}
	if len(one.Events) != len(many.Events) {
		t.Fatalf("event counts differ: %d vs %d", len(one.Events), len(many.Events))
	}
	for i := range one.Events {
		if one.Events[i] != many.Events[i] {
			t.Fatalf("event %d differs across worker counts", i)
		}
	}
}
