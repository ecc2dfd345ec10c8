package core

import (
	"testing"
	"time"
)

func obsWithRSRP(id string, rsrp float64) Observation {
	return Observation{
		SatelliteID: id,
		Time:        time.Unix(0, 0).UTC(),
		RSRPDBm:     rsrp,
	}
}

func TestMedianRSRP_OddSet(t *testing.T) {
	obs := []Observation{
		obsWithRSRP("sat-c", -60),
		obsWithRSRP("sat-a", -80),
		obsWithRSRP("sat-b", -70),
	}
	got, err := MedianRSRP{}.Select(obs)
	if err != nil {
		t.Fatal(err)
	}
	if got.SatelliteID != "sat-b" {
		t.Errorf("median of odd set = %q, want sat-b (-70 dBm)", got.SatelliteID)
	}
}

func TestMedianRSRP_EvenSetTieBreaksByID(t *testing.T) {
	obs := []Observation{
		obsWithRSRP("sat-d", -55),
		obsWithRSRP("sat-b", -65),
		obsWithRSRP("sat-c", -60),
		obsWithRSRP("sat-a", -75),
	}
	// Central candidates by RSRP are sat-c (-60) and sat-b (-65); the
	// lower satellite identifier wins.
	got, err := MedianRSRP{}.Select(obs)
	if err != nil {
		t.Fatal(err)
	}
	if got.SatelliteID != "sat-b" {
		t.Errorf("even-set median = %q, want sat-b", got.SatelliteID)
	}
}

func TestMedianRSRP_SingleSatelliteIsServing(t *testing.T) {
	got, err := MedianRSRP{}.Select([]Observation{obsWithRSRP("only", -90)})
	if err != nil {
		t.Fatal(err)
	}
	if got.SatelliteID != "only" {
		t.Errorf("sole satellite not selected: %q", got.SatelliteID)
	}
}

func TestMedianRSRP_EmptySetErrors(t *testing.T) {
	if _, err := (MedianRSRP{}).Select(nil); err == nil {
		t.Error("expected error for empty set")
	}
}

func TestMedianRSRP_IndependentOfInputOrder(t *testing.T) {
	a := []Observation{obsWithRSRP("s1", -60), obsWithRSRP("s2", -70), obsWithRSRP("s3", -80)}
	b := []Observation{obsWithRSRP("s3", -80), obsWithRSRP("s1", -60), obsWithRSRP("s2", -70)}

	ga, err := MedianRSRP{}.Select(a)
	if err != nil {
		t.Fatal(err)
	}
	gb, err := MedianRSRP{}.Select(b)
	if err != nil {
		t.Fatal(err)
	}
	if ga.SatelliteID != gb.SatelliteID {
		t.Errorf("selection depends on input order: %q vs %q", ga.SatelliteID, gb.SatelliteID)
	}
}

func TestMaxRSRP_PicksStrongest(t *testing.T) {
	obs := []Observation{
		obsWithRSRP("weak", -90),
		obsWithRSRP("strong", -50),
		obsWithRSRP("mid", -70),
	}
	got, err := MaxRSRP{}.Select(obs)
	if err != nil {
		t.Fatal(err)
	}
	if got.SatelliteID != "strong" {
		t.Errorf("max policy selected %q", got.SatelliteID)
	}
}

func TestPercentileRSRP(t *testing.T) {
	obs := []Observation{
		obsWithRSRP("p0", -90),
		obsWithRSRP("p1", -80),
		obsWithRSRP("p2", -70),
		obsWithRSRP("p3", -60),
		obsWithRSRP("p4", -50),
	}

	got, err := PercentileRSRP{Percentile: 100}.Select(obs)
	if err != nil {
		t.Fatal(err)
	}
	if got.SatelliteID != "p4" {
		t.Errorf("100th percentile = %q, want p4", got.SatelliteID)
	}

	got, err = PercentileRSRP{Percentile: 50}.Select(obs)
	if err != nil {
		t.Fatal(err)
	}
	if got.SatelliteID != "p2" {
		t.Errorf("50th percentile = %q, want p2", got.SatelliteID)
	}

	if _, err := (PercentileRSRP{Percentile: 120}).Select(obs); err == nil {
		t.Error("expected error for percentile outside [0, 100]")
	}
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	obs := []Observation{obsWithRSRP("z", -50), obsWithRSRP("a", -90)}
	if _, err := (MedianRSRP{}).Select(obs); err != nil {
		t.Fatal(err)
	}
	if obs[0].SatelliteID != "z" || obs[1].SatelliteID != "a" {
		t.Error("selector reordered the caller's slice")
	}
}
