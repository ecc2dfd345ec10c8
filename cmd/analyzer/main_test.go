package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/handover-analyzer/core"
	"github.com/signalsfoundry/handover-analyzer/internal/config"
	"github.com/signalsfoundry/handover-analyzer/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID: "f31b3a1c-6f7e-4ba0-bb8a-5f9f7c9a8d21",
		Samples: []core.SignalQualitySample{
			{
				SatelliteID: "sat-a",
				Time:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				RSRPDBm:     -71.2,
				RSRQDB:      -10.4,
				SINRDB:      18.9,
			},
		},
		Events: []core.HandoverEvent{
			{
				Type:                 core.EventA3,
				Time:                 time.Date(2026, 3, 1, 12, 3, 30, 0, time.UTC),
				ServingSatelliteID:   "sat-a",
				NeighbourSatelliteID: "sat-b",
				Entered:              true,
			},
		},
	}
}

func TestWriteResult_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	out := config.OutputConfig{Path: path, Pretty: true}

	if err := writeResult(out, sampleResult()); err != nil {
		t.Fatal(err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(body)
	for _, want := range []string{`"run_id"`, `"sat-a"`, `"A3"`, `"entered_condition": true`} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %s:\n%s", want, text)
		}
	}
}

func TestWriteResult_FailsOnBadPath(t *testing.T) {
	out := config.OutputConfig{Path: filepath.Join(t.TempDir(), "missing", "result.json")}
	if err := writeResult(out, sampleResult()); err == nil {
		t.Error("expected error for unwritable path")
	}
}
