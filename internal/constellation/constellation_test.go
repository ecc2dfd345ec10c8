package constellation

import (
	"errors"
	"strings"
	"testing"
)

// ISS TLE, 69 columns per line.
const (
	issTLE1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issTLE2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

func TestRegistry_AddAndList(t *testing.T) {
	r := NewRegistry()

	for _, id := range []string{"sat-b", "sat-a", "sat-c"} {
		err := r.AddSatellite(&Satellite{ID: id, TLELine1: issTLE1, TLELine2: issTLE2})
		if err != nil {
			t.Fatalf("AddSatellite(%q): %v", id, err)
		}
	}

	sats := r.ListSatellites()
	if len(sats) != 3 {
		t.Fatalf("got %d satellites, want 3", len(sats))
	}
	for i, want := range []string{"sat-a", "sat-b", "sat-c"} {
		if sats[i].ID != want {
			t.Errorf("ListSatellites()[%d] = %q, want %q (sorted)", i, sats[i].ID, want)
		}
	}
}

func TestRegistry_DuplicateSatellite(t *testing.T) {
	r := NewRegistry()
	sat := &Satellite{ID: "dup", TLELine1: issTLE1, TLELine2: issTLE2}
	if err := r.AddSatellite(sat); err != nil {
		t.Fatal(err)
	}
	err := r.AddSatellite(sat)
	if !errors.Is(err, ErrSatelliteExists) {
		t.Errorf("expected ErrSatelliteExists, got %v", err)
	}
}

func TestRegistry_RejectsMalformedTLE(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		name  string
		line1 string
		line2 string
	}{
		{"empty lines", "", ""},
		{"swapped markers", issTLE2, issTLE1},
		{"truncated", issTLE1[:40], issTLE2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := r.AddSatellite(&Satellite{ID: "x", TLELine1: tc.line1, TLELine2: tc.line2})
			if !errors.Is(err, ErrSatelliteBadInput) {
				t.Errorf("expected ErrSatelliteBadInput, got %v", err)
			}
		})
	}
}

func TestRegistry_GroundStation(t *testing.T) {
	r := NewRegistry()
	if _, err := r.GroundStation(); !errors.Is(err, ErrNoGroundStation) {
		t.Errorf("expected ErrNoGroundStation, got %v", err)
	}

	if err := r.SetGroundStation(&GroundStation{ID: "gs1", XKm: 6371}); err != nil {
		t.Fatal(err)
	}
	gs, err := r.GroundStation()
	if err != nil {
		t.Fatal(err)
	}
	if gs.ID != "gs1" {
		t.Errorf("got %q", gs.ID)
	}

	if err := r.SetGroundStation(&GroundStation{ID: "origin"}); err == nil {
		t.Error("expected error for zero position")
	}
}

func TestLoad_Scenario(t *testing.T) {
	payload := `{
		"ground_station": {"id": "gs-equator", "name": "Equator GS", "x_km": 6371, "y_km": 0, "z_km": 0},
		"satellites": [
			{"id": "iss", "name": "ISS", "tle_line1": "` + issTLE1 + `", "tle_line2": "` + issTLE2 + `"}
		]
	}`

	reg := NewRegistry()
	scn, err := Load(reg, strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	if scn.GroundStationID != "gs-equator" {
		t.Errorf("ground station id = %q", scn.GroundStationID)
	}
	if len(scn.SatelliteIDs) != 1 || scn.SatelliteIDs[0] != "iss" {
		t.Errorf("satellite ids = %v", scn.SatelliteIDs)
	}
	if _, err := reg.GetSatellite("iss"); err != nil {
		t.Errorf("satellite not registered: %v", err)
	}
}

func TestLoad_EmptyConstellation(t *testing.T) {
	payload := `{"ground_station": {"id": "gs", "x_km": 6371}, "satellites": []}`
	if _, err := Load(NewRegistry(), strings.NewReader(payload)); err == nil {
		t.Error("expected error for scenario with no satellites")
	}
}

func TestLoad_BadJSON(t *testing.T) {
	if _, err := Load(NewRegistry(), strings.NewReader("{not json")); err == nil {
		t.Error("expected decode error")
	}
}
