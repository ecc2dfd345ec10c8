package core

import (
	"errors"
	"testing"
)

func testAtmosphere() AtmosphereParams {
	return AtmosphereParams{
		TemperatureK:         290,
		PressureHPa:          1013,
		WaterVaporDensityGM3: 7.5,
	}
}

func TestAttenuationDB_MonotonicInElevation(t *testing.T) {
	atm := testAtmosphere()
	prev := -1.0
	for elev := 89.0; elev >= 1.0; elev -= 1.0 {
		a, err := AttenuationDB(elev, 20.0, atm)
		if err != nil {
			t.Fatalf("AttenuationDB(%v): %v", elev, err)
		}
		if a <= prev {
			t.Fatalf("attenuation not strictly increasing as elevation drops: %.6f dB at %v° vs %.6f dB one degree higher", a, elev, prev)
		}
		prev = a
	}
}

func TestAttenuationDB_NonPositiveElevation(t *testing.T) {
	atm := testAtmosphere()
	for _, elev := range []float64{0, -0.1, -45} {
		_, err := AttenuationDB(elev, 20.0, atm)
		if err == nil {
			t.Fatalf("expected error for elevation %v", elev)
		}
		var ge *InvalidGeometryError
		if !errors.As(err, &ge) {
			t.Errorf("expected InvalidGeometryError for elevation %v, got %T", elev, err)
		}
	}
}

func TestAttenuationDB_WaterVaporIncreasesLoss(t *testing.T) {
	dry := testAtmosphere()
	dry.WaterVaporDensityGM3 = 0
	humid := testAtmosphere()
	humid.WaterVaporDensityGM3 = 25

	aDry, err := AttenuationDB(30, 20.0, dry)
	if err != nil {
		t.Fatal(err)
	}
	aHumid, err := AttenuationDB(30, 20.0, humid)
	if err != nil {
		t.Fatal(err)
	}
	if aHumid <= aDry {
		t.Errorf("expected humid attenuation (%.4f dB) above dry (%.4f dB)", aHumid, aDry)
	}
}

func TestAtmosphereParams_Validate(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*AtmosphereParams)
	}{
		{"temperature low", func(a *AtmosphereParams) { a.TemperatureK = 150 }},
		{"temperature high", func(a *AtmosphereParams) { a.TemperatureK = 400 }},
		{"pressure low", func(a *AtmosphereParams) { a.PressureHPa = 300 }},
		{"pressure high", func(a *AtmosphereParams) { a.PressureHPa = 1200 }},
		{"vapor negative", func(a *AtmosphereParams) { a.WaterVaporDensityGM3 = -1 }},
		{"vapor high", func(a *AtmosphereParams) { a.WaterVaporDensityGM3 = 40 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			atm := testAtmosphere()
			tc.mod(&atm)
			err := atm.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Errorf("expected ConfigurationError, got %T", err)
			}
		})
	}

	if err := testAtmosphere().Validate(); err != nil {
		t.Errorf("valid atmosphere rejected: %v", err)
	}
}

func TestAttenuationDB_NoSentinelMagnitude(t *testing.T) {
	// Invalid geometry must surface as an error with a zero value, never
	// as a large-but-summable loss.
	a, err := AttenuationDB(-5, 20.0, testAtmosphere())
	if err == nil {
		t.Fatal("expected error")
	}
	if a != 0 {
		t.Errorf("error path returned non-zero attenuation %v", a)
	}
}
