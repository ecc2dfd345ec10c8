package core

import "math"

// AtmosphereParams describes the ambient atmosphere at the ground location.
// All three fields are mandatory configuration; out-of-range values are
// validation errors, never clamped.
type AtmosphereParams struct {
	TemperatureK         float64 `json:"temperature_k" koanf:"temperature_k"`
	PressureHPa          float64 `json:"pressure_hpa" koanf:"pressure_hpa"`
	WaterVaporDensityGM3 float64 `json:"water_vapor_density_g_m3" koanf:"water_vapor_density_g_m3"`
}

// Physical validity bounds for AtmosphereParams. The envelope covers
// surface conditions from polar winter to extreme heat; anything outside
// is a data-entry mistake, not weather.
const (
	MinTemperatureK         = 200.0
	MaxTemperatureK         = 350.0
	MinPressureHPa          = 500.0
	MaxPressureHPa          = 1100.0
	MinWaterVaporDensityGM3 = 0.0
	MaxWaterVaporDensityGM3 = 30.0
)

// Validate checks the parameters against their physical bounds.
func (a AtmosphereParams) Validate() error {
	if a.TemperatureK < MinTemperatureK || a.TemperatureK > MaxTemperatureK {
		return &ConfigurationError{
			Field:  "atmosphere.temperature_k",
			Reason: "must be within [200, 350] K",
		}
	}
	if a.PressureHPa < MinPressureHPa || a.PressureHPa > MaxPressureHPa {
		return &ConfigurationError{
			Field:  "atmosphere.pressure_hpa",
			Reason: "must be within [500, 1100] hPa",
		}
	}
	if a.WaterVaporDensityGM3 < MinWaterVaporDensityGM3 || a.WaterVaporDensityGM3 > MaxWaterVaporDensityGM3 {
		return &ConfigurationError{
			Field:  "atmosphere.water_vapor_density_g_m3",
			Reason: "must be within [0, 30] g/m³",
		}
	}
	return nil
}

// Equivalent layer heights for the slant-path scaling of the zenith
// attenuation, per ITU-R P.676 (dry air ~6 km, water vapour ~2.1 km).
const (
	oxygenEquivalentHeightKm     = 6.0
	waterVaporEquivalentHeightKm = 2.1
)

// AttenuationDB returns the total gaseous attenuation in dB along the
// slant path at the given elevation and carrier frequency.
//
// The zenith attenuation combines the oxygen and water-vapour specific
// attenuations (dB/km, ITU-R P.676 reduced-line approximations) weighted
// by their equivalent layer heights, and the slant path scales it by the
// cosecant of the elevation angle. Attenuation is therefore strictly
// decreasing in elevation for fixed frequency and atmosphere.
//
// Defined only for elevationDeg > 0. Non-positive elevation is a hard
// error: encoding it as a large loss value would corrupt any power budget
// it is summed into.
func AttenuationDB(elevationDeg, frequencyGHz float64, atm AtmosphereParams) (float64, error) {
	if elevationDeg <= 0 {
		return 0, &InvalidGeometryError{
			ElevationDeg: elevationDeg,
			Reason:       "attenuation undefined for non-positive elevation",
		}
	}
	if frequencyGHz <= 0 {
		return 0, &ConfigurationError{
			Field:  "rf.carrier_frequency_ghz",
			Reason: "must be positive",
		}
	}
	if err := atm.Validate(); err != nil {
		return 0, err
	}

	gammaO := oxygenSpecificAttenuation(frequencyGHz, atm)
	gammaW := waterVaporSpecificAttenuation(frequencyGHz, atm)

	zenith := gammaO*oxygenEquivalentHeightKm + gammaW*waterVaporEquivalentHeightKm
	sinElev := math.Sin(elevationDeg * math.Pi / 180.0)
	return zenith / sinElev, nil
}

// oxygenSpecificAttenuation is the dry-air specific attenuation in dB/km
// for frequencies below the 57 GHz oxygen complex (ITU-R P.676 reduced
// form), scaled for pressure and temperature away from the 1013 hPa /
// 300 K reference.
func oxygenSpecificAttenuation(fGHz float64, atm AtmosphereParams) float64 {
	f2 := fGHz * fGHz
	base := (7.19e-3 + 6.09/(f2+0.227) + 4.81/((fGHz-57.0)*(fGHz-57.0)+1.50)) * f2 * 1e-3

	pressureRatio := atm.PressureHPa / 1013.0
	thetaRatio := 300.0 / atm.TemperatureK
	return base * pressureRatio * pressureRatio * thetaRatio * thetaRatio
}

// waterVaporSpecificAttenuation is the water-vapour specific attenuation
// in dB/km around the 22.235, 183.31 and 323.8 GHz resonance lines
// (ITU-R P.676 reduced form). Proportional to the supplied vapour density.
func waterVaporSpecificAttenuation(fGHz float64, atm AtmosphereParams) float64 {
	rho := atm.WaterVaporDensityGM3
	if rho == 0 {
		return 0
	}
	f2 := fGHz * fGHz
	base := (0.067 +
		3.0/((fGHz-22.3)*(fGHz-22.3)+7.3) +
		9.0/((fGHz-183.3)*(fGHz-183.3)+6.0) +
		4.3/((fGHz-323.8)*(fGHz-323.8)+10.0)) * f2 * rho * 1e-4

	thetaRatio := 300.0 / atm.TemperatureK
	return base * math.Pow(thetaRatio, 2.5)
}
