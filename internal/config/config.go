// Package config loads analyzer configuration with layered sources:
// built-in defaults, an optional YAML file, then environment variables,
// each layer overriding the previous. RF, atmosphere, and event
// parameters carry no defaults; a run without them is refused rather
// than silently evaluated with invented numbers.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/signalsfoundry/handover-analyzer/core"
	"github.com/signalsfoundry/handover-analyzer/internal/logging"
	"github.com/signalsfoundry/handover-analyzer/internal/observability"
)

// DefaultConfigPaths lists where a config file is searched when no path is
// given, in priority order.
var DefaultConfigPaths = []string{
	"analyzer.yaml",
	"analyzer.yml",
	"/etc/handover-analyzer/analyzer.yaml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "ANALYZER_CONFIG_PATH"

// envPrefix scopes which environment variables are read into the config.
const envPrefix = "ANALYZER_"

// requiredKeys are parameters with no legitimate implicit value. Presence
// is checked on the merged key set before unmarshalling, so an absent key
// and an explicit zero remain distinguishable.
var requiredKeys = []string{
	"rf.tx_power_dbm",
	"rf.tx_antenna_gain_dbi",
	"rf.rx_antenna_gain_dbi",
	"rf.noise_figure_db",
	"rf.bandwidth_mhz",
	"rf.subcarrier_spacing_khz",
	"rf.carrier_frequency_ghz",
	"atmosphere.temperature_k",
	"atmosphere.pressure_hpa",
	"atmosphere.water_vapor_density_g_m3",
}

// OrbitConfig describes the sampling window and the ground-station
// elevation mask.
type OrbitConfig struct {
	MinElevationDeg float64       `koanf:"min_elevation_deg" validate:"gte=0,lt=90"`
	Start           time.Time     `koanf:"start" validate:"required"`
	Step            time.Duration `koanf:"step" validate:"required"`
	Duration        time.Duration `koanf:"duration" validate:"required"`
}

// SelectionConfig names the serving-cell selection policy.
type SelectionConfig struct {
	Policy     string  `koanf:"policy" validate:"omitempty,oneof=median_rsrp max_rsrp percentile_rsrp"`
	Percentile float64 `koanf:"percentile" validate:"gte=0,lte=100"`
}

// Build resolves the named policy into its implementation.
func (c SelectionConfig) Build() (core.SelectionPolicy, error) {
	switch c.Policy {
	case "", "median_rsrp":
		return core.MedianRSRP{}, nil
	case "max_rsrp":
		return core.MaxRSRP{}, nil
	case "percentile_rsrp":
		return core.PercentileRSRP{Percentile: c.Percentile}, nil
	default:
		return nil, &core.ConfigurationError{Field: "selection.policy", Reason: fmt.Sprintf("unknown policy %q", c.Policy)}
	}
}

// ObservabilityConfig wires the optional metrics listener and tracing.
type ObservabilityConfig struct {
	MetricsListen string                      `koanf:"metrics_listen"`
	Tracing       observability.TracingConfig `koanf:"tracing"`
}

// OutputConfig says where the run result is written. An empty path means
// stdout.
type OutputConfig struct {
	Path   string `koanf:"path"`
	Pretty bool   `koanf:"pretty"`
}

// Config is the full analyzer configuration.
type Config struct {
	Constellation string `koanf:"constellation" validate:"required"`

	RF         core.RFConfig         `koanf:"rf"`
	Atmosphere core.AtmosphereParams `koanf:"atmosphere"`
	Events     core.DetectorConfig   `koanf:"events"`

	Selection SelectionConfig `koanf:"selection"`
	Orbit     OrbitConfig     `koanf:"orbit"`
	Workers   int             `koanf:"workers" validate:"gte=0,lte=256"`

	Logging       logging.Config      `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
	Output        OutputConfig        `koanf:"output"`
}

// defaultConfig carries only ambient defaults. Physics and event
// parameters are deliberately absent.
func defaultConfig() *Config {
	return &Config{
		Selection: SelectionConfig{Policy: "median_rsrp", Percentile: 50},
		Orbit:     OrbitConfig{MinElevationDeg: 10},
		Workers:   4,
		Logging:   logging.Config{Level: "info", Format: "text"},
		Observability: ObservabilityConfig{
			Tracing: observability.TracingConfig{
				ServiceName: "handover-analyzer",
				Exporter:    "stdout",
				SampleRatio: 1.0,
			},
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// the default search locations when path is empty), and ANALYZER_*
// environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	// ANALYZER_RF__TX_POWER_DBM -> rf.tx_power_dbm
	envProvider := env.Provider(envPrefix, ".", func(key string) string {
		key = strings.TrimPrefix(key, envPrefix)
		return strings.ReplaceAll(strings.ToLower(key), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	for _, key := range requiredKeys {
		if !k.Exists(key) {
			return nil, &core.ConfigurationError{Field: key, Reason: "must be supplied"}
		}
	}

	applyA5Preset(k)

	// Event thresholds share the mandatory-presence rule. 0 dBm is a legal
	// boundary value for them, so absence cannot be inferred from a zero
	// after unmarshalling.
	if k.Exists("events.a4") && !k.Exists("events.a4.threshold_dbm") {
		return nil, &core.ConfigurationError{Field: "events.a4.threshold_dbm", Reason: "must be supplied"}
	}
	if k.Exists("events.a5") {
		for _, key := range []string{"events.a5.threshold1_dbm", "events.a5.threshold2_dbm"} {
			if !k.Exists(key) {
				return nil, &core.ConfigurationError{Field: key, Reason: "must be supplied (directly or via preset)"}
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyA5Preset expands events.a5.preset into concrete thresholds before
// unmarshalling. Explicit threshold keys in the same file override the
// preset values.
func applyA5Preset(k *koanf.Koanf) {
	preset := strings.ToLower(k.String("events.a5.preset"))
	if preset == "" {
		return
	}

	var base *core.A5Config
	switch preset {
	case "terrestrial":
		base = core.A5TerrestrialPreset()
	case "leo":
		base = core.A5LEOPreset()
	default:
		// Unknown preset names fall through to validation, which will
		// reject the half-filled A5 config.
		return
	}

	if !k.Exists("events.a5.threshold1_dbm") {
		_ = k.Set("events.a5.threshold1_dbm", base.Threshold1DBm)
	}
	if !k.Exists("events.a5.threshold2_dbm") {
		_ = k.Set("events.a5.threshold2_dbm", base.Threshold2DBm)
	}
	if !k.Exists("events.a5.provenance") {
		_ = k.Set("events.a5.provenance", base.Provenance)
	}
}

// Validate checks structural constraints with the validator tags, then
// defers to the physics and detector validators for their own ranges.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &core.ConfigurationError{
				Field:  strings.ToLower(fe.Namespace()),
				Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
			}
		}
		return err
	}

	if err := c.RF.Validate(); err != nil {
		return err
	}
	if err := c.Atmosphere.Validate(); err != nil {
		return err
	}
	if err := c.Events.Validate(); err != nil {
		return err
	}
	if _, err := c.Selection.Build(); err != nil {
		return err
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
