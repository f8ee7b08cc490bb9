// Package config loads run configuration for the forward-model tools.
//
// Configuration is YAML layered over Default(), then environment overrides
// (MAGFWD_*), then command-line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks structurally invalid configuration.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration document.
type Config struct {
	Body    BodyConfig    `yaml:"body"`
	Profile ProfileConfig `yaml:"profile"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Sweep   SweepConfig   `yaml:"sweep"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Server  ServerConfig  `yaml:"server"`
}

// BodyConfig holds the physical parameters. Angles are in degrees.
type BodyConfig struct {
	Mu0                     float64 `yaml:"mu0"`
	Volume                  float64 `yaml:"volume"`
	Magnetization           float64 `yaml:"magnetization"`
	Depth                   float64 `yaml:"depth"`
	EffectiveInclinationDeg float64 `yaml:"effective_inclination_deg"`
	InclinationDeg          float64 `yaml:"inclination_deg"`
	AzimuthDeg              float64 `yaml:"azimuth_deg"`
}

// ProfileConfig is the 1-D cylinder profile.
type ProfileConfig struct {
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Points int     `yaml:"points"`
}

// MeshConfig is the square sphere mesh. Extent 0 means the body depth.
type MeshConfig struct {
	Extent float64 `yaml:"extent"`
	Points int     `yaml:"points"`
}

// SweepConfig bounds the inclination sweep. Workers 0 means GOMAXPROCS.
// Interval paces frame output; 0 writes frames as soon as they are ready.
type SweepConfig struct {
	StartDeg int           `yaml:"start_deg"`
	EndDeg   int           `yaml:"end_deg"`
	Workers  int           `yaml:"workers"`
	Interval time.Duration `yaml:"interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type ServerConfig struct {
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the reference configuration.
func Default() Config {
	in := model.DefaultInput()
	return Config{
		Body: BodyConfig{
			Mu0:                     in.Mu0,
			Volume:                  in.Volume,
			Magnetization:           in.Magnetization,
			Depth:                   in.Depth,
			EffectiveInclinationDeg: in.EffectiveInclinationDeg,
			InclinationDeg:          in.InclinationDeg,
			AzimuthDeg:              in.AzimuthDeg,
		},
		Profile: ProfileConfig{
			Min:    -core.ProfileHalfWidth,
			Max:    core.ProfileHalfWidth,
			Points: core.ProfilePoints,
		},
		Mesh: MeshConfig{Points: core.MeshPoints},
		Sweep: SweepConfig{
			StartDeg: core.SweepStartDeg,
			EndDeg:   core.SweepEndDeg,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{
			ServiceName: "magfwd",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
		Server: ServerConfig{
			GRPCAddr:    ":50051",
			MetricsAddr: ":9090",
		},
	}
}

// Load decodes YAML from r over Default(). Unknown keys are rejected.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("config: read failed: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode failed: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads and decodes the YAML file at path. An empty path yields
// Default().
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// ApplyEnv overlays MAGFWD_* variables read through lookup (os.LookupEnv in
// production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	floats := []struct {
		key string
		dst *float64
	}{
		{"MAGFWD_DEPTH", &c.Body.Depth},
		{"MAGFWD_MAGNETIZATION", &c.Body.Magnetization},
		{"MAGFWD_VOLUME", &c.Body.Volume},
	}
	for _, f := range floats {
		raw, ok := lookup(f.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, f.key, raw, err)
		}
		*f.dst = v
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"MAGFWD_LOG_LEVEL", &c.Logging.Level},
		{"MAGFWD_LOG_FORMAT", &c.Logging.Format},
		{"MAGFWD_GRPC_ADDR", &c.Server.GRPCAddr},
		{"MAGFWD_METRICS_ADDR", &c.Server.MetricsAddr},
	}
	for _, s := range strs {
		if raw, ok := lookup(s.key); ok && raw != "" {
			*s.dst = raw
		}
	}
	return c.Validate()
}

// Validate checks structural constraints. Physical constraints are enforced
// by model.NewParameterSet.
func (c Config) Validate() error {
	if c.Profile.Points < 1 {
		return fmt.Errorf("%w: profile.points must be >= 1, got %d", ErrInvalidConfig, c.Profile.Points)
	}
	if c.Profile.Min > c.Profile.Max {
		return fmt.Errorf("%w: profile.min %g is greater than profile.max %g", ErrInvalidConfig, c.Profile.Min, c.Profile.Max)
	}
	if c.Mesh.Points < 1 {
		return fmt.Errorf("%w: mesh.points must be >= 1, got %d", ErrInvalidConfig, c.Mesh.Points)
	}
	if c.Mesh.Extent < 0 {
		return fmt.Errorf("%w: mesh.extent must be >= 0, got %g", ErrInvalidConfig, c.Mesh.Extent)
	}
	if c.Sweep.StartDeg > c.Sweep.EndDeg {
		return fmt.Errorf("%w: sweep.start_deg %d is after sweep.end_deg %d", ErrInvalidConfig, c.Sweep.StartDeg, c.Sweep.EndDeg)
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("%w: sweep.workers must be >= 0, got %d", ErrInvalidConfig, c.Sweep.Workers)
	}
	if c.Sweep.Interval < 0 {
		return fmt.Errorf("%w: sweep.interval must be >= 0, got %s", ErrInvalidConfig, c.Sweep.Interval)
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("%w: tracing.sample_ratio must be within [0, 1], got %g", ErrInvalidConfig, r)
	}
	return nil
}

// Input converts the body section into model input.
func (b BodyConfig) Input() model.ParameterInput {
	return model.ParameterInput{
		Mu0:                     b.Mu0,
		Volume:                  b.Volume,
		Magnetization:           b.Magnetization,
		Depth:                   b.Depth,
		EffectiveInclinationDeg: b.EffectiveInclinationDeg,
		InclinationDeg:          b.InclinationDeg,
		AzimuthDeg:              b.AzimuthDeg,
	}
}

// Parameters validates the body section.
func (c Config) Parameters() (model.ParameterSet, error) {
	return model.NewParameterSet(c.Body.Input())
}

// ProfileX samples the configured cylinder profile.
func (c Config) ProfileX() ([]float64, error) {
	return core.Linspace(c.Profile.Min, c.Profile.Max, c.Profile.Points)
}

// MeshFor samples the configured sphere mesh for a body at p.Depth().
func (c Config) MeshFor(p model.ParameterSet) (core.Matrix, core.Matrix, error) {
	extent := c.Mesh.Extent
	if extent == 0 {
		extent = p.Depth()
	}
	return core.SphereMesh(extent, c.Mesh.Points)
}

// SweepAngles returns the configured inclination range.
func (c Config) SweepAngles() ([]int, error) {
	return core.DegreeRange(c.Sweep.StartDeg, c.Sweep.EndDeg)
}
