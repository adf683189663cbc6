// Package config loads pass-planning scenarios from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // output zones must resolve on hosts without zoneinfo

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/pass-planner/core"
	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/model"
	"github.com/signalsfoundry/pass-planner/tle"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Daylight policy names.
const (
	DaylightHours = "hours"
	DaylightSun   = "sun"
	DaylightNone  = "none"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// Config is one scenario file.
type Config struct {
	Window     WindowConfig      `yaml:"window"`
	Output     OutputConfig      `yaml:"output"`
	Daylight   DaylightConfig    `yaml:"daylight"`
	Planner    PlannerConfig     `yaml:"planner"`
	Tracker    TrackerConfig     `yaml:"tracker"`
	Server     ServerConfig      `yaml:"server"`
	Satellites []SatelliteConfig `yaml:"satellites"`
	TLEFiles   []TLEFileConfig   `yaml:"tle_files"`
	Targets    []TargetConfig    `yaml:"targets"`

	// baseDir resolves relative TLE file paths.
	baseDir string
}

// WindowConfig is the planning interval. An empty Start means "now".
type WindowConfig struct {
	Start    string        `yaml:"start"`
	Duration time.Duration `yaml:"duration"`
}

type OutputConfig struct {
	Timezone string `yaml:"timezone"`
	Format   string `yaml:"format"`
}

// DaylightConfig selects how daylight-dependent sensors are gated.
type DaylightConfig struct {
	Policy          string        `yaml:"policy"`
	StartHour       int           `yaml:"start_hour"`
	EndHour         int           `yaml:"end_hour"`
	Timezone        string        `yaml:"timezone"`
	MinSunElevation float64       `yaml:"min_sun_elevation"`
	SearchStep      time.Duration `yaml:"search_step"`
}

type PlannerConfig struct {
	Workers               int      `yaml:"workers"`
	MaxPasses             int      `yaml:"max_passes"`
	Categories            []string `yaml:"categories"`
	SensorTypes           []string `yaml:"sensor_types"`
	IncludeGeosynchronous bool     `yaml:"include_geosynchronous"`
}

type TrackerConfig struct {
	Station      StationConfig `yaml:"station"`
	MinElevation float64       `yaml:"min_elevation"`
	MaxPasses    int           `yaml:"max_passes"`
	Tick         time.Duration `yaml:"tick"`
	Speed        float64       `yaml:"speed"`
}

type StationConfig struct {
	Name      string  `yaml:"name"`
	Longitude float64 `yaml:"longitude"`
	Latitude  float64 `yaml:"latitude"`
	Height    float64 `yaml:"height"`
}

type ServerConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// SatelliteConfig is an inline catalogue entry. TLE holds a two- or
// three-line block; Line1 and Line2 may be given instead.
type SatelliteConfig struct {
	ID          string                `yaml:"id"`
	Name        string                `yaml:"name"`
	Category    string                `yaml:"category"`
	Sensor      string                `yaml:"sensor"`
	OrbitalType string                `yaml:"orbital_type"`
	Tags        []string              `yaml:"tags"`
	Envelope    *model.SensorEnvelope `yaml:"envelope"`
	TLE         string                `yaml:"tle"`
	Line1       string                `yaml:"line1"`
	Line2       string                `yaml:"line2"`
}

// TLEFileConfig imports a whole catalogue file. Every entry gets the
// listed defaults and is keyed by its NORAD number.
type TLEFileConfig struct {
	Path     string                `yaml:"path"`
	Category string                `yaml:"category"`
	Sensor   string                `yaml:"sensor"`
	Tags     []string              `yaml:"tags"`
	Envelope *model.SensorEnvelope `yaml:"envelope"`
}

type TargetConfig struct {
	ID       string                `yaml:"id"`
	Name     string                `yaml:"name"`
	Vertices []model.GeodeticPoint `yaml:"vertices"`
}

// Default returns a config with every optional field filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Window.Duration == 0 {
		c.Window.Duration = 24 * time.Hour
	}
	if c.Output.Timezone == "" {
		c.Output.Timezone = "UTC"
	}
	if c.Output.Format == "" {
		c.Output.Format = FormatTable
	}
	if c.Daylight.Policy == "" {
		c.Daylight.Policy = DaylightHours
	}
	if c.Daylight.StartHour == 0 && c.Daylight.EndHour == 0 {
		c.Daylight.StartHour, c.Daylight.EndHour = 9, 19
	}
	if c.Daylight.Timezone == "" {
		c.Daylight.Timezone = c.Output.Timezone
	}
	if c.Tracker.MinElevation == 0 {
		c.Tracker.MinElevation = core.DefaultMinElevation
	}
	if c.Tracker.MaxPasses == 0 {
		c.Tracker.MaxPasses = 20
	}
	if c.Tracker.Tick == 0 {
		c.Tracker.Tick = time.Minute
	}
	if c.Tracker.Speed == 0 {
		c.Tracker.Speed = 1
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":9090"
	}
}

// Load reads, parses and validates the scenario at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes YAML, rejecting unknown keys, then applies defaults and
// validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and reports the first problem found.
func (c *Config) Validate() error {
	if c.Window.Start != "" {
		if _, err := time.Parse(time.RFC3339, c.Window.Start); err != nil {
			return fmt.Errorf("%w: window.start: %v", ErrInvalidConfig, err)
		}
	}
	if c.Window.Duration <= 0 {
		return fmt.Errorf("%w: window.duration must be positive", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Output.Timezone); err != nil {
		return fmt.Errorf("%w: output.timezone: %v", ErrInvalidConfig, err)
	}
	switch c.Output.Format {
	case FormatJSON, FormatTable:
	default:
		return fmt.Errorf("%w: output.format %q", ErrInvalidConfig, c.Output.Format)
	}
	if _, err := c.DaylightPolicy(); err != nil {
		return err
	}
	if c.Planner.Workers < 0 || c.Planner.MaxPasses < 0 {
		return fmt.Errorf("%w: planner workers and max_passes must not be negative", ErrInvalidConfig)
	}
	if _, err := c.SensorTypes(); err != nil {
		return err
	}
	if err := core.ValidateStation(c.Station()); err != nil {
		return fmt.Errorf("%w: tracker.station: %v", ErrInvalidConfig, err)
	}
	if c.Tracker.Tick < 0 || c.Tracker.Speed < 0 {
		return fmt.Errorf("%w: tracker tick and speed must not be negative", ErrInvalidConfig)
	}

	seen := make(map[string]bool)
	for i, s := range c.Satellites {
		if s.ID == "" {
			return fmt.Errorf("%w: satellites[%d]: empty id", ErrInvalidConfig, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: satellites[%d]: duplicate id %q", ErrInvalidConfig, i, s.ID)
		}
		seen[s.ID] = true
		if _, err := model.ParseSensorType(s.Sensor); err != nil {
			return fmt.Errorf("%w: satellite %s: %v", ErrInvalidConfig, s.ID, err)
		}
		if s.TLE == "" && (s.Line1 == "" || s.Line2 == "") {
			return fmt.Errorf("%w: satellite %s: tle or line1/line2 required", ErrInvalidConfig, s.ID)
		}
		if s.Envelope != nil {
			if err := core.ValidateEnvelope(*s.Envelope); err != nil {
				return fmt.Errorf("%w: satellite %s: %v", ErrInvalidConfig, s.ID, err)
			}
		}
	}
	for i, f := range c.TLEFiles {
		if f.Path == "" {
			return fmt.Errorf("%w: tle_files[%d]: empty path", ErrInvalidConfig, i)
		}
		if _, err := model.ParseSensorType(f.Sensor); err != nil {
			return fmt.Errorf("%w: tle_files[%d]: %v", ErrInvalidConfig, i, err)
		}
		if f.Envelope != nil {
			if err := core.ValidateEnvelope(*f.Envelope); err != nil {
				return fmt.Errorf("%w: tle_files[%d]: %v", ErrInvalidConfig, i, err)
			}
		}
	}
	if len(c.Targets) > 0 {
		if err := core.ValidateTargets(c.AreaTargets()); err != nil {
			return fmt.Errorf("%w: targets: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// PlanWindow returns the planning interval, starting at now when no start
// is configured.
func (c *Config) PlanWindow(now time.Time) (time.Time, time.Time) {
	start := now
	if c.Window.Start != "" {
		if t, err := time.Parse(time.RFC3339, c.Window.Start); err == nil {
			start = t
		}
	}
	return start, start.Add(c.Window.Duration)
}

// Location returns the output time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Output.Timezone)
}

// DaylightPolicy builds the configured gate. The "none" policy returns nil,
// which disables gating.
func (c *Config) DaylightPolicy() (core.DaylightPolicy, error) {
	d := c.Daylight
	switch strings.ToLower(d.Policy) {
	case DaylightHours:
		loc, err := time.LoadLocation(d.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: daylight.timezone: %v", ErrInvalidConfig, err)
		}
		if d.StartHour < 0 || d.EndHour > 24 || d.StartHour >= d.EndHour {
			return nil, fmt.Errorf("%w: daylight hours [%d, %d)", ErrInvalidConfig, d.StartHour, d.EndHour)
		}
		return core.HourWindow{Location: loc, StartHour: d.StartHour, EndHour: d.EndHour}, nil
	case DaylightSun:
		if d.MinSunElevation < -90 || d.MinSunElevation > 90 {
			return nil, fmt.Errorf("%w: daylight.min_sun_elevation %v", ErrInvalidConfig, d.MinSunElevation)
		}
		return core.SunElevationPolicy{MinElevation: d.MinSunElevation, Step: d.SearchStep}, nil
	case DaylightNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: daylight.policy %q", ErrInvalidConfig, d.Policy)
	}
}

// SensorTypes parses the planner sensor filter.
func (c *Config) SensorTypes() ([]model.SensorType, error) {
	out := make([]model.SensorType, 0, len(c.Planner.SensorTypes))
	for _, s := range c.Planner.SensorTypes {
		st, err := model.ParseSensorType(s)
		if err != nil {
			return nil, fmt.Errorf("%w: planner.sensor_types: %v", ErrInvalidConfig, err)
		}
		out = append(out, st)
	}
	return out, nil
}

// Station returns the tracker's ground station.
func (c *Config) Station() model.GroundStation {
	s := c.Tracker.Station
	return model.GroundStation{
		ID:   s.Name,
		Name: s.Name,
		Location: model.GeodeticPoint{
			Longitude: s.Longitude,
			Latitude:  s.Latitude,
			Height:    s.Height,
		},
	}
}

// AreaTargets returns the configured targets. Unnamed targets are labelled
// by position.
func (c *Config) AreaTargets() []model.AreaTarget {
	out := make([]model.AreaTarget, len(c.Targets))
	for i, t := range c.Targets {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("target-%d", i+1)
		}
		out[i] = model.AreaTarget{
			ID:       t.ID,
			Name:     name,
			Vertices: append([]model.GeodeticPoint(nil), t.Vertices...),
		}
	}
	return out
}

// LoadSatellites resolves inline entries and TLE files into catalogue
// records. Bad entries in TLE files are logged and skipped; a bad inline
// entry fails the load.
func (c *Config) LoadSatellites(log logging.Logger) ([]model.Satellite, error) {
	var out []model.Satellite
	for _, s := range c.Satellites {
		sat, err := s.satellite()
		if err != nil {
			return nil, err
		}
		out = append(out, sat)
	}
	for _, f := range c.TLEFiles {
		sats, err := c.loadTLEFile(f, log)
		if err != nil {
			return nil, err
		}
		out = append(out, sats...)
	}
	return out, nil
}

func (s SatelliteConfig) satellite() (model.Satellite, error) {
	var (
		set tle.Set
		err error
	)
	if s.TLE != "" {
		set, err = tle.ParseSet(s.TLE)
	} else {
		set, err = tle.ParseLines(s.Name, s.Line1, s.Line2)
	}
	if err != nil {
		return model.Satellite{}, fmt.Errorf("%w: satellite %s: %w", ErrInvalidConfig, s.ID, err)
	}
	name := s.Name
	if name == "" {
		name = set.Name
	}
	sensor, _ := model.ParseSensorType(s.Sensor)
	return model.Satellite{
		ID:          s.ID,
		Name:        name,
		NoradID:     set.NoradID,
		Category:    s.Category,
		Sensor:      sensor,
		Envelope:    envelopeOrDefault(s.Envelope),
		OrbitalType: model.ParseOrbitalType(s.OrbitalType),
		Tags:        append([]string(nil), s.Tags...),
		Line1:       set.Line1,
		Line2:       set.Line2,
	}, nil
}

func (c *Config) loadTLEFile(f TLEFileConfig, log logging.Logger) ([]model.Satellite, error) {
	path := f.Path
	if !filepath.IsAbs(path) && c.baseDir != "" {
		path = filepath.Join(c.baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open TLE file: %w", err)
	}
	defer file.Close()

	sets, err := tle.Parse(file, log)
	if err != nil {
		return nil, err
	}
	sensor, _ := model.ParseSensorType(f.Sensor)
	out := make([]model.Satellite, 0, len(sets))
	for _, set := range sets {
		out = append(out, model.Satellite{
			ID:       fmt.Sprintf("%d", set.NoradID),
			Name:     set.Name,
			NoradID:  set.NoradID,
			Category: f.Category,
			Sensor:   sensor,
			Envelope: envelopeOrDefault(f.Envelope),
			Tags:     append([]string(nil), f.Tags...),
			Line1:    set.Line1,
			Line2:    set.Line2,
		})
	}
	return out, nil
}

func envelopeOrDefault(e *model.SensorEnvelope) model.SensorEnvelope {
	if e == nil {
		return model.DefaultEnvelope()
	}
	return *e
}
