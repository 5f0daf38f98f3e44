// Package config loads the environment configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/drills/pkg/adapters/process"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/report"
	"github.com/aretw0/drills/pkg/reward"
	"github.com/aretw0/drills/pkg/session"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvABCBinary     = "DRILLS_ABC_BINARY"
	EnvYosysBinary   = "DRILLS_YOSYS_BINARY"
	EnvPlaygroundDir = "DRILLS_PLAYGROUND_DIR"
	EnvRedisAddr     = "DRILLS_REDIS_ADDR"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete configuration of a drills run.
type Config struct {
	DesignFile    string   `yaml:"design_file" json:"design_file" validate:"required"`
	Target        string   `yaml:"target" json:"target" validate:"oneof=scl fpga"`
	PlaygroundDir string   `yaml:"playground_dir" json:"playground_dir" validate:"required"`
	OutputDir     string   `yaml:"output_dir" json:"output_dir"`
	ABCBinary     string   `yaml:"abc_binary" json:"abc_binary" validate:"required"`
	YosysBinary   string   `yaml:"yosys_binary" json:"yosys_binary" validate:"required"`
	Iterations    int      `yaml:"iterations" json:"iterations" validate:"gt=0"`
	Episodes      int      `yaml:"episodes" json:"episodes" validate:"gte=0"`
	Timeout       Duration `yaml:"timeout" json:"timeout"`
	Optimizations []string `yaml:"optimizations" json:"optimizations" validate:"required,min=1,unique,dive,required"`

	Mapping     Mapping     `yaml:"mapping" json:"mapping"`
	FPGAMapping FPGAMapping `yaml:"fpga_mapping" json:"fpga_mapping"`
	Objective   Objective   `yaml:"objective" json:"objective"`
	Reward      string      `yaml:"reward" json:"reward" validate:"oneof=dual single"`
	Store       Store       `yaml:"store" json:"store"`
	LogLevel    string      `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// Mapping configures standard-cell technology mapping.
type Mapping struct {
	LibraryFile string  `yaml:"library_file" json:"library_file"`
	ClockPeriod float64 `yaml:"clock_period" json:"clock_period" validate:"gte=0"`
}

// FPGAMapping configures lookup-table mapping.
type FPGAMapping struct {
	LUTInputs int     `yaml:"lut_inputs" json:"lut_inputs" validate:"gte=0"`
	Levels    float64 `yaml:"levels" json:"levels" validate:"gte=0"`
}

// Objective names the optimized and constrained report fields.
// Threshold bounds the constrained field, or the optimized one under the
// single reward. Zero selects the default bound, see Config.Threshold.
type Objective struct {
	Optimize  string  `yaml:"optimize" json:"optimize"`
	Constrain string  `yaml:"constrain" json:"constrain"`
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"gte=0"`
}

// Store selects where best-known records are kept.
type Store struct {
	Backend  string `yaml:"backend" json:"backend" validate:"oneof=memory redis"`
	Address  string `yaml:"address" json:"address" validate:"required_if=Backend redis"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// Duration decodes "10m"-style strings from YAML and JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Report the file key rather than the Go field name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	return Config{
		Target:        string(domain.TargetSCL),
		PlaygroundDir: "playground",
		ABCBinary:     "yosys-abc",
		YosysBinary:   "yosys",
		Iterations:    50,
		Episodes:      100,
		Timeout:       Duration{process.DefaultTimeout},
		FPGAMapping:   FPGAMapping{LUTInputs: 6},
		Reward:        string(reward.ShapeDual),
		Store:         Store{Backend: BackendMemory, Prefix: "drills:"},
		LogLevel:      "info",
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. Files ending in .json are decoded as JSON, anything
// else as YAML.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
	if err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes data over the defaults without validating.
func Parse(data []byte, isJSON bool) (Config, error) {
	cfg := Default()
	var err error
	if isJSON {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, &domain.ConfigError{Field: "file", Reason: err.Error()}
	}
	cfg.fillObjective()
	return cfg, nil
}

// ApplyEnv overrides values with the DRILLS_* environment variables.
// Setting DRILLS_REDIS_ADDR also selects the redis backend.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvABCBinary); ok && v != "" {
		c.ABCBinary = v
	}
	if v, ok := os.LookupEnv(EnvYosysBinary); ok && v != "" {
		c.YosysBinary = v
	}
	if v, ok := os.LookupEnv(EnvPlaygroundDir); ok && v != "" {
		c.PlaygroundDir = v
	}
	if v, ok := os.LookupEnv(EnvRedisAddr); ok && v != "" {
		c.Store.Backend = BackendRedis
		c.Store.Address = v
	}
}

func (c *Config) fillObjective() {
	if c.Objective.Optimize != "" && c.Objective.Constrain != "" {
		return
	}
	optimize, constrain := report.FieldArea, report.FieldDelay
	if domain.Target(c.Target) == domain.TargetFPGA {
		optimize, constrain = report.FieldNodes, report.FieldLevels
	}
	if c.Objective.Optimize == "" {
		c.Objective.Optimize = optimize
	}
	if c.Objective.Constrain == "" {
		c.Objective.Constrain = constrain
	}
}

// Validate checks struct constraints and the target-specific settings.
// Every failure is a *domain.ConfigError.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &domain.ConfigError{Field: fieldPath(fe.Namespace()), Reason: fmt.Sprintf("failed %q check", fe.Tag())}
		}
		return &domain.ConfigError{Field: "config", Reason: err.Error()}
	}

	switch domain.Target(c.Target) {
	case domain.TargetSCL:
		if c.Mapping.LibraryFile == "" {
			return &domain.ConfigError{Field: "mapping.library_file", Reason: "required for the scl target"}
		}
		if c.Mapping.ClockPeriod <= 0 {
			return &domain.ConfigError{Field: "mapping.clock_period", Reason: "must be positive for the scl target"}
		}
	case domain.TargetFPGA:
		if c.FPGAMapping.LUTInputs <= 0 {
			return &domain.ConfigError{Field: "fpga_mapping.lut_inputs", Reason: "must be positive for the fpga target"}
		}
	}

	fields := report.FlavorFor(domain.Target(c.Target)).Fields()
	if !slices.Contains(fields, c.Objective.Optimize) {
		return &domain.ConfigError{Field: "objective.optimize", Reason: fmt.Sprintf("%q is not one of %v", c.Objective.Optimize, fields)}
	}
	if !slices.Contains(fields, c.Objective.Constrain) {
		return &domain.ConfigError{Field: "objective.constrain", Reason: fmt.Sprintf("%q is not one of %v", c.Objective.Constrain, fields)}
	}
	if c.Objective.Optimize == c.Objective.Constrain {
		return &domain.ConfigError{Field: "objective", Reason: "optimize and constrain must differ"}
	}
	return nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Bounded names the report field the threshold applies to: the constrained
// field under the dual reward, the optimized one under the single reward.
func (c Config) Bounded() string {
	if reward.Shape(c.Reward) == reward.ShapeSingle {
		return c.Objective.Optimize
	}
	return c.Objective.Constrain
}

// Threshold returns the bound on the Bounded field. An explicit objective
// threshold wins. Otherwise the clock period bounds scl delay and the level
// budget bounds fpga levels; any other field has no bound.
func (c Config) Threshold() (float64, bool) {
	if c.Objective.Threshold > 0 {
		return c.Objective.Threshold, true
	}
	switch domain.Target(c.Target) {
	case domain.TargetSCL:
		if c.Bounded() == report.FieldDelay && c.Mapping.ClockPeriod > 0 {
			return c.Mapping.ClockPeriod, true
		}
	case domain.TargetFPGA:
		if c.Bounded() == report.FieldLevels && c.FPGAMapping.Levels > 0 {
			return c.FPGAMapping.Levels, true
		}
	}
	return 0, false
}

// Pipeline returns the run script frame.
func (c Config) Pipeline() process.Pipeline {
	return process.Pipeline{
		Target:      domain.Target(c.Target),
		DesignFile:  c.DesignFile,
		LibraryFile: c.Mapping.LibraryFile,
		ClockPeriod: c.Mapping.ClockPeriod,
		LUTInputs:   c.FPGAMapping.LUTInputs,
	}
}

// Session returns the session configuration for id.
func (c Config) Session(id string) session.Config {
	threshold, ok := c.Threshold()
	return session.Config{
		ID:            id,
		Pipeline:      c.Pipeline(),
		ABCBinary:     c.ABCBinary,
		PlaygroundDir: c.PlaygroundDir,
		Optimizations: c.Optimizations,
		Horizon:       c.Iterations,
		Primary:       c.Objective.Optimize,
		Constraint:    c.Objective.Constrain,
		Threshold:     threshold,
		HasThreshold:  ok,
		Shape:         reward.Shape(c.Reward),
	}
}

// GreedyOutputDir is where the greedy baseline writes its results.
func (c Config) GreedyOutputDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return filepath.Join(c.PlaygroundDir, "greedy")
}

// RecordKey identifies the best-known records of the configured design.
func (c Config) RecordKey() string {
	return c.Target + ":" + filepath.Base(c.DesignFile)
}
