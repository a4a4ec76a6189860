package config

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/trackprop/internal/bfield"
	"github.com/san-kum/trackprop/internal/geometry"
	"github.com/san-kum/trackprop/internal/stepper"
	"github.com/san-kum/trackprop/internal/track"
)

const (
	DefaultTolerance = 1e-4
	DefaultMinStep   = 1e-4
	DefaultMaxTrials = 100
	DefaultBz        = 2.0
	DefaultMomentum  = 1.0
)

type Config struct {
	Field     FieldConfig    `yaml:"field"`
	Stepper   StepperConfig  `yaml:"stepper"`
	Detector  DetectorConfig `yaml:"detector"`
	Track     TrackConfig    `yaml:"track"`
	Ensemble  EnsembleConfig `yaml:"ensemble"`
	PathLimit float64        `yaml:"path_limit"`
}

type FieldConfig struct {
	Model string  `yaml:"model"` // constant, solenoid, vacuum
	Bx    float64 `yaml:"bx"`
	By    float64 `yaml:"by"`
	Bz    float64 `yaml:"bz"`
	// HalfLength is only read by the solenoid model.
	HalfLength float64 `yaml:"half_length"`
}

type StepperConfig struct {
	Tolerance float64 `yaml:"tolerance"`
	MinStep   float64 `yaml:"min_step"`
	MaxTrials int     `yaml:"max_trials"`
}

// DetectorConfig describes a telescope of parallel planes along the x axis.
type DetectorConfig struct {
	Planes  int     `yaml:"planes"`
	First   float64 `yaml:"first"`
	Spacing float64 `yaml:"spacing"`
}

type TrackConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Z      float64 `yaml:"z"`
	Px     float64 `yaml:"px"`
	Py     float64 `yaml:"py"`
	Pz     float64 `yaml:"pz"`
	Charge float64 `yaml:"charge"`
}

type EnsembleConfig struct {
	ThetaSteps int     `yaml:"theta_steps"`
	PhiSteps   int     `yaml:"phi_steps"`
	Momentum   float64 `yaml:"momentum"`
	Charge     float64 `yaml:"charge"`
}

func DefaultConfig() *Config {
	return &Config{
		Field: FieldConfig{Model: "constant", Bz: DefaultBz},
		Stepper: StepperConfig{
			Tolerance: DefaultTolerance,
			MinStep:   DefaultMinStep,
			MaxTrials: DefaultMaxTrials,
		},
		Detector: DetectorConfig{Planes: 5, First: 1.0, Spacing: 1.0},
		Track:    TrackConfig{Px: DefaultMomentum, Charge: 1},
		Ensemble: EnsembleConfig{
			ThetaSteps: 10,
			PhiSteps:   10,
			Momentum:   DefaultMomentum,
			Charge:     1,
		},
		PathLimit: 100,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FieldProvider builds the magnetic field named by the config.
func (c *Config) FieldProvider() (bfield.Provider, error) {
	switch c.Field.Model {
	case "constant":
		return bfield.Constant{B: r3.Vec{X: c.Field.Bx, Y: c.Field.By, Z: c.Field.Bz}}, nil
	case "solenoid":
		return bfield.NewSolenoid(c.Field.Bz, c.Field.HalfLength), nil
	case "vacuum":
		return bfield.Constant{}, nil
	default:
		return nil, fmt.Errorf("unknown field model %q", c.Field.Model)
	}
}

// StepperConfig converts the yaml block to the stepper's own config type.
func (c *Config) StepperConfig() stepper.Config {
	return stepper.Config{
		Tolerance: c.Stepper.Tolerance,
		MinStep:   c.Stepper.MinStep,
		MaxTrials: c.Stepper.MaxTrials,
	}
}

// Surfaces builds the telescope planes.
func (c *Config) Surfaces() []geometry.Surface {
	out := make([]geometry.Surface, 0, c.Detector.Planes)
	for i := 0; i < c.Detector.Planes; i++ {
		x := c.Detector.First + float64(i)*c.Detector.Spacing
		trf := geometry.NewTransform(r3.Vec{X: x}, r3.Vec{X: 1}, r3.Vec{Y: 1})
		out = append(out, geometry.NewPlane(uint(i+1), trf))
	}
	return out
}

// InitTrack builds the single-track starting parameters.
func (c *Config) InitTrack() track.FreeParams {
	return track.NewFreeParams(
		r3.Vec{X: c.Track.X, Y: c.Track.Y, Z: c.Track.Z},
		0,
		r3.Vec{X: c.Track.Px, Y: c.Track.Py, Z: c.Track.Pz},
		c.Track.Charge,
	)
}
