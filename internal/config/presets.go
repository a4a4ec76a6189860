package config

// Presets are named starting points for the CLI. Fields left at their zero
// value fall back to the defaults when the preset is applied on top of
// DefaultConfig.
var Presets = map[string]*Config{
	"telescope": {
		Field:    FieldConfig{Model: "vacuum"},
		Stepper:  StepperConfig{Tolerance: 1e-4, MinStep: 1e-4, MaxTrials: 100},
		Detector: DetectorConfig{Planes: 5, First: 1.0, Spacing: 1.0},
		Track:    TrackConfig{Px: 1, Charge: 1},
		Ensemble: EnsembleConfig{ThetaSteps: 10, PhiSteps: 10, Momentum: 1, Charge: 1},
		PathLimit: 50,
	},
	"barrel": {
		Field:    FieldConfig{Model: "constant", Bz: 2},
		Stepper:  StepperConfig{Tolerance: 1e-4, MinStep: 1e-4, MaxTrials: 100},
		Detector: DetectorConfig{Planes: 8, First: 0.5, Spacing: 0.5},
		Track:    TrackConfig{Px: 10, Charge: -1},
		Ensemble: EnsembleConfig{ThetaSteps: 20, PhiSteps: 20, Momentum: 10, Charge: -1},
		PathLimit: 100,
	},
	"lowmomentum": {
		Field:    FieldConfig{Model: "constant", Bz: 2},
		Stepper:  StepperConfig{Tolerance: 1e-5, MinStep: 1e-5, MaxTrials: 200},
		Detector: DetectorConfig{Planes: 3, First: 0.2, Spacing: 0.2},
		Track:    TrackConfig{Px: 0.3, Charge: 1},
		Ensemble: EnsembleConfig{ThetaSteps: 10, PhiSteps: 10, Momentum: 0.3, Charge: 1},
		PathLimit: 20,
	},
	"solenoid": {
		Field:    FieldConfig{Model: "solenoid", Bz: 2, HalfLength: 3},
		Stepper:  StepperConfig{Tolerance: 1e-4, MinStep: 1e-4, MaxTrials: 100},
		Detector: DetectorConfig{Planes: 6, First: 1.0, Spacing: 1.0},
		Track:    TrackConfig{Px: 5, Charge: 1},
		Ensemble: EnsembleConfig{ThetaSteps: 15, PhiSteps: 15, Momentum: 5, Charge: 1},
		PathLimit: 100,
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
