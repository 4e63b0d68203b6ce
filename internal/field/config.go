package field

import "fmt"

// TurbulenceThresholds are the ascending cut points that map a raw turbulence
// variance to a qualitative level.
type TurbulenceThresholds struct {
	Low    float64 `json:"low" yaml:"low"`
	Medium float64 `json:"medium" yaml:"medium"`
	High   float64 `json:"high" yaml:"high"`
}

// Config tunes the field computation. The zero value is usable: missing
// fields fall back to the defaults below.
type Config struct {
	PressureSmoothingPeriod   int                  `json:"pressureSmoothingPeriod" yaml:"pressure_smoothing_period"`
	EnergyGradientSensitivity float64              `json:"energyGradientSensitivity" yaml:"energy_gradient_sensitivity"`
	TurbulenceThresholds      TurbulenceThresholds `json:"turbulenceThresholds" yaml:"turbulence_thresholds"`
}

// DefaultConfig returns the documented default tuning.
func DefaultConfig() Config {
	return Config{
		PressureSmoothingPeriod:   5,
		EnergyGradientSensitivity: 1.0,
		TurbulenceThresholds:      TurbulenceThresholds{Low: 0.0001, Medium: 0.001, High: 0.01},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PressureSmoothingPeriod == 0 {
		c.PressureSmoothingPeriod = def.PressureSmoothingPeriod
	}
	if c.EnergyGradientSensitivity == 0 {
		c.EnergyGradientSensitivity = def.EnergyGradientSensitivity
	}
	if c.TurbulenceThresholds == (TurbulenceThresholds{}) {
		c.TurbulenceThresholds = def.TurbulenceThresholds
	}
	return c
}

// Validate rejects out-of-range tuning rather than silently correcting it.
func (c Config) Validate() error {
	if c.PressureSmoothingPeriod < 1 {
		return fmt.Errorf("pressure smoothing period must be >= 1, got %d", c.PressureSmoothingPeriod)
	}
	if c.EnergyGradientSensitivity <= 0 {
		return fmt.Errorf("energy gradient sensitivity must be positive, got %v", c.EnergyGradientSensitivity)
	}
	t := c.TurbulenceThresholds
	if t.Low < 0 || t.Medium <= t.Low || t.High <= t.Medium {
		return fmt.Errorf("turbulence thresholds must be ascending and non-negative, got %+v", t)
	}
	return nil
}
