package backtest

import (
	"fmt"

	"flowfield-go/internal/field"
)

// Config tunes a simulation run. The zero value is usable: unset fields fall
// back to the defaults below.
type Config struct {
	InitialCapital    float64 `json:"initialCapital" yaml:"initial_capital"`
	PositionSize      float64 `json:"positionSize" yaml:"position_size"`
	StopLossPercent   float64 `json:"stopLossPercent" yaml:"stop_loss_percent"`
	TakeProfitPercent float64 `json:"takeProfitPercent" yaml:"take_profit_percent"`
	Commission        float64 `json:"commission" yaml:"commission"`
	Slippage          float64 `json:"slippage" yaml:"slippage"`
	MinConfidence     float64 `json:"minConfidence" yaml:"min_confidence"`
	WindowSize        int     `json:"windowSize" yaml:"window_size"`

	Field field.Config `json:"field" yaml:"field"`
}

// DefaultConfig returns a conservative simulation tuning.
func DefaultConfig() Config {
	return Config{
		InitialCapital:    10000,
		PositionSize:      0.1,
		StopLossPercent:   0.02,
		TakeProfitPercent: 0.05,
		Commission:        0.001,
		Slippage:          0.0005,
		MinConfidence:     60,
		WindowSize:        50,
		Field:             field.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.InitialCapital == 0 {
		c.InitialCapital = def.InitialCapital
	}
	if c.PositionSize == 0 {
		c.PositionSize = def.PositionSize
	}
	if c.StopLossPercent == 0 {
		c.StopLossPercent = def.StopLossPercent
	}
	if c.TakeProfitPercent == 0 {
		c.TakeProfitPercent = def.TakeProfitPercent
	}
	if c.WindowSize == 0 {
		c.WindowSize = def.WindowSize
	}
	return c
}

// Validate rejects out-of-range tuning with the offending value.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %v", c.InitialCapital)
	}
	if c.PositionSize <= 0 || c.PositionSize > 1 {
		return fmt.Errorf("position size must be in (0,1], got %v", c.PositionSize)
	}
	if c.StopLossPercent <= 0 {
		return fmt.Errorf("stop loss percent must be positive, got %v", c.StopLossPercent)
	}
	if c.TakeProfitPercent <= 0 {
		return fmt.Errorf("take profit percent must be positive, got %v", c.TakeProfitPercent)
	}
	if c.Commission < 0 || c.Slippage < 0 {
		return fmt.Errorf("commission and slippage must be non-negative, got %v / %v", c.Commission, c.Slippage)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("min confidence must be in [0,100], got %v", c.MinConfidence)
	}
	if c.WindowSize < 2 {
		return fmt.Errorf("window size must be >= 2, got %d", c.WindowSize)
	}
	return nil
}
