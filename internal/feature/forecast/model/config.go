// Package model implements the recurrent forecasting network: stacked LSTM
// layers feeding one linear output unit, fitted by mini-batch Adam on MSE.
package model

import (
	"errors"
	"fmt"
)

// Config describes the network shape and the training schedule.
type Config struct {
	Timesteps    int     // window length
	Features     int     // values per timestep
	HiddenUnits  []int   // one entry per stacked LSTM layer
	Epochs       int     // passes over the training windows
	BatchSize    int     // windows per Adam step
	LearningRate float64 // Adam step size
	// Seed drives weight initialization and batch order. Zero picks a
	// time-based seed, so runs are only reproducible with a fixed seed.
	Seed    int64
	Shuffle bool // reorder windows every epoch
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Timesteps <= 0:
		return errors.New("timesteps must be positive")
	case c.Features <= 0:
		return errors.New("features must be positive")
	case len(c.HiddenUnits) == 0 || len(c.HiddenUnits) > 2:
		return fmt.Errorf("expected 1 or 2 recurrent layers, got %d", len(c.HiddenUnits))
	case c.Epochs <= 0:
		return errors.New("epochs must be positive")
	case c.BatchSize <= 0:
		return errors.New("batch size must be positive")
	case c.LearningRate <= 0:
		return errors.New("learning rate must be positive")
	}
	for i, h := range c.HiddenUnits {
		if h <= 0 {
			return fmt.Errorf("layer %d: hidden units must be positive", i)
		}
	}
	return nil
}
