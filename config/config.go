// Package config holds run configuration for the tree sampler.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config controls the MCMC run. The proposal and initialization
// hyperparameters (Gamma, Zeta, Theta, Kappa) carry no built-in defaults;
// they are part of the experiment, not of the sampler's invariants.
type Config struct {
	// TreesPerChain is the number of MCMC iterations each chain executes,
	// including rejected transitions.
	TreesPerChain int `yaml:"trees_per_chain"`
	// Chains is the number of independent chains.
	Chains int `yaml:"chains"`
	// Burnin is the leading fraction of each chain's retained samples to
	// discard.
	Burnin float64 `yaml:"burnin"`
	// ThinnedFrac sets the thinning rate: samples are retained every
	// round(1/ThinnedFrac) iterations.
	ThinnedFrac float64 `yaml:"thinned_frac"`
	// Seed is the base random seed; chain c derives its own seed as
	// (Seed + c + 1) mod 2^32.
	Seed uint64 `yaml:"seed"`
	// Parallel is the number of concurrent chain workers; 0 runs every
	// chain sequentially on the calling goroutine.
	Parallel int `yaml:"parallel"`

	// Gamma weights the uniform component of the subtree-choice mixture;
	// 1-Gamma weights the relation-informed component.
	Gamma float64 `yaml:"gamma"`
	// Zeta is the analogous mixture weight for destination choice.
	Zeta float64 `yaml:"zeta"`
	// Theta weights ancestor probabilities during chain initialization.
	Theta float64 `yaml:"theta"`
	// Kappa weights node depth during chain initialization, discouraging
	// excessively deep starting trees.
	Kappa float64 `yaml:"kappa"`
}

func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.TreesPerChain <= 0:
		return fmt.Errorf("%w: trees_per_chain must be > 0, got %d", ErrInvalidConfig, c.TreesPerChain)
	case c.Chains <= 0:
		return fmt.Errorf("%w: chains must be > 0, got %d", ErrInvalidConfig, c.Chains)
	case c.Burnin < 0 || c.Burnin > 1:
		return fmt.Errorf("%w: burnin must be in [0, 1], got %g", ErrInvalidConfig, c.Burnin)
	case c.ThinnedFrac <= 0 || c.ThinnedFrac > 1:
		return fmt.Errorf("%w: thinned_frac must be in (0, 1], got %g", ErrInvalidConfig, c.ThinnedFrac)
	case c.Parallel < 0:
		return fmt.Errorf("%w: parallel must be >= 0, got %d", ErrInvalidConfig, c.Parallel)
	case c.Gamma < 0 || c.Gamma > 1:
		return fmt.Errorf("%w: gamma must be in [0, 1], got %g", ErrInvalidConfig, c.Gamma)
	case c.Zeta < 0 || c.Zeta > 1:
		return fmt.Errorf("%w: zeta must be in [0, 1], got %g", ErrInvalidConfig, c.Zeta)
	case c.Theta < 0:
		return fmt.Errorf("%w: theta must be >= 0, got %g", ErrInvalidConfig, c.Theta)
	case c.Kappa < 0:
		return fmt.Errorf("%w: kappa must be >= 0, got %g", ErrInvalidConfig, c.Kappa)
	}
	return nil
}
