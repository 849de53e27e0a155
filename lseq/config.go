package lseq

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// maxExponent keeps every level's width representable as a uint64.
const maxExponent = 63

// Config tunes identifier allocation. All replicas editing the same sequence
// must agree on Base; the other fields are local.
type Config struct {
	// Base is the exponent of the first level's width (2^Base slots).
	Base uint `json:"base" yaml:"base" validate:"min=1,max=62"`

	// Boundary caps the random offset taken from the chosen edge of a gap.
	Boundary uint64 `json:"boundary" yaml:"boundary" validate:"min=1"`

	// MinGap is the smallest number of free slots a level must offer before
	// the generator uses it instead of descending.
	MinGap uint64 `json:"min_gap" yaml:"min_gap" validate:"min=1"`

	// MaxDepth bounds identifier depth; allocation past it fails with ErrCapacity.
	MaxDepth int `json:"max_depth" yaml:"max_depth" validate:"min=1,max=63"`

	// Seed fixes the random source. Zero picks a random seed.
	Seed uint64 `json:"seed" yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Base:     5,
		Boundary: 10,
		MinGap:   1,
		MaxDepth: 32,
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if int(c.Base)+c.MaxDepth-1 > maxExponent {
		return fmt.Errorf("%w: base %d with max depth %d overflows 2^%d", ErrConfig, c.Base, c.MaxDepth, maxExponent)
	}
	return nil
}

// Width is the number of slots at depth (one based).
func (c Config) Width(depth int) uint64 {
	return 1 << (c.Base + uint(depth) - 1)
}

// LoadConfig reads a YAML file over the defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read lseq config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
	}
	return cfg, cfg.Validate()
}
