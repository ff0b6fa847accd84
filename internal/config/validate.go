package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the config shape before any stage runs. Missing commands
// and non-positive timeouts are contract violations surfaced here, never
// mid-pipeline.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
