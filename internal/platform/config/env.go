// Package config loads service configuration from the environment and
// provides exit helpers for the command mains.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv populates target from its `env` struct tags. Service configs
// use the BATTLEARENA_ variable prefix.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
