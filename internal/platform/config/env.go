// Package config reads command configuration from env-tagged structs.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables into target, a
// pointer to a struct with env tags. The error names the config type so a
// startup failure says which service config was unreadable.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env into %T: %w", target, err)
	}
	return nil
}
