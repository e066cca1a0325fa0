package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Library.ListLimit <= 0 {
		return fmt.Errorf("library.list_limit must be > 0 (got %d)", c.Library.ListLimit)
	}
	if c.Library.AdminListLimit <= 0 {
		return fmt.Errorf("library.admin_list_limit must be > 0 (got %d)", c.Library.AdminListLimit)
	}
	if c.Library.MaxPayloadBytes <= 0 {
		return fmt.Errorf("library.max_payload_bytes must be > 0 (got %d)", c.Library.MaxPayloadBytes)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	return nil
}
