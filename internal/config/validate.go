package config

import (
	"errors"
	"fmt"
)

// Validate checks every section and joins the problems found.
func (c *Config) Validate() error {
	return errors.Join(
		c.HTTP.validate(),
		c.Storage.validate(),
		c.Auth.validate(),
		c.Limiter.validate(),
		c.Log.validate(),
	)
}

func (h *HTTPConfig) validate() error {
	var errs []error
	if h.Addr == "" {
		errs = append(errs, errors.New("http.addr must not be empty"))
	}
	if h.ReadTimeout <= 0 || h.WriteTimeout <= 0 {
		errs = append(errs, errors.New("http read and write timeouts must be positive"))
	}
	return errors.Join(errs...)
}

func (s *StorageConfig) validate() error {
	switch s.Driver {
	case DriverMemory:
		return nil
	case DriverPostgres:
		if s.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
		return nil
	}
	return fmt.Errorf("storage.driver must be one of: postgres, memory; got %q", s.Driver)
}

func (a *AuthConfig) validate() error {
	var errs []error
	if len(a.SigningKey) < minSigningKeyLen {
		errs = append(errs, fmt.Errorf("auth.signing_key must be at least %d bytes", minSigningKeyLen))
	}
	if a.AccessTTL <= 0 {
		errs = append(errs, errors.New("auth.access_ttl must be positive"))
	}
	if a.RefreshTTL <= 0 {
		errs = append(errs, errors.New("auth.refresh_ttl must be positive"))
	}
	return errors.Join(errs...)
}

func (l *LimiterConfig) validate() error {
	if l.Window <= 0 || l.BlockFor <= 0 || l.MaxFails < 1 {
		return errors.New("limiter.window, limiter.block_for and limiter.max_fails must be positive")
	}
	return nil
}

func (l *LogConfig) validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level)
}
