// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrMissingRequiredConfig marks a required configuration value that was
// never provided.
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// BasicValidator checks required fields and numeric sanity. It runs in
// every environment.
type BasicValidator struct{}

func (v *BasicValidator) Validate(cfg *Config) error {
	if err := checkRequiredTags(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return err
	}

	checks := []struct {
		ok  bool
		msg string
	}{
		{cfg.Database.MaxConnections >= cfg.Database.MinConnections, "database max_connections must be >= min_connections"},
		{cfg.Redis.PoolSize > 0, "redis pool_size must be positive"},
		{cfg.Security.RateLimitRequests > 0, "rate_limit_requests must be positive"},
		{cfg.Stock.DefaultLowStockLevel >= 0, "default_low_stock_level cannot be negative"},
	}
	for _, c := range checks {
		if !c.ok {
			return errors.New(c.msg)
		}
	}
	return nil
}

// SecurityValidator rejects configurations that weaken the HTTP surface.
type SecurityValidator struct{}

func (v *SecurityValidator) Validate(cfg *Config) error {
	if cfg.IsProduction() {
		for _, origin := range cfg.Security.AllowedOrigins {
			if origin == "*" {
				return errors.New("wildcard origin (*) not allowed in production")
			}
		}
	}
	return nil
}

// ProductionValidator adds the checks that only matter once real traffic
// and real credentials are involved.
type ProductionValidator struct{}

func (v *ProductionValidator) Validate(cfg *Config) error {
	switch {
	case cfg.Database.Password == "stock_dev_2025":
		return errors.New("default database password cannot be used in production")
	case strings.Contains(cfg.Database.Password, "MISSING_"):
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	case cfg.Database.SSLMode == "disable":
		return errors.New("database SSL must be enabled in production")
	case !cfg.Security.SecureHeaders:
		return errors.New("secure headers must be enabled in production")
	case len(cfg.Security.AllowedOrigins) == 0:
		return errors.New("allowed origins must be configured in production")
	}

	if cfg.Server.TLSEnabled && (cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "") {
		return errors.New("TLS cert and key files must be provided when TLS is enabled")
	}
	return nil
}

// checkRequiredTags walks the config struct and reports the first field
// tagged `required:"true"` that still holds its zero value.
func checkRequiredTags(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		name := t.Field(i).Name
		if prefix != "" {
			name = prefix + "." + name
		}

		if t.Field(i).Tag.Get("required") == "true" && isUnset(field) {
			return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, name)
		}

		if field.Kind() == reflect.Struct {
			if err := checkRequiredTags(field, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func isUnset(v reflect.Value) bool {
	if v.Kind() == reflect.String {
		// Placeholder values count as unset so a templated deployment
		// cannot slip through.
		return v.String() == "" || strings.HasPrefix(v.String(), "MISSING_")
	}
	return v.IsZero()
}
