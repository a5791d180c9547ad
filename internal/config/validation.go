package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/teamsweep/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	// Validate source database
	if err := c.validateDatabase("source", &c.Source); err != nil {
		errors = append(errors, err...)
	}

	// Validate replica if enabled
	if c.Replica.Enabled {
		if err := c.validateReplica(); err != nil {
			errors = append(errors, err...)
		}
	}

	// Validate safety settings
	if err := c.validateSafety(); err != nil {
		errors = append(errors, err...)
	}

	errors = append(errors, c.validateLocal()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateOffline checks only the settings used by commands that never
// connect: table names, sweep pacing and logging. Connection settings may
// be absent.
func (c *Config) ValidateOffline() error {
	if errors := c.validateLocal(); len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateLocal() ValidationErrors {
	var errors ValidationErrors
	errors = append(errors, c.validateTables()...)
	errors = append(errors, c.validateSweep()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func (c *Config) validateDatabase(prefix string, db *DatabaseConfig) ValidationErrors {
	var errors ValidationErrors

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateReplica() ValidationErrors {
	var errors ValidationErrors

	if c.Replica.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "replica.host",
			Message: "host is required when replica is enabled",
		})
	}

	if c.Replica.Port <= 0 || c.Replica.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "replica.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Replica.User == "" {
		errors = append(errors, ValidationError{
			Field:   "replica.user",
			Message: "user is required when replica is enabled",
		})
	}

	return errors
}

func (c *Config) validateTables() ValidationErrors {
	var errors ValidationErrors

	named := []struct {
		field string
		value string
	}{
		{"tables.team_sets", c.Tables.TeamSets},
		{"tables.team_sets_teams", c.Tables.TeamSetsTeams},
		{"tables.team_sets_modules", c.Tables.TeamSetsModules},
		{"tables.teams", c.Tables.Teams},
	}
	for _, n := range named {
		if n.value == "" {
			errors = append(errors, ValidationError{
				Field:   n.field,
				Message: "table name is required",
			})
			continue
		}
		if !sqlutil.IsValidIdentifier(n.value) {
			errors = append(errors, ValidationError{
				Field:   n.field,
				Message: fmt.Sprintf("invalid table name %q", n.value),
			})
		}
	}

	for i, name := range c.Tables.Excluded {
		if !sqlutil.IsValidIdentifier(name) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tables.excluded[%d]", i),
				Message: fmt.Sprintf("invalid table name %q", name),
			})
		}
	}

	return errors
}

func (c *Config) validateSweep() ValidationErrors {
	var errors ValidationErrors

	if c.Sweep.MaxSleep < 0 {
		errors = append(errors, ValidationError{
			Field:   "sweep.max_sleep",
			Message: "max_sleep cannot be negative",
		})
	}

	if c.Sweep.MaxSleep > time.Second {
		errors = append(errors, ValidationError{
			Field:   "sweep.max_sleep",
			Message: "max_sleep above 1s would stall the sweep for hours",
		})
	}

	return errors
}

func (c *Config) validateSafety() ValidationErrors {
	var errors ValidationErrors

	if c.Safety.LagThreshold < 0 {
		errors = append(errors, ValidationError{
			Field:   "safety.lag_threshold",
			Message: "lag_threshold cannot be negative",
		})
	}

	if c.Safety.CheckInterval < 0 {
		errors = append(errors, ValidationError{
			Field:   "safety.check_interval",
			Message: "check_interval cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
