// Package config provides configuration structures and loading for teamsweep.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Source  DatabaseConfig `yaml:"source" mapstructure:"source"`
	Replica ReplicaConfig  `yaml:"replica" mapstructure:"replica"`
	Tables  TablesConfig   `yaml:"tables" mapstructure:"tables"`
	Sweep   SweepConfig    `yaml:"sweep" mapstructure:"sweep"`
	Safety  SafetyConfig   `yaml:"safety" mapstructure:"safety"`
	Logging LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// ReplicaConfig represents the replica database for replication lag monitoring.
type ReplicaConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
}

// TablesConfig names the team set tables of the CRM schema.
type TablesConfig struct {
	TeamSets        string   `yaml:"team_sets" mapstructure:"team_sets"`
	TeamSetsTeams   string   `yaml:"team_sets_teams" mapstructure:"team_sets_teams"`
	TeamSetsModules string   `yaml:"team_sets_modules" mapstructure:"team_sets_modules"`
	Teams           string   `yaml:"teams" mapstructure:"teams"`
	Excluded        []string `yaml:"excluded" mapstructure:"excluded"` // never searched for references
}

// SweepConfig controls the unused team set sweep.
type SweepConfig struct {
	MaxSleep   time.Duration `yaml:"max_sleep" mapstructure:"max_sleep"`     // upper bound of the random pause before each query
	KeepLinked bool          `yaml:"keep_linked" mapstructure:"keep_linked"` // a live team_sets_teams row keeps the set
	RevertFile string        `yaml:"revert_file" mapstructure:"revert_file"`
}

// SafetyConfig represents safety settings for write operations.
type SafetyConfig struct {
	LagThreshold  int `yaml:"lag_threshold" mapstructure:"lag_threshold"`
	CheckInterval int `yaml:"check_interval" mapstructure:"check_interval"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultExcludedTables are the team set tables themselves. They are the
// targets of the sweep, not referencers.
var DefaultExcludedTables = []string{
	"team_sets_modules",
	"team_sets_teams",
	"team_sets_users_1",
	"team_sets_users_2",
}

// ExcludedTables returns the configured exclusion list, or
// DefaultExcludedTables when none is set.
func (t TablesConfig) ExcludedTables() []string {
	if len(t.Excluded) == 0 {
		return append([]string(nil), DefaultExcludedTables...)
	}
	return append([]string(nil), t.Excluded...)
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: DatabaseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     4,
			MaxIdleConnections: 2,
		},
		Replica: ReplicaConfig{
			Enabled: false,
			Port:    3306,
		},
		Tables: TablesConfig{
			TeamSets:        "team_sets",
			TeamSetsTeams:   "team_sets_teams",
			TeamSetsModules: "team_sets_modules",
			Teams:           "teams",
		},
		Sweep: SweepConfig{
			MaxSleep:   20 * time.Microsecond,
			KeepLinked: true,
		},
		Safety: SafetyConfig{
			LagThreshold:  10,
			CheckInterval: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}
