package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	maxSleep  time.Duration
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "teamsweep",
	Short: "CRM team set cleaner",
	Long: `Finds team sets that no record, team or team link refers to any more
and soft-deletes them, printing the statements that undo the run.

Features:
  - Automatic discovery of every table carrying team set references
  - Randomized, throttled existence probes with early exit
  - One run-wide timestamp so a sweep can be reverted as a unit
  - Advisory locking and replication lag monitoring`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "teamsweep.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Sweep overrides
	rootCmd.PersistentFlags().DurationVar(&maxSleep, "max-sleep", -1,
		"Override the maximum random pause before each query, e.g. 50us (0 disables)")

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	MaxSleep  time.Duration // negative when not given
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		MaxSleep:  maxSleep,
	}
}
