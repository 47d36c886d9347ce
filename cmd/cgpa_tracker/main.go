// Package main provides the cgpa_tracker command: the HTTP API server plus
// offline tools for the grade table and record computation.
package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/jonathan/cgpa-tracker/internal/config"
	"github.com/jonathan/cgpa-tracker/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logFormat  string

	// Populated by the root command's PersistentPreRunE.
	appConfig config.Config
	logger    = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:               "cgpa_tracker",
	Short:             "CGPA tracker API server and tools",
	Long:              "cgpa_tracker records per-semester grades, computes credit-weighted semester GPAs and the cumulative CGPA, and serves them over a REST API.",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: logfmt or json")
}

// loadSettings resolves configuration with the precedence flags, then
// config file, then environment, then defaults.
func loadSettings(cmd *cobra.Command, _ []string) error {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	appConfig = cfg.MergeWithDefaults(config.FromEnv())

	l, err := logging.New(cmd.ErrOrStderr(), appConfig.LogFormat, appConfig.Verbose)
	if err != nil {
		return err
	}
	logger = log.With(l, "cmd", cmd.Name())
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
