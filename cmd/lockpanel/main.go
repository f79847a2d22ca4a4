// Lockpanel is a terminal front end for a smart-lock server.
//
// It mirrors the server's rotating passcode, door state and Bluetooth
// state, verifies passcodes, triggers the Bluetooth and media-key
// unlocks, and can relay unlock events to an Arduino over a serial port.
//
// Usage:
//
//	lockpanel [command] [flags]
//
// Running without arguments launches the interactive dashboard.
// See 'lockpanel --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/lockpanel/internal/config"
	"github.com/muurk/lockpanel/internal/lockapi"
	"github.com/muurk/lockpanel/internal/logging"
	"github.com/muurk/lockpanel/internal/version"
)

// errReported marks a failure that has already been rendered for the user
var errReported = errors.New("reported")

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err unless it was already rendered. Rejected input
// prints just its message.
func reportError(w io.Writer, err error) {
	switch {
	case errors.Is(err, errReported):
	case lockapi.IsValidationError(err):
		fmt.Fprintf(w, "Error: %s\n", lockapi.ShortMessage(err))
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

// Global flags
var (
	serverURL  string
	timeoutSec float64
	retries    int
	logLevel   string
	logFile    string
	configPath string
	discover   bool
)

// cfg is the effective configuration, set before any command runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lockpanel",
	Short: "Smart Lock Panel",
	Long: `A terminal front end for a smart-lock server.

Shows the rotating passcode with its countdown, the door and Bluetooth
state, and flashes an unlock cue when the door opens. Passcodes can be
verified and the Bluetooth and media-key unlocks triggered from the
keyboard or from one-shot commands.

If no command is specified, the interactive dashboard launches.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the dashboard when no subcommand provided
		return runWatch(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "Lock server base URL (default from config or "+config.EnvServerURL+")")
	rootCmd.PersistentFlags().Float64Var(&timeoutSec, "timeout", 0, "Request timeout in seconds")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", -1, "Retries for one-shot reads (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the per-user config path)")
	rootCmd.PersistentFlags().BoolVar(&discover, "discover", false, "Find the lock server with mDNS instead of using --url")

	rootCmd.AddCommand(versionCmd)
}

// setupLogging initializes logging only, for commands that must work
// without a valid configuration
func setupLogging(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel, logFile); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// setup initializes logging and the effective configuration
func setup(cmd *cobra.Command, args []string) error {
	if err := setupLogging(cmd, args); err != nil {
		return err
	}

	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	if timeoutSec > 0 {
		cfg.Server.TimeoutMS = int(timeoutSec * 1000)
	}
	if retries >= 0 {
		cfg.Server.Retries = retries
	}
	return cfg.Validate()
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	PersistentPreRunE: setupLogging,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lockpanel %s\n", version.Full())
	},
}
