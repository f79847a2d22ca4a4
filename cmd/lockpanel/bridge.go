package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/bridge"
	"github.com/muurk/lockpanel/internal/logging"
	"github.com/muurk/lockpanel/internal/ui"
)

// Bridge command flags
var (
	bridgePort      string
	bridgeBaud      int
	bridgeStatusURL string
	bridgeByte      string
	listPorts       bool
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Relay unlock events to an Arduino over serial",
	Long: `Poll the lock server's /status endpoint and write a single byte to a
serial port each time the door goes from locked to unlocked.

When no status URL is configured the bridge probes the usual local
addresses (127.0.0.1 and localhost on ports 5000 and 8000) and uses the
first that answers. Unlock bytes are rate limited by the debounce window.
If the serial port is unavailable the bridge keeps polling and retries
the port on the next unlock.`,
	Example: `  # Use the platform default port
  lockpanel bridge

  # Explicit port and server
  lockpanel bridge --serial-port /dev/ttyACM0 --status-url http://127.0.0.1:5000/status

  # List serial ports
  lockpanel bridge --list-ports`,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().StringVar(&bridgePort, "serial-port", "", "Serial port (default from config or ARDUINO_PORT)")
	bridgeCmd.Flags().IntVar(&bridgeBaud, "baud", 0, "Baud rate (default 9600)")
	bridgeCmd.Flags().StringVar(&bridgeStatusURL, "status-url", "", "Full /status URL; skips probing")
	bridgeCmd.Flags().StringVar(&bridgeByte, "unlock-byte", "", "Byte written on unlock (default \"a\")")
	bridgeCmd.Flags().BoolVar(&listPorts, "list-ports", false, "List serial ports and exit")

	rootCmd.AddCommand(bridgeCmd)
}

func runBridge(cmd *cobra.Command, args []string) error {
	if listPorts {
		ports, err := bridge.ListPorts()
		if err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintPorts(ports)
		return nil
	}

	bc := cfg.Bridge
	if bridgePort != "" {
		bc.Port = bridgePort
	}
	if bridgeBaud > 0 {
		bc.Baud = bridgeBaud
	}
	if bridgeStatusURL != "" {
		bc.StatusURL = bridgeStatusURL
	}
	if bridgeByte != "" {
		bc.UnlockByte = bridgeByte[:1]
	}

	if err := daemonLogging(); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if discover && bc.StatusURL == "" {
		base, err := resolveServer(ctx)
		if err != nil {
			return err
		}
		bc.StatusURL = base + "/status"
	}

	b := bridge.New(bridge.Config{
		StatusURL:      bc.StatusURL,
		Candidates:     bc.Candidates,
		Port:           bc.Port,
		Baud:           bc.Baud,
		UnlockByte:     bc.Byte(),
		PollInterval:   bc.PollInterval(),
		Debounce:       bc.Debounce(),
		RequestTimeout: bc.RequestTimeout(),
		OpenSettle:     bridge.DefaultOpenSettle,
	}, bridge.OpenSerial)

	start := time.Now()
	err := b.Run(ctx)

	s := b.Stats()
	logging.Info("Bridge stopped",
		zap.Duration("uptime", time.Since(start).Round(time.Second)),
		zap.Int("polls", s.Polls),
		zap.Int("unlocks", s.Unlocks),
		zap.Int("sent", s.Sent),
	)
	if err != nil {
		return fmt.Errorf("bridge failed: %w", err)
	}
	return nil
}
