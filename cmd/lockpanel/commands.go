package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/discovery"
	"github.com/muurk/lockpanel/internal/lockapi"
	"github.com/muurk/lockpanel/internal/logging"
	"github.com/muurk/lockpanel/internal/panel"
	"github.com/muurk/lockpanel/internal/ui"
)

// One-shot command flags
var (
	scanTimeout int
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(otpCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(toggleBTCmd)
	rootCmd.AddCommand(mediaUnlockCmd)
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntVar(&scanTimeout, "scan-timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// daemonLogging turns on info logging to stderr for commands whose only
// output is the log, unless a level was chosen explicitly
func daemonLogging() error {
	if logLevel != "" || os.Getenv(logging.LogLevelEnvVar) != "" {
		return nil
	}
	out := logFile
	if out == "" {
		out = "stderr"
	}
	if err := logging.Initialize("info", out); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// resolveServer returns the lock server base URL, browsing mDNS when
// --discover is set
func resolveServer(ctx context.Context) (string, error) {
	if !discover {
		return cfg.Server.URL, nil
	}

	s := discovery.NewScanner()
	if scanTimeout > 0 {
		s.Timeout = time.Duration(scanTimeout) * time.Second
	}
	ep, err := s.First(ctx)
	if err != nil {
		return "", fmt.Errorf("no lock server found on the local network: %w", err)
	}
	logging.Info("Discovered lock server", zap.String("endpoint", ep.String()))
	return ep.BaseURL(), nil
}

// newClient builds a client for the pollers: no retries
func newClient(baseURL string) *lockapi.Client {
	c := lockapi.NewClient(baseURL)
	c.SetTimeout(cfg.Server.Timeout())
	return c
}

// newOneShotClient builds a client for single commands, retrying reads
func newOneShotClient(baseURL string) *lockapi.Client {
	c := newClient(baseURL)
	if cfg.Server.Retries > 0 {
		c.SetRetry(cfg.Server.Retries, lockapi.DefaultRetryDelay)
	}
	return c
}

// oneShot runs a single request against the lock server with a header
// and signal handling
func oneShot(cmd *cobra.Command, title string, run func(ctx context.Context, c *lockapi.Client, p *ui.Printer) error) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	base, err := resolveServer(ctx)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader(title, cmd.CommandPath(), ui.Param{Key: "Server", Value: base})
	return run(ctx, newOneShotClient(base), p)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the door and Bluetooth state",
	Example: `  lockpanel status
  lockpanel status --url http://192.168.1.20:5000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(cmd, "Door status", func(ctx context.Context, c *lockapi.Client, p *ui.Printer) error {
			status, err := c.GetStatus(ctx)
			if err != nil {
				p.PrintLockError("Status request failed", err)
				return errReported
			}
			p.PrintStatus(status)
			return nil
		})
	},
}

var otpCmd = &cobra.Command{
	Use:   "otp",
	Short: "Show the current passcode",
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(cmd, "Current passcode", func(ctx context.Context, c *lockapi.Client, p *ui.Printer) error {
			otp, err := c.GetOTP(ctx)
			if err != nil {
				p.PrintLockError(panel.MsgFetchOTPError, err)
				return errReported
			}
			p.PrintOTP(otp)
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <code>",
	Short: "Verify a passcode and unlock the door",
	Long: `Send a passcode to the lock server for verification.

The code must be exactly the configured number of ASCII digits (4 by
default); surrounding whitespace is ignored.`,
	Example: `  lockpanel verify 0427`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		digits := cfg.Panel.PasscodeDigits
		if err := panel.ValidatePasscode(args[0], digits); err != nil {
			return err
		}

		return oneShot(cmd, "Verify passcode", func(ctx context.Context, c *lockapi.Client, p *ui.Printer) error {
			result, err := c.VerifyOTP(ctx, strings.TrimSpace(args[0]))
			msg := panel.ClassifyVerification(result, err)
			if err != nil {
				p.PrintLockError(msg.Text, err)
				return errReported
			}
			p.PrintMessage("Verification", msg)
			if msg.Severity == panel.SeverityError {
				return errReported
			}
			return nil
		})
	},
}

// postCommand builds a command for a fire-and-forget control endpoint
func postCommand(use, short, title string, call func(*lockapi.Client, context.Context) (*lockapi.PostResult, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return oneShot(cmd, title, func(ctx context.Context, c *lockapi.Client, p *ui.Printer) error {
				result, err := call(c, ctx)
				if err != nil {
					p.PrintLockError(title+" failed", err)
					return errReported
				}
				details := []ui.Param{{Key: "HTTP status", Value: fmt.Sprintf("%d", result.StatusCode)}}
				if m := result.Message(); m != "" {
					details = append(details, ui.Param{Key: "Server", Value: m})
				}
				if !result.Succeeded {
					p.PrintWarning(title+" rejected", details...)
					return errReported
				}
				p.PrintSuccess(title+" sent", details...)
				return nil
			})
		},
	}
}

var (
	unlockCmd      = postCommand("unlock", "Unlock the door via Bluetooth", "Bluetooth unlock", (*lockapi.Client).UnlockBluetooth)
	toggleBTCmd    = postCommand("toggle-bt", "Toggle Bluetooth on the lock server", "Bluetooth toggle", (*lockapi.Client).ToggleBluetooth)
	mediaUnlockCmd = postCommand("media-unlock", "Trigger the media-key unlock", "Media unlock", (*lockapi.Client).MediaUnlock)
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for lock servers on the network",
	Long: `Scan for lock servers using mDNS/DNS-SD discovery.

Servers advertising ` + discovery.LockServiceType + ` are listed, as are plain
` + discovery.HTTPServiceType + ` services that look like a lock server.`,
	Example: `  # Scan for 5 seconds (default)
  lockpanel scan

  # Longer scan for slow networks
  lockpanel scan --scan-timeout 15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		timeout := time.Duration(scanTimeout) * time.Second
		p := ui.NewPrinter(cmd.OutOrStdout())
		p.PrintHeader("Lock server scan", cmd.CommandPath(), ui.Param{Key: "Timeout", Value: timeout.String()})

		endpoints, err := discovery.Scan(ctx, timeout)
		if err != nil {
			p.PrintFailure("Scan failed", err, []string{
				"Check that multicast traffic is allowed on this network",
				"Use --url to point at the server directly",
			})
			return errReported
		}
		p.PrintEndpoints(endpoints)
		return nil
	},
}
