package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/lockpanel/internal/feed"
)

var recordPath string

var tailCmd = &cobra.Command{
	Use:   "tail [feed-addr]",
	Short: "Print frames from a running panel's websocket feed",
	Long: `Connect to the websocket feed of 'lockpanel watch --feed' and print
each frame as it arrives. With --record every frame is also appended to
a JSON Lines file for later analysis.`,
	Example: `  # Feed address from config
  lockpanel tail

  # Remote kiosk, recording frames
  lockpanel tail 192.168.1.30:8765 --record capture.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVar(&recordPath, "record", "", "Append frames to this JSON Lines file")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	addr := cfg.Feed.Addr
	if len(args) == 1 {
		addr = args[0]
	}
	url := feed.WebsocketURL(addr)

	var record func(feed.Received) error
	if recordPath != "" {
		f, err := os.OpenFile(recordPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open record file: %w", err)
		}
		defer func() { _ = f.Close() }()
		record = feed.Recorder(f)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Tailing %s (Ctrl+C to stop)\n", url)
	return feed.Tail(ctx, url, func(r feed.Received) error {
		fmt.Fprintf(out, "%s  %-26s %s\n", r.At.Format("15:04:05.000"), r.Type, r.Data)
		if record != nil {
			return record(r)
		}
		return nil
	})
}
