package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/feed"
	"github.com/muurk/lockpanel/internal/logging"
	"github.com/muurk/lockpanel/internal/panel"
	"github.com/muurk/lockpanel/internal/tui"
)

// Watch command flags
var (
	headless bool
	feedOn   bool
	feedAddr string
	inline   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Launch the interactive dashboard",
	Long: `Poll the lock server and show the passcode, door and Bluetooth state.

The dashboard flashes an unlock cue whenever the door goes from locked to
unlocked. With --headless the panel runs without a terminal UI and logs
state changes instead. With --feed the same state is mirrored to
websocket clients at ws://<feed-addr>/ws.`,
	Example: `  # Dashboard (default command)
  lockpanel
  lockpanel watch --url http://192.168.1.20:5000

  # Headless, mirroring state to a browser kiosk
  lockpanel watch --headless --feed --feed-addr 0.0.0.0:8765`,
	RunE: runWatch,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, watchCmd} {
		c.Flags().BoolVar(&headless, "headless", false, "Run without the dashboard and log state changes")
		c.Flags().BoolVar(&feedOn, "feed", false, "Serve the panel state over websocket")
		c.Flags().StringVar(&feedAddr, "feed-addr", "", "Feed listen address (default from config)")
		c.Flags().BoolVar(&inline, "inline", false, "Draw the dashboard inline instead of on the alternate screen")
	}
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !headless && logLevel != "" && logFile == "" {
		return errors.New("--log-file is required with --log-level while the dashboard is shown")
	}
	if headless {
		if err := daemonLogging(); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	base, err := resolveServer(ctx)
	if err != nil {
		return err
	}
	client := newClient(base)

	var (
		sets      []panel.Slots
		observers []func(panel.Event)
	)

	feedErr := make(chan error, 1)
	if feedOn {
		addr := feedAddr
		if addr == "" {
			addr = cfg.Feed.Addr
		}
		hub := feed.NewHub()
		srv := feed.NewServer(addr, hub)
		if err := srv.Listen(); err != nil {
			return err
		}
		go func() { feedErr <- srv.Run(ctx) }()
		sets = append(sets, hub.Slots())
		observers = append(observers, hub.Observe)
	}

	pcfg := panel.Config{
		OTPInterval:    cfg.Panel.OTPInterval(),
		StatusInterval: cfg.Panel.StatusInterval(),
		CueWindow:      cfg.Panel.CueWindow(),
		PasscodeDigits: cfg.Panel.PasscodeDigits,
	}

	if headless {
		log := logging.Named("watch")
		sets = append(sets, logSlots(log))
		observers = append(observers, logEvents(log))
		pcfg.Observer = chain(observers)

		p := panel.New(client, panel.Fanout(sets...), pcfg)
		log.Info("Watching lock server", zap.String("url", base))
		p.Run(ctx)
		return waitFeed(feedOn, feedErr)
	}

	app := tui.NewApp(tui.Options{
		ServerURL:      base,
		PasscodeDigits: cfg.Panel.PasscodeDigits,
		Inline:         inline,
	})
	sets = append(sets, app.Slots())
	pcfg.Observer = chain(observers)

	p := panel.New(client, panel.Fanout(sets...), pcfg)
	runErr := app.Run(ctx, p)
	cancel()
	if err := waitFeed(feedOn, feedErr); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func waitFeed(on bool, errs <-chan error) error {
	if !on {
		return nil
	}
	return <-errs
}

func chain(observers []func(panel.Event)) func(panel.Event) {
	switch len(observers) {
	case 0:
		return nil
	case 1:
		return observers[0]
	}
	return func(ev panel.Event) {
		for _, o := range observers {
			o(ev)
		}
	}
}

// logSlots renders the panel as log lines. Door, Bluetooth and result
// changes are logged at info; the passcode countdown at debug.
func logSlots(log *zap.Logger) panel.Slots {
	var (
		lastOTP  string
		lastBT   string
		lastDoor *bool
	)
	return panel.Slots{
		OTP: panel.TextFunc(func(s string) {
			if s != lastOTP {
				lastOTP = s
				log.Info("Passcode changed", zap.String("otp", s))
			}
		}),
		Remaining: panel.TextFunc(func(s string) {
			log.Debug("Passcode countdown", zap.String("remaining", s))
		}),
		BluetoothState: panel.TextFunc(func(s string) {
			if s != lastBT {
				lastBT = s
				log.Info("Bluetooth", zap.String("state", s))
			}
		}),
		DoorStatus: panel.DoorFunc(func(locked bool) {
			if lastDoor == nil || *lastDoor != locked {
				lastDoor = &locked
				log.Info("Door", zap.String("state", panel.DoorLabel(locked)))
			}
		}),
		Result: panel.MessageFunc(func(m panel.ResultMessage) {
			log.Info("Result", zap.String("message", m.Text), zap.Stringer("severity", m.Severity))
		}),
	}
}

// logEvents logs the unlock cue lifecycle
func logEvents(log *zap.Logger) func(panel.Event) {
	return func(ev panel.Event) {
		switch ev.Kind {
		case panel.EventUnlock:
			log.Info("Door unlocked")
		case panel.EventCueExpired:
			log.Debug("Unlock cue cleared")
		}
	}
}
