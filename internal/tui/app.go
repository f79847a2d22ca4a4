package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/logging"
	"github.com/muurk/lockpanel/internal/panel"
)

// Runner is a Controller that also owns a processing loop
type Runner interface {
	Controller
	Run(ctx context.Context)
}

// Options configures the dashboard
type Options struct {
	ServerURL      string
	PasscodeDigits int

	// Inline draws in the normal screen buffer instead of the alternate one
	Inline bool

	// ProgramOptions are passed through to tea.NewProgram after the
	// defaults.
	ProgramOptions []tea.ProgramOption
}

// App runs the dashboard program alongside the panel that feeds it
type App struct {
	opts Options

	mu      sync.Mutex
	program *tea.Program
}

// NewApp creates a dashboard app. Wire App.Slots into the panel before Run.
func NewApp(opts Options) *App {
	return &App{opts: opts}
}

// Slots returns the slot set that drives the dashboard
func (a *App) Slots() panel.Slots {
	return Slots(a)
}

// Send forwards msg to the running program. Messages sent before Run or
// after the program exits are dropped.
func (a *App) Send(msg tea.Msg) {
	a.mu.Lock()
	p := a.program
	a.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Run shows the dashboard and runs r until the user quits or ctx is done
func (a *App) Run(ctx context.Context, r Runner) error {
	log := logging.Named("tui")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewDashboardModel(a.opts.ServerURL, a.opts.PasscodeDigits, r)
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !a.opts.Inline {
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, a.opts.ProgramOptions...)
	p := tea.NewProgram(model, opts...)

	a.mu.Lock()
	a.program = p
	a.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx)
	}()

	_, err := p.Run()

	a.mu.Lock()
	a.program = nil
	a.mu.Unlock()
	cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Error("Dashboard exited", zap.Error(err))
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
