package panel

import (
	"context"

	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/logging"
)

// Executor runs panel tasks one at a time, in submission order
type Executor interface {
	// Post queues task. It reports false when the executor has stopped and
	// the task will never run.
	Post(task func()) bool
}

// Loop is the serial executor every panel state change runs on
type Loop struct {
	tasks chan func()
	done  chan struct{}
	log   *zap.Logger
}

// NewLoop creates a loop with room for backlog queued tasks
func NewLoop(backlog int) *Loop {
	return &Loop{
		tasks: make(chan func(), backlog),
		done:  make(chan struct{}),
		log:   logging.Named("panel"),
	}
}

// Post queues task, blocking while the queue is full
func (l *Loop) Post(task func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- task:
		return true
	case <-l.done:
		return false
	}
}

// Run executes queued tasks until ctx is cancelled. Tasks still queued at
// that point are dropped. A task that panics is logged and the loop moves on.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-l.tasks:
			l.run(task)
		}
	}
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Panel task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	task()
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
