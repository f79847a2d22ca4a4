package panel

import (
	"context"
	"testing"
	"time"

	"github.com/muurk/lockpanel/internal/lockapi"
)

func TestLoop_RunsInOrder(t *testing.T) {
	loop := NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	got := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		if !loop.Post(func() { got <- i }) {
			t.Fatal("Post rejected while running")
		}
	}

	for want := 1; want <= 3; want++ {
		select {
		case n := <-got:
			if n != want {
				t.Fatalf("task %d ran, want %d", n, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for task")
		}
	}
}

func TestLoop_PostAfterStop(t *testing.T) {
	loop := NewLoop(1)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	cancel()

	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	if loop.Post(func() {}) {
		t.Error("Post should report false after the loop stopped")
	}
}

func TestRealClock(t *testing.T) {
	var clock RealClock

	fired := make(chan struct{})
	clock.AfterFunc(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc did not fire")
	}

	ticks := make(chan struct{}, 16)
	ticker := clock.Every(5*time.Millisecond, func() { ticks <- struct{}{} })
	for i := 0; i < 2; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatal("Every did not tick")
		}
	}
	if !ticker.Stop() {
		t.Error("first Stop should report true")
	}
	if ticker.Stop() {
		t.Error("second Stop should report false")
	}
}

func TestPanel_RunWithRealLoop(t *testing.T) {
	transport := &fakeTransport{}
	otp := make(chan string, 8)
	p := New(transport, Slots{OTP: TextFunc(func(s string) { otp <- s })}, Config{OTPInterval: time.Hour, StatusInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case got := <-otp:
		if got != "0000" {
			t.Errorf("otp = %q, want 0000", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no OTP rendered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoop_SurvivesPanickingTask(t *testing.T) {
	loop := NewLoop(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	ran := make(chan struct{})
	loop.Post(func() { panic("render failed") })
	loop.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-loop.Done():
		t.Fatal("loop stopped after a task panicked")
	case <-time.After(2 * time.Second):
		t.Fatal("task after the panic never ran")
	}
}

func TestPanel_ResultPanicDoesNotStopPanel(t *testing.T) {
	transport := &fakeTransport{verify: verifyAnswer{result: &lockapi.PostResult{Succeeded: true, StatusCode: 200}}}
	enabled := make(chan struct{}, 1)
	slots := Slots{
		SubmitDisabled: FlagFunc(func(b bool) {
			if !b {
				select {
				case enabled <- struct{}{}:
				default:
				}
			}
		}),
		Result: MessageFunc(func(m ResultMessage) {
			if m.Severity == SeveritySuccess {
				panic("render failed")
			}
		}),
	}
	p := New(transport, slots, Config{OTPInterval: time.Hour, StatusInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Submit(StaticInput{Text: "1234"})
	select {
	case <-enabled:
	case <-time.After(2 * time.Second):
		t.Fatal("submit control was not re-enabled")
	}

	ran := make(chan struct{})
	if !p.loop.Post(func() { close(ran) }) {
		t.Fatal("panel loop stopped after a slot panicked")
	}
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("panel stopped handling work after a slot panicked")
	}
}
