package panel

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/lockapi"
	"github.com/muurk/lockpanel/internal/logging"
)

// sequence numbers the requests of one poll cycle so a response that
// arrives after a newer one has been applied is dropped.
type sequence struct {
	issued  uint64
	applied uint64
}

func (s *sequence) next() uint64 {
	s.issued++
	return s.issued
}

// accept reports whether the response to request seq is newer than the last
// applied one, and marks it applied if so.
func (s *sequence) accept(seq uint64) bool {
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	return true
}

func (p *Panel) refreshOTP() {
	seq := p.otpSeq.next()
	p.background(func(ctx context.Context) func() {
		otp, err := p.transport.GetOTP(ctx)
		return func() { p.applyOTP(seq, otp, err) }
	})
}

func (p *Panel) applyOTP(seq uint64, otp *lockapi.OTPResponse, err error) {
	if err != nil {
		logging.LogPollSkipped("otp", err)
		return
	}
	if !p.otpSeq.accept(seq) {
		p.log.Debug("Stale OTP response dropped", zap.Uint64("seq", seq))
		return
	}

	snapshot := OTPSnapshot{Code: otp.OTP, RemainingSeconds: otp.Remaining}
	p.sink.otp.SetText(snapshot.Code)
	p.sink.remaining.SetText(strconv.Itoa(snapshot.RemainingSeconds))
	p.emit(Event{Kind: EventOTP, OTP: &snapshot})
}

func (p *Panel) refreshStatus() {
	seq := p.statusSeq.next()
	p.background(func(ctx context.Context) func() {
		status, err := p.transport.GetStatus(ctx)
		return func() { p.applyStatus(seq, status, err) }
	})
}

func (p *Panel) applyStatus(seq uint64, status *lockapi.StatusResponse, err error) {
	// A failed poll leaves the detector on its last good state
	if err != nil {
		logging.LogPollSkipped("status", err)
		return
	}
	if !p.statusSeq.accept(seq) {
		p.log.Debug("Stale status response dropped", zap.Uint64("seq", seq))
		return
	}

	snapshot := DeviceStatus{BluetoothEnabled: status.BluetoothEnabled, DoorLocked: status.DoorLocked}
	p.sink.btButtonOff.SetFlag(!snapshot.BluetoothEnabled)
	p.sink.btState.SetText(BluetoothLabel(snapshot.BluetoothEnabled))
	p.sink.door.SetDoor(snapshot.DoorLocked)
	p.emit(Event{Kind: EventStatus, Status: &snapshot})

	if p.detector.Observe(snapshot.DoorLocked) {
		p.log.Info("Door unlocked")
		p.emit(Event{Kind: EventUnlock, Status: &snapshot})
		p.debouncer.Trigger()
	}
}
