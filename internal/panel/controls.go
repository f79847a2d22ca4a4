package panel

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/lockapi"
)

// fireAndForget posts to the server, ignores the answer and refreshes the
// status so the outcome shows up as state.
func (p *Panel) fireAndForget(action string, call func(context.Context) (*lockapi.PostResult, error)) {
	p.background(func(ctx context.Context) func() {
		result, err := call(ctx)
		switch {
		case err != nil:
			p.log.Warn("Control request failed", zap.String("action", action), zap.Error(err))
		case !result.Succeeded:
			p.log.Info("Control request rejected",
				zap.String("action", action),
				zap.Int("status_code", result.StatusCode),
				zap.String("message", result.Message()),
			)
		}
		return p.refreshStatus
	})
}

func (p *Panel) showCurrentOTP() {
	p.background(func(ctx context.Context) func() {
		otp, err := p.transport.GetOTP(ctx)
		return func() {
			if err != nil {
				p.log.Warn("Show current OTP failed", zap.Error(err))
				p.showResult(failure(MsgFetchOTPError))
				return
			}
			p.showResult(info(fmt.Sprintf(currentOTPMessageFmt, otp.OTP, otp.Remaining)))
		}
	})
}
