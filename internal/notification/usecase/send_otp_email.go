package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/crmotp/internal/notification/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/otp"
)

type SendOTPEmailInput struct {
	To   string `validate:"required,email"`
	Code string `validate:"required,otpcode"`
	Name string `validate:"max=100"`
}

// SendOTPEmail emails a login passcode with its validity notice.
func (s *Usecase) SendOTPEmail(ctx context.Context, in SendOTPEmailInput) entity.DeliveryResult {
	ctx, span := s.startSpan(ctx, "SendOTPEmail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "invalid otp email input", "error", err)
		return entity.Failed("invalid input: " + err.Error())
	}

	ttl := s.cfg.GetSecond("modules.credential.otp_ttl_seconds")
	if ttl <= 0 {
		ttl = otp.DefaultTTL
	}

	data := s.baseTemplateData()
	data["Name"] = displayName(in.Name, in.To)
	data["Code"] = in.Code
	data["Validity"] = validityNotice(ttl)

	return s.dispatch(ctx, dispatchInput{
		kind:     entity.DeliveryKindOTP,
		to:       in.To,
		template: TemplateOTP,
		data:     data,
	})
}

// validityNotice renders ttl as whole minutes, rounded up.
func validityNotice(ttl time.Duration) string {
	minutes := max(int((ttl+time.Minute-1)/time.Minute), 1)
	if minutes == 1 {
		return "1 minute"
	}
	return strconv.Itoa(minutes) + " minutes"
}
