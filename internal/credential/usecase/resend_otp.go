package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
)

type ResendOTPInput struct {
	Email string `validate:"required,email,max=255"`
}

type ResendOTPOutput struct {
	ExpiresAt time.Time
}

// ResendOTP replaces the pending challenge with a new one. Unknown and
// inactive accounts get the same answer as real ones.
func (s *Usecase) ResendOTP(ctx context.Context, in ResendOTPInput) (*ResendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "ResendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := entity.NormalizeEmail(in.Email)

	ok, remaining, err := s.repoCache.AcquireCooldown(ctx, email, s.resendCooldown())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo acquire resend cooldown", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		wait := int(math.Ceil(remaining.Seconds()))
		return nil, goerror.NewBusiness(
			fmt.Sprintf("Please wait %d seconds before requesting a new OTP", max(wait, 1)),
			goerror.CodeTooManyRequest,
		)
	}

	silent := &ResendOTPOutput{ExpiresAt: s.clock.Now().Add(s.otp.TTL())}

	account, err := s.repoDB.GetAccountByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "resend requested for unknown account", "email", email)
		return silent, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", email, "error", err)
		s.releaseCooldown(ctx, email)
		return nil, goerror.NewServer(err)
	}

	if account.Status != entity.AccountStatusActive {
		slog.WarnContext(ctx, "resend requested for inactive account", "account_id", account.ID)
		return silent, nil
	}

	cred, err := s.issueChallenge(ctx, account)
	if err != nil {
		s.releaseCooldown(ctx, email)
		return nil, err
	}

	return &ResendOTPOutput{ExpiresAt: cred.ExpiresAt}, nil
}

func (s *Usecase) releaseCooldown(ctx context.Context, email string) {
	if err := s.repoCache.ReleaseCooldown(context.WithoutCancel(ctx), email); err != nil {
		slog.WarnContext(ctx, "failed to repo release resend cooldown", "email", email, "error", err)
	}
}
