package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
	"github.com/shandysiswandi/crmotp/internal/pkg/otp"
)

type VerifyOTPInput struct {
	Email string `validate:"required,email,max=255"`
	OTP   string `validate:"required,max=32"`
}

type VerifyOTPOutput struct {
	AccountID   int64
	Email       string
	FullName    string
	Role        entity.Role
	LastLoginAt time.Time
}

// VerifyOTP consumes the pending challenge when code matches it. Every
// rejection carries the same message so callers cannot tell a wrong code
// from an expired or missing one.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	invalid := goerror.NewBusiness(msgInvalidOTP, goerror.CodeUnauthorized)
	email := entity.NormalizeEmail(in.Email)

	ch, err := s.repoCache.GetChallenge(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge not found", "email", email)
		return nil, invalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get challenge", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if otp.Expired(ch.ExpiresAt, now) || ch.Attempts >= s.maxAttempts() {
		slog.WarnContext(ctx, "challenge no longer usable", "email", email, "expires_at", ch.ExpiresAt, "attempts", ch.Attempts)
		if err := s.repoCache.DeleteChallenge(ctx, email); err != nil {
			slog.WarnContext(ctx, "failed to repo delete challenge", "email", email, "error", err)
		}
		return nil, invalid
	}

	if !s.otp.Verify(in.OTP, ch.CodeHash) {
		attempts, err := s.repoCache.RecordFailedAttempt(ctx, email, ch.CodeHash, s.maxAttempts())
		switch {
		case errors.Is(err, goerror.ErrNotFound):
		case err != nil:
			slog.ErrorContext(ctx, "failed to repo record failed attempt", "email", email, "error", err)
		default:
			slog.WarnContext(ctx, "otp not match", "email", email, "attempts", attempts)
		}
		return nil, invalid
	}

	consumed, err := s.repoCache.ConsumeChallenge(ctx, email, ch.CodeHash)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume challenge", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !consumed {
		slog.WarnContext(ctx, "challenge superseded or already consumed", "email", email)
		return nil, invalid
	}

	account, err := s.repoDB.GetAccountByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account removed after challenge issued", "email", email)
		return nil, invalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureAccountActive(ctx, account); err != nil {
		return nil, err
	}

	if err := s.repoDB.UpdateLastLogin(ctx, account.ID, now); err != nil {
		slog.WarnContext(ctx, "failed to repo update last login", "account_id", account.ID, "error", err)
	}

	return &VerifyOTPOutput{
		AccountID:   account.ID,
		Email:       account.Email,
		FullName:    account.FullName,
		Role:        account.Role,
		LastLoginAt: now,
	}, nil
}
