package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,max=72"`
}

type LoginOutput struct {
	OTPRequired bool
	ExpiresAt   time.Time
}

// Login checks the password and, when it matches an active account, emails a
// passcode that must be confirmed through VerifyOTP.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := entity.NormalizeEmail(in.Email)
	account, err := s.repoDB.GetAccountByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "email", email)
		_ = s.passwordHash.Verify(s.decoyHash(), in.Password)
		return nil, goerror.NewBusiness(msgInvalidLogin, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.passwordHash.Verify(account.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "password account not match", "account_id", account.ID)
		return nil, goerror.NewBusiness(msgInvalidLogin, goerror.CodeUnauthorized)
	}

	if err := s.ensureAccountActive(ctx, account); err != nil {
		return nil, err
	}

	cred, err := s.issueChallenge(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := s.repoCache.StartCooldown(ctx, email, s.resendCooldown()); err != nil {
		slog.WarnContext(ctx, "failed to repo start resend cooldown", "account_id", account.ID, "error", err)
	}

	return &LoginOutput{OTPRequired: true, ExpiresAt: cred.ExpiresAt}, nil
}
