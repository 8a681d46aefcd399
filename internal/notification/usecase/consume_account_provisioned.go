package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shandysiswandi/crmotp/internal/pkg/idempotency"
)

const defaultWelcomeRetryBase = 500 * time.Millisecond

type ConsumeAccountProvisionedInput struct {
	AccountID         int64  `validate:"required,gt=0"`
	Email             string `validate:"required,email"`
	FullName          string `validate:"max=100"`
	Role              string `validate:"required,oneof=admin manager employee"`
	TemporaryPassword string `validate:"required"`
}

// ConsumeAccountProvisioned sends the welcome email for a provisioned account
// at most once per account id, retrying transport failures with exponential
// backoff. Invalid payloads are dropped.
func (s *Usecase) ConsumeAccountProvisioned(ctx context.Context, in ConsumeAccountProvisionedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAccountProvisioned")
	defer span.End()

	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "account_id", in.AccountID, "error", err)
		return nil
	}

	attempts := s.cfg.GetInt("modules.notification.welcome_retry_attempts")
	if attempts < 1 {
		attempts = 1
	}
	base := time.Duration(s.cfg.GetInt("modules.notification.welcome_retry_base_ms")) * time.Millisecond
	if base <= 0 {
		base = defaultWelcomeRetryBase
	}

	send := func(ctx context.Context) error {
		backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))
		return retry.Do(ctx, backoff, func(ctx context.Context) error {
			result := s.SendWelcomeEmail(ctx, SendWelcomeEmailInput{
				To:                in.Email,
				Name:              in.FullName,
				TemporaryPassword: in.TemporaryPassword,
				Role:              in.Role,
			})
			if !result.Success {
				return retry.RetryableError(errors.New(result.Error))
			}
			return nil
		})
	}

	err := s.idem.Exec(ctx, "welcome:"+strconv.FormatInt(in.AccountID, 10), send)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "welcome email already handled", "account_id", in.AccountID, "reason", err)
		return nil
	default:
		slog.ErrorContext(ctx, "failed to send welcome email", "account_id", in.AccountID, "attempts", attempts, "error", err)
		return err
	}
}
