package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/clock"
	"github.com/shandysiswandi/crmotp/internal/pkg/config"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
	"github.com/shandysiswandi/crmotp/internal/pkg/hash"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/otp"
	"github.com/shandysiswandi/crmotp/internal/pkg/password"
	"github.com/shandysiswandi/crmotp/internal/pkg/uid"
	"github.com/shandysiswandi/crmotp/internal/pkg/validator"
)

const (
	msgInvalidLogin   = "Invalid email or password"
	msgInvalidOTP     = "Invalid OTP"
	msgSendOTPFailure = "Failed to send OTP, please try again"
)

type AccountProvisionedEvent struct {
	AccountID         int64
	Email             string
	FullName          string
	Role              string
	TemporaryPassword string
}

type repoDB interface {
	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
	CreateAccount(ctx context.Context, a entity.Account) error
	DeleteAccount(ctx context.Context, id int64) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type repoCache interface {
	SaveChallenge(ctx context.Context, ch entity.Challenge) error
	GetChallenge(ctx context.Context, email string) (*entity.Challenge, error)
	ConsumeChallenge(ctx context.Context, email, codeHash string) (bool, error)
	RecordFailedAttempt(ctx context.Context, email, codeHash string, maxAttempts int) (int, error)
	DeleteChallenge(ctx context.Context, email string) error
	AcquireCooldown(ctx context.Context, email string, window time.Duration) (bool, time.Duration, error)
	StartCooldown(ctx context.Context, email string, window time.Duration) error
	ReleaseCooldown(ctx context.Context, email string) error
}

type repoMessaging interface {
	PublishAccountProvisioned(ctx context.Context, msg AccountProvisionedEvent) error
}

type repoNotifier interface {
	SendOTP(ctx context.Context, to, code, name string) (string, error)
}

type passcode interface {
	GenerateWithExpiry() (*otp.Credential, error)
	Verify(code, storedHash string) bool
	TTL() time.Duration
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	RepoNotifier  repoNotifier
	Validator     validator.Validator
	Config        config.Config
	OTP           passcode
	PasswordHash  hash.Hash
	Password      password.Generator
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	repoNotifier  repoNotifier
	validator     validator.Validator
	cfg           config.Config
	otp           passcode
	passwordHash  hash.Hash
	password      password.Generator
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation

	// decoyHash stands in for the stored hash when no account matches.
	decoyHash func() string
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		repoNotifier:  dep.RepoNotifier,
		validator:     dep.Validator,
		cfg:           dep.Config,
		otp:           dep.OTP,
		passwordHash:  dep.PasswordHash,
		password:      dep.Password,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
	s.decoyHash = sync.OnceValue(func() string {
		sum, err := s.passwordHash.Hash("decoy-password-for-unknown-accounts")
		if err != nil {
			slog.Error("failed to hash decoy password", "error", err)
			return ""
		}
		return string(sum)
	})

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.usecase").Start(ctx, name)
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("modules.credential.max_attempts"); n > 0 {
		return n
	}
	return 5
}

func (s *Usecase) resendCooldown() time.Duration {
	if d := s.cfg.GetSecond("modules.credential.resend_cooldown_seconds"); d > 0 {
		return d
	}
	return 30 * time.Second
}

func (s *Usecase) ensureAccountActive(ctx context.Context, account *entity.Account) error {
	if account.Status == entity.AccountStatusActive {
		return nil
	}

	slog.WarnContext(ctx, "account is not active", "account_id", account.ID, "status", account.Status.String())
	return goerror.NewBusiness("Account is inactive", goerror.CodeForbidden)
}

// issueChallenge stores a fresh challenge for account, replacing any pending
// one, and emails the passcode. When delivery fails the new challenge is
// withdrawn so no code exists that the user never received.
func (s *Usecase) issueChallenge(ctx context.Context, account *entity.Account) (*otp.Credential, error) {
	email := entity.NormalizeEmail(account.Email)

	cred, err := s.otp.GenerateWithExpiry()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "account_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoCache.SaveChallenge(ctx, entity.Challenge{
		Email:     email,
		CodeHash:  cred.CodeHash,
		ExpiresAt: cred.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo save challenge", "account_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	messageID, err := s.repoNotifier.SendOTP(ctx, account.Email, cred.Code, account.FullName)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "account_id", account.ID, "error", err)

		if _, cerr := s.repoCache.ConsumeChallenge(context.WithoutCancel(ctx), email, cred.CodeHash); cerr != nil {
			slog.WarnContext(ctx, "failed to withdraw undelivered challenge", "account_id", account.ID, "error", cerr)
		}

		return nil, goerror.NewBusinessWrap(err, msgSendOTPFailure, goerror.CodeUnavailable)
	}

	slog.InfoContext(ctx, "otp issued", "account_id", account.ID, "message_id", messageID, "expires_at", cred.ExpiresAt)

	return cred, nil
}
