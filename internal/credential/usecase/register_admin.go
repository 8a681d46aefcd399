package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
)

type RegisterAdminInput struct {
	Email    string `validate:"required,email,max=255"`
	FullName string `validate:"required,min=2,max=100,personname"`
	Role     string `validate:"required"`
}

type RegisterAdminOutput struct {
	AccountID int64
	Email     string
	FullName  string
	Role      entity.Role
	Status    entity.AccountStatus
}

// RegisterAdmin provisions a back-office account with a temporary password.
// The password only leaves this service inside the account_provisioned
// event that drives the welcome email.
func (s *Usecase) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (*RegisterAdminOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterAdmin")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	role, ok := entity.RoleFromString(in.Role)
	if !ok {
		allowed := strings.Join(lo.Map(entity.Roles, func(r entity.Role, _ int) string { return r.String() }), ", ")
		return nil, goerror.NewInvalidInput(nil, "role", "role must be one of "+allowed)
	}

	tempPassword, err := s.password.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate temporary password", "error", err)
		return nil, goerror.NewServer(err)
	}

	passHash, err := s.passwordHash.Hash(tempPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash temporary password", "error", err)
		return nil, goerror.NewServer(err)
	}

	account := entity.Account{
		ID:           s.uid.Generate(),
		Email:        entity.NormalizeEmail(in.Email),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         role,
		Status:       entity.AccountStatusActive,
		PasswordHash: string(passHash),
		CreatedAt:    s.clock.Now(),
	}

	err = s.repoDB.CreateAccount(ctx, account)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "account email already registered", "email", account.Email)
		return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create account", "email", account.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishAccountProvisioned(ctx, AccountProvisionedEvent{
		AccountID:         account.ID,
		Email:             account.Email,
		FullName:          account.FullName,
		Role:              account.Role.String(),
		TemporaryPassword: tempPassword,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish account provisioned", "account_id", account.ID, "error", err)

		if derr := s.repoDB.DeleteAccount(context.WithoutCancel(ctx), account.ID); derr != nil {
			slog.ErrorContext(ctx, "failed to repo delete unannounced account", "account_id", account.ID, "error", derr)
		}

		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "account provisioned", "account_id", account.ID, "role", account.Role.String())

	return &RegisterAdminOutput{
		AccountID: account.ID,
		Email:     account.Email,
		FullName:  account.FullName,
		Role:      account.Role,
		Status:    account.Status,
	}, nil
}
