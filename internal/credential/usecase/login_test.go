package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
)

func TestUsecase_Login(t *testing.T) {
	env := newTestEnv(t, "")
	env.addAccount(t, "jane@acme.test", "Secret-123", entity.AccountStatusActive)

	out, err := env.uc.Login(t.Context(), LoginInput{Email: "  Jane@Acme.test ", Password: "Secret-123"})
	require.NoError(t, err)

	assert.True(t, out.OTPRequired)
	assert.Equal(t, env.clock.Now().Add(5*time.Minute), out.ExpiresAt)

	sent := env.notifier.last(t)
	assert.Equal(t, "jane@acme.test", sent.To)
	assert.Equal(t, "Jane Doe", sent.Name)
	assert.Len(t, sent.Code, 6)

	ch, ok := env.cache.challenges["jane@acme.test"]
	require.True(t, ok)
	assert.NotEqual(t, sent.Code, ch.CodeHash, "raw code must not be stored")
	assert.Len(t, ch.CodeHash, 64)
	assert.Equal(t, out.ExpiresAt, ch.ExpiresAt)

	_, cooling := env.cache.cooldowns["jane@acme.test"]
	assert.True(t, cooling)
}

func TestUsecase_Login_SupersedesPendingChallenge(t *testing.T) {
	env := newTestEnv(t, "")
	env.addAccount(t, "jane@acme.test", "Secret-123", entity.AccountStatusActive)

	_, err := env.uc.Login(t.Context(), LoginInput{Email: "jane@acme.test", Password: "Secret-123"})
	require.NoError(t, err)
	first := env.cache.challenges["jane@acme.test"]

	env.clock.Advance(time.Minute)
	_, err = env.uc.Login(t.Context(), LoginInput{Email: "jane@acme.test", Password: "Secret-123"})
	require.NoError(t, err)

	assert.Len(t, env.cache.challenges, 1)
	assert.True(t, env.cache.challenges["jane@acme.test"].ExpiresAt.After(first.ExpiresAt))
}

func TestUsecase_Login_Rejected(t *testing.T) {
	tests := []struct {
		name string
		in   LoginInput
		code goerror.Code
		msg  string
	}{
		{name: "unknown email", in: LoginInput{Email: "nobody@acme.test", Password: "Secret-123"}, code: goerror.CodeUnauthorized, msg: msgInvalidLogin},
		{name: "wrong password", in: LoginInput{Email: "jane@acme.test", Password: "Secret-124"}, code: goerror.CodeUnauthorized, msg: msgInvalidLogin},
		{name: "inactive account", in: LoginInput{Email: "old@acme.test", Password: "Secret-123"}, code: goerror.CodeForbidden, msg: "Account is inactive"},
		{name: "invalid email", in: LoginInput{Email: "jane", Password: "Secret-123"}, code: goerror.CodeInvalidInput, msg: "Validation error"},
		{name: "missing password", in: LoginInput{Email: "jane@acme.test"}, code: goerror.CodeInvalidInput, msg: "Validation error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			env.addAccount(t, "jane@acme.test", "Secret-123", entity.AccountStatusActive)
			env.addAccount(t, "old@acme.test", "Secret-123", entity.AccountStatusInactive)

			out, err := env.uc.Login(t.Context(), tt.in)
			assert.Nil(t, out)
			assertBusiness(t, err, tt.code, tt.msg)
			assert.Empty(t, env.notifier.sent)
			assert.Empty(t, env.cache.challenges)
		})
	}
}

func TestUsecase_Login_UnknownEmailStillChecksPassword(t *testing.T) {
	env := newTestEnv(t, "")
	env.addAccount(t, "jane@acme.test", "Secret-123", entity.AccountStatusActive)

	_, err := env.uc.Login(t.Context(), LoginInput{Email: "nobody@acme.test", Password: "Secret-123"})
	assertBusiness(t, err, goerror.CodeUnauthorized, msgInvalidLogin)
	assert.Equal(t, int32(1), env.passHash.verifies.Load())

	_, err = env.uc.Login(t.Context(), LoginInput{Email: "jane@acme.test", Password: "Secret-124"})
	assertBusiness(t, err, goerror.CodeUnauthorized, msgInvalidLogin)
	assert.Equal(t, int32(2), env.passHash.verifies.Load())
}

func TestUsecase_Login_SendFailure(t *testing.T) {
	env := newTestEnv(t, "")
	env.addAccount(t, "jane@acme.test", "Secret-123", entity.AccountStatusActive)
	env.notifier.err = errBoom

	out, err := env.uc.Login(t.Context(), LoginInput{Email: "jane@acme.test", Password: "Secret-123"})
	assert.Nil(t, out)
	assertBusiness(t, err, goerror.CodeUnavailable, msgSendOTPFailure)
	assert.NotContains(t, err.(*goerror.Error).Msg(), "boom")

	assert.Empty(t, env.cache.challenges, "undelivered challenge must be withdrawn")
	assert.Empty(t, env.cache.cooldowns)
}

func TestUsecase_Login_RepoFailure(t *testing.T) {
	env := newTestEnv(t, "")
	env.db.getErr = errBoom

	_, err := env.uc.Login(t.Context(), LoginInput{Email: "jane@acme.test", Password: "Secret-123"})
	assertBusiness(t, err, goerror.CodeInternal, "Internal server error")
	assert.ErrorIs(t, err, errBoom)
}
