package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
)

func TestUsecase_ResendOTP(t *testing.T) {
	env := newTestEnv(t, "")
	env.addAccount(t, "jane@acme.test", "Secret-123", entity.AccountStatusActive)

	out, err := env.uc.ResendOTP(t.Context(), ResendOTPInput{Email: "jane@acme.test"})
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now().Add(5*time.Minute), out.ExpiresAt)
	require.Len(t, env.notifier.sent, 1)
	assert.Contains(t, env.cache.challenges, "jane@acme.test")
}

func TestUsecase_ResendOTP_Cooldown(t *testing.T) {
	env := newTestEnv(t, "modules:\n  credential:\n    resend_cooldown_seconds: 30\n")
	env.addAccount(t, "jane@acme.test", "Secret-123", entity.AccountStatusActive)
	loggedIn(t, env, "jane@acme.test")

	env.clock.Advance(10 * time.Second)
	_, err := env.uc.ResendOTP(t.Context(), ResendOTPInput{Email: "jane@acme.test"})
	assertBusiness(t, err, goerror.CodeTooManyRequest, "Please wait 20 seconds before requesting a new OTP")
	assert.Len(t, env.notifier.sent, 1)

	env.clock.Advance(20 * time.Second)
	_, err = env.uc.ResendOTP(t.Context(), ResendOTPInput{Email: "jane@acme.test"})
	require.NoError(t, err)
	assert.Len(t, env.notifier.sent, 2)
}

func TestUsecase_ResendOTP_UnknownOrInactiveIsSilent(t *testing.T) {
	env := newTestEnv(t, "")
	env.addAccount(t, "old@acme.test", "Secret-123", entity.AccountStatusInactive)

	for _, email := range []string{"nobody@acme.test", "old@acme.test"} {
		out, err := env.uc.ResendOTP(t.Context(), ResendOTPInput{Email: email})
		require.NoError(t, err)
		assert.Equal(t, env.clock.Now().Add(5*time.Minute), out.ExpiresAt)

		_, err = env.uc.ResendOTP(t.Context(), ResendOTPInput{Email: email})
		assertBusiness(t, err, goerror.CodeTooManyRequest, "Please wait 30 seconds before requesting a new OTP")
	}

	assert.Empty(t, env.notifier.sent)
	assert.Empty(t, env.cache.challenges)
}

func TestUsecase_ResendOTP_SendFailureReleasesCooldown(t *testing.T) {
	env := newTestEnv(t, "")
	env.addAccount(t, "jane@acme.test", "Secret-123", entity.AccountStatusActive)
	env.notifier.err = errBoom

	_, err := env.uc.ResendOTP(t.Context(), ResendOTPInput{Email: "jane@acme.test"})
	assertBusiness(t, err, goerror.CodeUnavailable, msgSendOTPFailure)
	assert.Empty(t, env.cache.challenges)
	assert.Empty(t, env.cache.cooldowns)

	env.notifier.err = nil
	_, err = env.uc.ResendOTP(t.Context(), ResendOTPInput{Email: "jane@acme.test"})
	require.NoError(t, err)
}
