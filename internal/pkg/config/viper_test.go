package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: crm-credential
mail:
  host: smtp.internal
  port: 2525
  from: CRM <no-reply@crm.example.com>
modules:
  credential:
    max_attempts: 3
cors:
  origins: "https://crm.example.com, ,https://admin.example.com"
instrument:
  masked_fields: "password:***,code:***"
`

func TestNewViperFromBytes(t *testing.T) {
	_, err := NewViperFromBytes("", []byte(sample))
	assert.Error(t, err)

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "crm-credential", cfg.GetString("app.name"))
	assert.Equal(t, 2525, cfg.GetInt("mail.port"))
	assert.Equal(t, 3, cfg.GetInt("modules.credential.max_attempts"))
	assert.Equal(t, []string{"https://crm.example.com", "https://admin.example.com"}, cfg.GetArray("cors.origins"))
	assert.Equal(t, map[string]string{"password": "***", "code": "***"}, cfg.GetMap("instrument.masked_fields"))
	assert.Nil(t, cfg.GetArray("missing.key"))
	assert.NoError(t, cfg.Close())
}

func TestViper_Defaults(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte("app: {}"))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.GetSecond("modules.notification.mail_timeout_seconds"))
	assert.Equal(t, 30*time.Second, cfg.GetSecond("modules.credential.resend_cooldown_seconds"))
	assert.Equal(t, 5, cfg.GetInt("modules.credential.max_attempts"))
	assert.Equal(t, 5*time.Minute, cfg.GetSecond("modules.credential.otp_ttl_seconds"))
	assert.Equal(t, "sha256", cfg.GetString("hash.otp.algorithm"))
	assert.Equal(t, 587, cfg.GetInt("mail.port"))
}

func TestViper_EnvOverrides(t *testing.T) {
	t.Setenv("SMTP_HOST", "relay.example.net")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SMTP_PASS", "s3cret")
	t.Setenv("SMTP_FROM", "ops@example.net")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "relay.example.net", cfg.GetString("mail.host"))
	assert.Equal(t, 465, cfg.GetInt("mail.port"))
	assert.Equal(t, "mailer", cfg.GetString("mail.username"))
	assert.Equal(t, "s3cret", cfg.GetString("mail.password"))
	assert.Equal(t, "ops@example.net", cfg.GetString("mail.from"))
}

func TestNewViper_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0o600))

	cfg, err := NewViper(file)
	require.NoError(t, err)
	assert.Equal(t, "smtp.internal", cfg.GetString("mail.host"))

	_, err = NewViper(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestViper_GetBinary(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte("key:\n  good: aGVsbG8=\n  bad: '!!!'\n"))
	require.NoError(t, err)

	assert.Equal(t, []byte("hello"), cfg.GetBinary("key.good"))
	assert.Nil(t, cfg.GetBinary("key.bad"))
}
