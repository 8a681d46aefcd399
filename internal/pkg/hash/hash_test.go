package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256(t *testing.T) {
	h := NewSHA256()

	sum, err := h.Hash("123456")
	require.NoError(t, err)
	// echo -n 123456 | sha256sum
	assert.Equal(t, "8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92", string(sum))

	again, err := h.Hash("123456")
	require.NoError(t, err)
	assert.Equal(t, sum, again)

	other, err := h.Hash("123457")
	require.NoError(t, err)
	assert.NotEqual(t, sum, other)

	assert.True(t, h.Verify(string(sum), "123456"))
	assert.False(t, h.Verify(string(sum), "123457"))
	assert.False(t, h.Verify("", "123456"))
	assert.False(t, h.Verify(string(sum[:10]), "123456"))
}

func TestHMACSHA256(t *testing.T) {
	a := NewHMACSHA256("secret-a")
	b := NewHMACSHA256("secret-b")

	sumA, err := a.Hash("654321")
	require.NoError(t, err)
	sumB, err := b.Hash("654321")
	require.NoError(t, err)

	assert.Len(t, sumA, 64)
	assert.NotEqual(t, sumA, sumB)
	assert.True(t, a.Verify(string(sumA), "654321"))
	assert.False(t, b.Verify(string(sumA), "654321"))
}

func TestBcrypt(t *testing.T) {
	h := NewBcrypt(4, "pepper")

	sum, err := h.Hash("Temp-Pass-1")
	require.NoError(t, err)

	assert.True(t, h.Verify(string(sum), "Temp-Pass-1"))
	assert.False(t, h.Verify(string(sum), "Temp-Pass-2"))
	assert.False(t, NewBcrypt(4, "other").Verify(string(sum), "Temp-Pass-1"))
	assert.False(t, h.Verify("", "Temp-Pass-1"))
}

func TestArgon2id(t *testing.T) {
	h := NewArgon2id("pepper")

	sum, err := h.Hash("Temp-Pass-1")
	require.NoError(t, err)
	assert.Contains(t, string(sum), "$argon2id$")

	assert.True(t, h.Verify(string(sum), "Temp-Pass-1"))
	assert.False(t, h.Verify(string(sum), "Temp-Pass-2"))
	assert.False(t, h.Verify("$argon2id$broken", "Temp-Pass-1"))
}

func TestNewFromAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		algo    string
		opts    Options
		want    any
		wantErr bool
	}{
		{name: "default is sha256", algo: "", want: &SHA256{}},
		{name: "sha256", algo: "SHA256", want: &SHA256{}},
		{name: "hmac", algo: "hmac-sha256", opts: Options{Secret: "s"}, want: &HMACSHA256{}},
		{name: "hmac without secret", algo: "hmac-sha256", wantErr: true},
		{name: "bcrypt", algo: "bcrypt", opts: Options{BcryptCost: 4}, want: &Bcrypt{}},
		{name: "argon2id", algo: "argon2id", want: &Argon2id{}},
		{name: "unknown", algo: "md5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFromAlgorithm(tt.algo, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}
