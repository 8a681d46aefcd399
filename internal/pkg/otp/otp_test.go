package otp

import (
	"bytes"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/crmotp/internal/pkg/clock"
	"github.com/shandysiswandi/crmotp/internal/pkg/hash"
)

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerate_Range(t *testing.T) {
	g := New(Config{})

	for range 2000 {
		code, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)

		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "non-digit in %q", code)
		}

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}

func TestGenerate_Random(t *testing.T) {
	t.Run("zero entropy maps to lower bound", func(t *testing.T) {
		g := New(Config{Random: bytes.NewReader(make([]byte, 64))})

		code, err := g.Generate()
		require.NoError(t, err)
		assert.Equal(t, "100000", code)
	})

	t.Run("reader failure", func(t *testing.T) {
		g := New(Config{Random: errReader{}})

		code, err := g.Generate()
		assert.Error(t, err)
		assert.Empty(t, code)

		cred, err := g.GenerateWithExpiry()
		assert.Error(t, err)
		assert.Nil(t, cred)
	})
}

func TestGenerate_Distribution(t *testing.T) {
	const samples = 10000
	g := New(Config{})

	var leading, trailing [10]int
	seen := make(map[string]int, samples)
	for range samples {
		code, err := g.Generate()
		require.NoError(t, err)

		leading[code[0]-'0']++
		trailing[code[5]-'0']++
		seen[code]++
	}

	assert.Zero(t, leading[0])

	// Critical values for p=0.0001 are ~31.8 (df=8) and ~33.7 (df=9).
	assert.Less(t, chiSquare(leading[1:], samples), 40.0)
	assert.Less(t, chiSquare(trailing[:], samples), 40.0)

	// With 900000 possible codes the expected number of repeats among 10000
	// draws is about 55.
	assert.Greater(t, len(seen), samples-200)
}

func chiSquare(buckets []int, total int) float64 {
	expected := float64(total) / float64(len(buckets))

	var sum float64
	for _, observed := range buckets {
		d := float64(observed) - expected
		sum += d * d / expected
	}

	return sum
}

func TestHash(t *testing.T) {
	g := New(Config{})

	sum, err := g.Hash("123456")
	require.NoError(t, err)
	assert.Equal(t, "8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92", sum)

	again, err := g.Hash("123456")
	require.NoError(t, err)
	assert.Equal(t, sum, again)

	other, err := g.Hash("123457")
	require.NoError(t, err)
	assert.NotEqual(t, sum, other)
}

func TestHash_Malformed(t *testing.T) {
	g := New(Config{})

	for _, code := range []string{"", "12345", "1234567", "abcdef", "12345a", "012345", " 12345", "１２３４５６"} {
		t.Run(strconv.Quote(code), func(t *testing.T) {
			sum, err := g.Hash(code)
			assert.ErrorIs(t, err, ErrInvalidCode)
			assert.Empty(t, sum)
			assert.False(t, g.Verify(code, "8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92"))
		})
	}
}

func TestVerify(t *testing.T) {
	g := New(Config{})

	t.Run("generated code verifies against its own hash", func(t *testing.T) {
		cred, err := g.GenerateWithExpiry()
		require.NoError(t, err)

		assert.True(t, g.Verify(cred.Code, cred.CodeHash))
	})

	t.Run("different code does not verify", func(t *testing.T) {
		cred, err := g.GenerateWithExpiry()
		require.NoError(t, err)

		for range 100 {
			other, err := g.Generate()
			require.NoError(t, err)
			if other == cred.Code {
				continue
			}
			assert.False(t, g.Verify(other, cred.CodeHash))
		}
	})

	t.Run("malformed stored hash", func(t *testing.T) {
		assert.False(t, g.Verify("123456", ""))
		assert.False(t, g.Verify("123456", "not-a-digest"))
		assert.False(t, g.Verify("123456", "8D969EEF6ECAD3C29A3A629280E686CF0C3F5D5A86AFF3CA12020C923ADC6C92"))
	})

	t.Run("hmac digests are bound to the secret", func(t *testing.T) {
		a := New(Config{Hasher: hash.NewHMACSHA256("a")})
		b := New(Config{Hasher: hash.NewHMACSHA256("b")})

		sum, err := a.Hash("424242")
		require.NoError(t, err)

		assert.True(t, a.Verify("424242", sum))
		assert.False(t, b.Verify("424242", sum))
	})
}

func TestGenerateWithExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("default window", func(t *testing.T) {
		g := New(Config{Clock: clock.NewFrozen(now)})

		cred, err := g.GenerateWithExpiry()
		require.NoError(t, err)

		assert.Equal(t, now, cred.IssuedAt)
		assert.Equal(t, DefaultTTL, cred.ExpiresAt.Sub(cred.IssuedAt))
		assert.Equal(t, 5*time.Minute, g.TTL())

		sum, err := g.Hash(cred.Code)
		require.NoError(t, err)
		assert.Equal(t, sum, cred.CodeHash)
		assert.NotEqual(t, cred.Code, cred.CodeHash)
	})

	t.Run("custom window", func(t *testing.T) {
		g := New(Config{Clock: clock.NewFrozen(now), TTL: time.Minute})

		cred, err := g.GenerateWithExpiry()
		require.NoError(t, err)
		assert.Equal(t, time.Minute, cred.ExpiresAt.Sub(cred.IssuedAt))
	})
}

func TestExpired(t *testing.T) {
	clk := clock.NewFrozen(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))
	g := New(Config{Clock: clk})

	cred, err := g.GenerateWithExpiry()
	require.NoError(t, err)

	assert.False(t, Expired(cred.ExpiresAt, clk.Now()))

	clk.Advance(DefaultTTL)
	assert.False(t, Expired(cred.ExpiresAt, clk.Now()))

	clk.Advance(time.Nanosecond)
	assert.True(t, Expired(cred.ExpiresAt, clk.Now()))

	// The digest still matches; expiry is the caller's check.
	assert.True(t, g.Verify(cred.Code, cred.CodeHash))
}
