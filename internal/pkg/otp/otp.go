package otp

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"time"

	pqotp "github.com/pquerna/otp"

	"github.com/shandysiswandi/crmotp/internal/pkg/clock"
	"github.com/shandysiswandi/crmotp/internal/pkg/hash"
)

// DefaultTTL is the validity window of an issued passcode.
const DefaultTTL = 5 * time.Minute

const (
	minCode = 100000
	maxCode = 999999
)

var (
	// ErrInvalidCode is returned for input that is not a six-digit code in range.
	ErrInvalidCode = errors.New("otp: invalid code")

	codeSpan = big.NewInt(maxCode - minCode + 1)
	digits   = pqotp.DigitsSix
)

// Credential is a freshly issued passcode together with its stored form.
type Credential struct {
	Code      string
	CodeHash  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config wires a Generator. Zero fields fall back to defaults.
type Config struct {
	// Hasher digests codes; must be deterministic. Defaults to hash.SHA256.
	Hasher hash.Hash
	// Clock stamps IssuedAt. Defaults to the system clock.
	Clock clock.Clocker
	// TTL is the validity window. Defaults to DefaultTTL.
	TTL time.Duration
	// Random is the entropy source. Defaults to crypto/rand.Reader.
	Random io.Reader
}

// Generator issues and verifies passcodes. It holds no mutable state and is
// safe for concurrent use.
type Generator struct {
	hasher hash.Hash
	clock  clock.Clocker
	ttl    time.Duration
	random io.Reader
}

// New builds a Generator from cfg.
func New(cfg Config) *Generator {
	g := &Generator{
		hasher: cfg.Hasher,
		clock:  cfg.Clock,
		ttl:    cfg.TTL,
		random: cfg.Random,
	}

	if g.hasher == nil {
		g.hasher = hash.NewSHA256()
	}
	if g.clock == nil {
		g.clock = clock.New()
	}
	if g.ttl <= 0 {
		g.ttl = DefaultTTL
	}
	if g.random == nil {
		g.random = rand.Reader
	}

	return g
}

// TTL returns the validity window applied by GenerateWithExpiry.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}

// Generate returns a uniformly distributed six-digit code.
func (g *Generator) Generate() (string, error) {
	n, err := rand.Int(g.random, codeSpan)
	if err != nil {
		return "", err
	}

	return digits.Format(int32(n.Int64() + minCode)), nil
}

// GenerateWithExpiry returns a new code with its digest and expiry window.
func (g *Generator) GenerateWithExpiry() (*Credential, error) {
	code, err := g.Generate()
	if err != nil {
		return nil, err
	}

	codeHash, err := g.Hash(code)
	if err != nil {
		return nil, err
	}

	now := g.clock.Now()

	return &Credential{
		Code:      code,
		CodeHash:  codeHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(g.ttl),
	}, nil
}

// Hash returns the hex digest of code. Malformed codes are rejected with
// ErrInvalidCode and never hashed.
func (g *Generator) Hash(code string) (string, error) {
	if !Valid(code) {
		return "", ErrInvalidCode
	}

	sum, err := g.hasher.Hash(code)
	if err != nil {
		return "", err
	}

	return string(sum), nil
}

// Verify reports whether code digests to storedHash. It does not check expiry.
func (g *Generator) Verify(code, storedHash string) bool {
	if !Valid(code) || storedHash == "" {
		return false
	}

	return g.hasher.Verify(storedHash, code)
}

// Valid reports whether code is exactly six ASCII digits in [100000, 999999].
func Valid(code string) bool {
	if len(code) != digits.Length() {
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return code[0] != '0'
}

// Expired reports whether now falls after the credential window.
func Expired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}
