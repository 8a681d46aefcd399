package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
)

const (
	keyChallenge = "credential:otp:"
	keyCooldown  = "credential:otp_cooldown:"

	fieldHash      = "hash"
	fieldExpiresAt = "expires_at"
	fieldAttempts  = "attempts"
)

// consumeScript deletes the challenge only while it still holds the digest
// the caller verified against.
var consumeScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'hash') == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// attemptScript counts a failed attempt on the current generation and drops
// the challenge once the limit is reached. It returns -1 when the challenge
// was replaced or removed meanwhile.
var attemptScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'hash') ~= ARGV[1] then
	return -1
end
local n = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
if n >= tonumber(ARGV[2]) then
	redis.call('DEL', KEYS[1])
end
return n
`)

// Cache stores pending challenges as redis hashes that expire with the
// challenge, plus resend cooldown markers.
type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("credential.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SaveChallenge replaces any pending challenge for the same email.
func (c *Cache) SaveChallenge(ctx context.Context, ch entity.Challenge) (err error) {
	ctx, span := c.startSpan(ctx, "SaveChallenge")
	defer func() { c.endSpan(span, err) }()

	key := keyChallenge + ch.Email
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldHash, ch.CodeHash,
			fieldExpiresAt, ch.ExpiresAt.UnixMilli(),
			fieldAttempts, ch.Attempts,
		)
		pipe.ExpireAt(ctx, key, ch.ExpiresAt)
		return nil
	})

	return err
}

func (c *Cache) GetChallenge(ctx context.Context, email string) (_ *entity.Challenge, err error) {
	ctx, span := c.startSpan(ctx, "GetChallenge")
	defer func() { c.endSpan(span, err) }()

	fields, err := c.client.HGetAll(ctx, keyChallenge+email).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 || fields[fieldHash] == "" {
		return nil, goerror.ErrNotFound
	}

	expiresAt, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, err
	}
	attempts, err := strconv.Atoi(fields[fieldAttempts])
	if err != nil {
		return nil, err
	}

	return &entity.Challenge{
		Email:     email,
		CodeHash:  fields[fieldHash],
		ExpiresAt: time.UnixMilli(expiresAt).UTC(),
		Attempts:  attempts,
	}, nil
}

// ConsumeChallenge deletes the challenge if it still carries codeHash and
// reports whether this call removed it.
func (c *Cache) ConsumeChallenge(ctx context.Context, email, codeHash string) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "ConsumeChallenge")
	defer func() { c.endSpan(span, err) }()

	n, err := consumeScript.Run(ctx, c.client, []string{keyChallenge + email}, codeHash).Int()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// RecordFailedAttempt increments the attempt counter of the codeHash
// generation and removes the challenge at maxAttempts. It returns the new
// count, or goerror.ErrNotFound when that generation no longer exists.
func (c *Cache) RecordFailedAttempt(ctx context.Context, email, codeHash string, maxAttempts int) (_ int, err error) {
	ctx, span := c.startSpan(ctx, "RecordFailedAttempt")
	defer func() { c.endSpan(span, err) }()

	n, err := attemptScript.Run(ctx, c.client, []string{keyChallenge + email}, codeHash, maxAttempts).Int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, goerror.ErrNotFound
	}

	return n, nil
}

func (c *Cache) DeleteChallenge(ctx context.Context, email string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteChallenge")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, keyChallenge+email).Err()
}

// AcquireCooldown starts a cooldown window for email. It returns false and
// the remaining time when a window is already running.
func (c *Cache) AcquireCooldown(ctx context.Context, email string, window time.Duration) (_ bool, _ time.Duration, err error) {
	ctx, span := c.startSpan(ctx, "AcquireCooldown")
	defer func() { c.endSpan(span, err) }()

	key := keyCooldown + email
	ok, err := c.client.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}

	remaining, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if remaining < 0 {
		remaining = 0
	}

	return false, remaining, nil
}

// StartCooldown (re)starts the cooldown window for email unconditionally.
func (c *Cache) StartCooldown(ctx context.Context, email string, window time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "StartCooldown")
	defer func() { c.endSpan(span, err) }()

	return c.client.Set(ctx, keyCooldown+email, 1, window).Err()
}

// ReleaseCooldown ends the cooldown window early.
func (c *Cache) ReleaseCooldown(ctx context.Context, email string) (err error) {
	ctx, span := c.startSpan(ctx, "ReleaseCooldown")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, keyCooldown+email).Err()
}
