package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/clock"
	"github.com/shandysiswandi/crmotp/internal/pkg/config"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
	"github.com/shandysiswandi/crmotp/internal/pkg/hash"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/otp"
	"github.com/shandysiswandi/crmotp/internal/pkg/password"
	"github.com/shandysiswandi/crmotp/internal/pkg/validator"
)

var errBoom = errors.New("boom")

type fakeDB struct {
	mu        sync.Mutex
	accounts  map[string]entity.Account
	lastLogin map[int64]time.Time
	getErr    error
	createErr error
	deleted   []int64
}

func (f *fakeDB) GetAccountByEmail(_ context.Context, email string) (*entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.accounts[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &a, nil
}

func (f *fakeDB) CreateAccount(_ context.Context, a entity.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.accounts[a.Email]; ok {
		return goerror.ErrConflict
	}
	f.accounts[a.Email] = a
	return nil
}

func (f *fakeDB) DeleteAccount(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	for k, a := range f.accounts {
		if a.ID == id {
			delete(f.accounts, k)
			return nil
		}
	}
	return goerror.ErrNotFound
}

func (f *fakeDB) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLogin[id] = at
	return nil
}

// fakeCache keeps the compare-and-delete semantics of the redis store.
type fakeCache struct {
	mu         sync.Mutex
	clock      clock.Clocker
	challenges map[string]entity.Challenge
	cooldowns  map[string]time.Time
	saveErr    error
}

func (f *fakeCache) SaveChallenge(_ context.Context, ch entity.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.challenges[ch.Email] = ch
	return nil
}

func (f *fakeCache) GetChallenge(_ context.Context, email string) (*entity.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.challenges[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &ch, nil
}

func (f *fakeCache) ConsumeChallenge(_ context.Context, email, codeHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.challenges[email]
	if !ok || ch.CodeHash != codeHash {
		return false, nil
	}
	delete(f.challenges, email)
	return true, nil
}

func (f *fakeCache) RecordFailedAttempt(_ context.Context, email, codeHash string, maxAttempts int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.challenges[email]
	if !ok || ch.CodeHash != codeHash {
		return 0, goerror.ErrNotFound
	}
	ch.Attempts++
	if ch.Attempts >= maxAttempts {
		delete(f.challenges, email)
	} else {
		f.challenges[email] = ch
	}
	return ch.Attempts, nil
}

func (f *fakeCache) DeleteChallenge(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.challenges, email)
	return nil
}

func (f *fakeCache) AcquireCooldown(_ context.Context, email string, window time.Duration) (bool, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.clock.Now()
	if until, ok := f.cooldowns[email]; ok && until.After(now) {
		return false, until.Sub(now), nil
	}
	f.cooldowns[email] = now.Add(window)
	return true, 0, nil
}

func (f *fakeCache) StartCooldown(_ context.Context, email string, window time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cooldowns[email] = f.clock.Now().Add(window)
	return nil
}

func (f *fakeCache) ReleaseCooldown(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cooldowns, email)
	return nil
}

type sentOTP struct {
	To, Code, Name string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (f *fakeNotifier) SendOTP(_ context.Context, to, code, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentOTP{To: to, Code: code, Name: name})
	return "<otp@crm.test>", nil
}

func (f *fakeNotifier) last(t *testing.T) sentOTP {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeMessaging struct {
	mu        sync.Mutex
	published []AccountProvisionedEvent
	err       error
}

func (f *fakeMessaging) PublishAccountProvisioned(_ context.Context, msg AccountProvisionedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type testEnv struct {
	uc       *Usecase
	db       *fakeDB
	cache    *fakeCache
	notifier *fakeNotifier
	mq       *fakeMessaging
	clock    *clock.Frozen
	passHash *countingHash
}

func newTestEnv(t *testing.T, yaml string) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFrozen(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	env := &testEnv{
		db:       &fakeDB{accounts: map[string]entity.Account{}, lastLogin: map[int64]time.Time{}},
		cache:    &fakeCache{clock: clk, challenges: map[string]entity.Challenge{}, cooldowns: map[string]time.Time{}},
		notifier: &fakeNotifier{},
		mq:       &fakeMessaging{},
		clock:    clk,
		passHash: &countingHash{inner: hash.NewBcrypt(4, "")},
	}
	env.uc = New(Dependency{
		RepoDB:        env.db,
		RepoCache:     env.cache,
		RepoMessaging: env.mq,
		RepoNotifier:  env.notifier,
		Validator:     v,
		Config:        cfg,
		OTP:           otp.New(otp.Config{Clock: clk, TTL: cfg.GetSecond("modules.credential.otp_ttl_seconds")}),
		PasswordHash:  env.passHash,
		Password:      password.NewTemporary(),
		UID:           &seqID{n: 100},
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
	})

	return env
}

func (e *testEnv) addAccount(t *testing.T, email, pass string, status entity.AccountStatus) entity.Account {
	t.Helper()

	sum, err := e.passHash.Hash(pass)
	require.NoError(t, err)

	a := entity.Account{
		ID:           int64(len(e.db.accounts) + 1),
		Email:        email,
		FullName:     "Jane Doe",
		Role:         entity.RoleManager,
		Status:       status,
		PasswordHash: string(sum),
		CreatedAt:    e.clock.Now(),
	}
	e.db.accounts[email] = a
	return a
}

func assertBusiness(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()

	ge, ok := goerror.As(err)
	require.True(t, ok, "want *goerror.Error, got %v", err)
	assert.Equal(t, code, ge.Code())
	assert.Equal(t, msg, ge.Msg())
}

type countingHash struct {
	inner    hash.Hash
	verifies atomic.Int32
}

func (c *countingHash) Hash(str string) ([]byte, error) {
	return c.inner.Hash(str)
}

func (c *countingHash) Verify(hashed, str string) bool {
	c.verifies.Add(1)
	return c.inner.Verify(hashed, str)
}
