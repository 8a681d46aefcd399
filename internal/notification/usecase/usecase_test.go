package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/crmotp/internal/notification/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/clock"
	"github.com/shandysiswandi/crmotp/internal/pkg/config"
	"github.com/shandysiswandi/crmotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/mail"
	"github.com/shandysiswandi/crmotp/internal/pkg/validator"
)

type fakeMail struct {
	mu    sync.Mutex
	sent  []mail.Message
	calls int
	send  func(ctx context.Context, msg mail.Message) (string, error)
}

func (f *fakeMail) Send(ctx context.Context, msg mail.Message) (string, error) {
	f.mu.Lock()
	f.calls++
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if f.send != nil {
		return f.send(ctx, msg)
	}
	return "<id-1@crm.test>", nil
}

func (f *fakeMail) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDB struct {
	mu   sync.Mutex
	logs []entity.DeliveryLog
	err  error
}

func (f *fakeDB) CreateDeliveryLog(_ context.Context, log entity.DeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, log)
	return f.err
}

type renderFunc func(name string, data any) (Rendered, error)

func (f renderFunc) Render(name string, data any) (Rendered, error) { return f(name, data) }

// fakeIdem mirrors idempotency.StateTracker: completed keys are remembered,
// failed keys are released.
type fakeIdem struct {
	mu   sync.Mutex
	done map[string]bool
}

func (f *fakeIdem) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.mu.Lock()
	if f.done == nil {
		f.done = map[string]bool{}
	}
	if f.done[key] {
		f.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	f.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	f.done[key] = true
	f.mu.Unlock()
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
	uc    *Usecase
	mail  *fakeMail
	db    *fakeDB
	idem  *fakeIdem
	clock *clock.Frozen
}

func newTestEnv(t *testing.T, yaml string, renderer Renderer) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	if renderer == nil {
		renderer, err = NewTemplateRenderer()
		require.NoError(t, err)
	}

	env := &testEnv{
		mail:  &fakeMail{},
		db:    &fakeDB{},
		idem:  &fakeIdem{},
		clock: clock.NewFrozen(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)),
	}
	env.uc = NewNotification(Dependency{
		RepoMail:    env.mail,
		RepoDB:      env.db,
		Renderer:    renderer,
		Config:      cfg,
		UID:         &seqID{},
		Clock:       env.clock,
		Validator:   v,
		Idempotency: env.idem,
		Instrument:  instrument.NewNoop(),
	})

	return env
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:25: connect: connection refused")
