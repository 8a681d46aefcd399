package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CollectsErrors(t *testing.T) {
	m := NewManager(4)
	boom := errors.New("boom")

	require.NoError(t, m.Go(t.Context(), "ok", func(context.Context) error { return nil }))
	require.NoError(t, m.Go(t.Context(), "fail", func(context.Context) error { return boom }))
	require.NoError(t, m.Go(t.Context(), "canceled", func(context.Context) error { return context.Canceled }))
	require.NoError(t, m.Go(t.Context(), "panic", func(context.Context) error { panic("bad") }))

	err := m.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fail: boom")
	assert.Contains(t, err.Error(), "panic: bad")
	assert.NotContains(t, err.Error(), "canceled")
}

func TestManager_LimitAndClosed(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})

	require.NoError(t, m.Go(t.Context(), "block", func(context.Context) error {
		<-release
		return nil
	}))
	assert.ErrorIs(t, m.Go(t.Context(), "extra", func(context.Context) error { return nil }), ErrLimitReached)

	close(release)
	require.NoError(t, m.Wait())
	assert.ErrorIs(t, m.Go(t.Context(), "late", func(context.Context) error { return nil }), ErrManagerClosed)
}

func TestManager_CanceledContextSkipsTask(t *testing.T) {
	m := NewManager(0)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	ran := false
	require.NoError(t, m.Go(ctx, "skipped", func(context.Context) error {
		ran = true
		return nil
	}))
	require.NoError(t, m.Wait())
	assert.False(t, ran)
}
