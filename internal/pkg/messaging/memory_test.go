package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSubscribed(t *testing.T, m *Memory, topic, group string) {
	t.Helper()

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		_, ok := m.groups[topic][group]
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_PublishConsume(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	got := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- m.Consume(ctx, "account_provisioned", func(_ context.Context, msg Message) error {
			got <- msg
			return nil
		}, WithConsumerName("notification"), WithAutoAck(true))
	}()
	waitSubscribed(t, m, "account_provisioned", "notification")

	res, err := m.Publish(t.Context(), "account_provisioned", OutgoingMessage{
		Body:    []byte(`{"account_id":1}`),
		Key:     []byte("1"),
		Headers: []Header{{Key: "cID", Value: []byte("abc")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", res.MessageID)

	select {
	case msg := <-got:
		assert.Equal(t, `{"account_id":1}`, string(msg.Body()))
		assert.Equal(t, "account_provisioned", msg.Topic())
		cID, ok := HeaderValue(msg.Headers(), "cID")
		assert.True(t, ok)
		assert.Equal(t, "abc", cID)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMemory_NackRedelivers(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var (
		mu       sync.Mutex
		attempts int
	)
	delivered := make(chan struct{})
	go func() {
		_ = m.Consume(ctx, "topic", func(context.Context, Message) error {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			if attempts < 3 {
				return errors.New("smtp down")
			}
			close(delivered)
			return nil
		}, WithConsumerName("g"), WithAutoAck(true))
	}()
	waitSubscribed(t, m, "topic", "g")

	_, err := m.Publish(t.Context(), "topic", OutgoingMessage{Body: []byte("x")})
	require.NoError(t, err)

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("message not redelivered")
	}
	mu.Lock()
	assert.Equal(t, 3, attempts)
	mu.Unlock()
}

func TestMemory_PanicIsNacked(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var calls int
	var mu sync.Mutex
	ok := make(chan struct{})
	go func() {
		_ = m.Consume(ctx, "topic", func(context.Context, Message) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				panic("template exploded")
			}
			close(ok)
			return nil
		}, WithConsumerName("g"), WithAutoAck(true))
	}()
	waitSubscribed(t, m, "topic", "g")

	_, err := m.Publish(t.Context(), "topic", OutgoingMessage{Body: []byte("x")})
	require.NoError(t, err)

	select {
	case <-ok:
	case <-time.After(2 * time.Second):
		t.Fatal("message not redelivered after panic")
	}
}

func TestMemory_Errors(t *testing.T) {
	m := NewMemory()

	_, err := m.Publish(t.Context(), "", OutgoingMessage{})
	assert.Error(t, err)

	_, err = m.Publish(t.Context(), "topic", OutgoingMessage{Delay: time.Second})
	assert.ErrorIs(t, err, ErrUnsupported)

	assert.ErrorIs(t, m.Consume(t.Context(), "topic", nil), ErrHandlerRequired)

	require.NoError(t, m.Close())
	_, err = m.Publish(t.Context(), "topic", OutgoingMessage{})
	assert.Error(t, err)
}

func TestNewFromDriver(t *testing.T) {
	got, err := NewFromDriver(" Memory ", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, got)

	_, err = NewFromDriver("nsq", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(DriverNATS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)
}
