package messaging

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const redeliveryDelay = 100 * time.Millisecond

// Memory delivers messages in-process. Each consumer group receives every
// message once; messages published before any consumer subscribes are
// dropped, matching core NATS.
type Memory struct {
	mu     sync.Mutex
	groups map[string]map[string]chan *memoryMessage
	closed bool
	seq    *atomic.Int64
	done   chan struct{}
}

// NewMemory constructs an in-process broker.
func NewMemory() *Memory {
	return &Memory{
		groups: map[string]map[string]chan *memoryMessage{},
		seq:    atomic.NewInt64(0),
		done:   make(chan struct{}),
	}
}

// Close stops all consumers.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish fans msg out to every consumer group of destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNATSSubjectRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return PublishResult{}, io.ErrClosedPipe
	}
	chans := make([]chan *memoryMessage, 0, len(m.groups[destination]))
	for _, ch := range m.groups[destination] {
		chans = append(chans, ch)
	}
	m.mu.Unlock()

	res := PublishResult{
		MessageID: strconv.FormatInt(m.seq.Inc(), 10),
		Topic:     destination,
		Timestamp: time.Now(),
	}
	for _, ch := range chans {
		mm := &memoryMessage{
			id:      res.MessageID,
			topic:   destination,
			body:    append([]byte(nil), msg.Body...),
			key:     msg.Key,
			headers: append([]Header(nil), msg.Headers...),
			at:      res.Timestamp,
			acked:   atomic.NewBool(false),
		}
		select {
		case ch <- mm:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		case <-m.done:
			return PublishResult{}, io.ErrClosedPipe
		}
	}

	return res, nil
}

// Consume registers a consumer group on source and blocks until ctx is done
// or the broker is closed. Nacked messages are redelivered to the group.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrNATSSubjectRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	group := co.queueGroup
	if group == "" {
		group = co.group
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	if m.groups[source] == nil {
		m.groups[source] = map[string]chan *memoryMessage{}
	}
	ch, ok := m.groups[source][group]
	if !ok {
		ch = make(chan *memoryMessage, 64)
		m.groups[source][group] = ch
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case mm := <-ch:
					_ = handle(ctx, "memory", handler, mm, co.autoAck)
					if mm.nacked.Load() {
						go m.redeliver(ctx, ch, mm.redelivery())
					}
				}
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return io.ErrClosedPipe
}

func (m *Memory) redeliver(ctx context.Context, ch chan<- *memoryMessage, mm *memoryMessage) {
	select {
	case <-time.After(redeliveryDelay):
	case <-ctx.Done():
		return
	case <-m.done:
		return
	}

	select {
	case ch <- mm:
	case <-ctx.Done():
	case <-m.done:
	}
}

type memoryMessage struct {
	id      string
	topic   string
	body    []byte
	key     []byte
	headers []Header
	at      time.Time
	acked   *atomic.Bool
	nacked  atomic.Bool
	attempt int
}

func (mm *memoryMessage) redelivery() *memoryMessage {
	return &memoryMessage{
		id: mm.id, topic: mm.topic, body: mm.body, key: mm.key,
		headers: mm.headers, at: mm.at, acked: atomic.NewBool(false),
		attempt: mm.attempt + 1,
	}
}

func (mm *memoryMessage) responded() bool      { return mm.acked.Load() }
func (mm *memoryMessage) Body() []byte         { return mm.body }
func (mm *memoryMessage) Key() []byte          { return mm.key }
func (mm *memoryMessage) Headers() []Header    { return mm.headers }
func (mm *memoryMessage) ID() string           { return mm.id }
func (mm *memoryMessage) Topic() string        { return mm.topic }
func (mm *memoryMessage) Timestamp() time.Time { return mm.at }

func (mm *memoryMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mm.acked.Store(true)
	return nil
}

func (mm *memoryMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !mm.acked.Swap(true) {
		mm.nacked.Store(true)
	}
	return nil
}
