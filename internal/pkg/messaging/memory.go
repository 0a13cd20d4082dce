package messaging

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	memoryQueueSize     = 1024
	memoryMaxDeliveries = 3
)

// Memory is an in-process broker. Every consumer of a topic competes for the
// same queue, Nack requeues a message up to three deliveries in total and
// nothing survives a restart. It suits single-instance deployments and tests.
type Memory struct {
	mu     sync.Mutex
	topics map[string]chan *memoryMessage
	seq    atomic.Uint64
	closed bool
}

// NewMemory constructs an in-process broker.
func NewMemory() *Memory {
	return &Memory{topics: map[string]chan *memoryMessage{}}
}

func (b *Memory) queue(topic string) (chan *memoryMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	q, ok := b.topics[topic]
	if !ok {
		q = make(chan *memoryMessage, memoryQueueSize)
		b.topics[topic] = q
	}

	return q, nil
}

// Close stops accepting messages. Queued messages are discarded.
func (b *Memory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true

	return nil
}

// Publish enqueues a message, blocking while the topic queue is full.
func (b *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	q, err := b.queue(destination)
	if err != nil {
		return PublishResult{}, err
	}

	m := &memoryMessage{
		id:      strconv.FormatUint(b.seq.Inc(), 10),
		body:    append([]byte(nil), msg.Body...),
		headers: append([]Header(nil), msg.Headers...),
		queue:   q,
	}

	select {
	case q <- m:
	case <-ctx.Done():
		return PublishResult{}, ctx.Err()
	}

	return PublishResult{MessageID: m.id, Topic: destination, Timestamp: time.Now()}, nil
}

// Consume handles messages from the topic queue until ctx is done.
func (b *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	q, err := b.queue(source)
	if err != nil {
		return err
	}

	co := newConsumeOptions(opts...)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case m := <-q:
					delivery := m.deliver()
					//nolint:errcheck // handler errors are logged by the handler
					_ = dispatch(ctx, "memory", handler, delivery, co.autoAck)
				}
			}
		})
	}

	wg.Wait()

	return ctx.Err()
}

type memoryMessage struct {
	id         string
	body       []byte
	headers    []Header
	queue      chan *memoryMessage
	deliveries int
}

// deliver returns a fresh delivery handle so ack state is per attempt.
func (m *memoryMessage) deliver() *memoryDelivery {
	m.deliveries++
	return &memoryDelivery{msg: m}
}

type memoryDelivery struct {
	responder
	msg *memoryMessage
}

func (d *memoryDelivery) Body() []byte      { return d.msg.body }
func (d *memoryDelivery) Headers() []Header { return d.msg.headers }
func (d *memoryDelivery) ID() string        { return d.msg.id }

func (d *memoryDelivery) Ack(context.Context) error {
	d.claim()
	return nil
}

func (d *memoryDelivery) Nack(ctx context.Context) error {
	if !d.claim() {
		return nil
	}

	if d.msg.deliveries >= memoryMaxDeliveries {
		slog.WarnContext(ctx, "memory broker dropping message after max deliveries", "id", d.msg.id, "deliveries", d.msg.deliveries)
		return nil
	}

	select {
	case d.msg.queue <- d.msg:
	default:
		slog.WarnContext(ctx, "memory broker queue full, dropping nacked message", "id", d.msg.id)
	}

	return nil
}
