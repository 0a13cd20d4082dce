package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

// ErrPubSubProjectIDRequired is returned when neither a client nor a project id is configured.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	ProjectID     string
	Client        *pubsub.Client
	ClientOptions []option.ClientOption
}

// PubSub is a messaging implementation backed by Google Pub/Sub. Headers are
// carried as message attributes.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

// NewPubSub constructs a Pub/Sub client, reusing cfg.Client when set.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	client := cfg.Client
	if client == nil {
		if cfg.ProjectID == "" {
			return nil, ErrPubSubProjectIDRequired
		}

		c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
		if err != nil {
			return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
		}
		client = c
	}

	return &PubSub{client: client, publishers: map[string]*pubsub.Publisher{}}, nil
}

// Close stops publishers and closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := p.publishers
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}

	return p.client.Close()
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}

	pub := p.client.Publisher(topic)
	p.publishers[topic] = pub

	return pub, nil
}

// Publish sends a message to a Pub/Sub topic and waits for the server id.
func (p *PubSub) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	pub, err := p.publisher(destination)
	if err != nil {
		return PublishResult{}, err
	}

	var attrs map[string]string
	if len(msg.Headers) > 0 {
		attrs = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			attrs[h.Key] = string(h.Value)
		}
	}

	id, err := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  attrs,
		OrderingKey: string(msg.Key),
	}).Get(ctx)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return PublishResult{MessageID: id, Topic: destination}, nil
}

// Consume receives from the subscription set by WithSubscription, or from
// source itself when no subscription option is given.
func (p *PubSub) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	co := newConsumeOptions(opts...)
	subscription := source
	if co.subscription != "" {
		subscription = co.subscription
	}

	sub := p.client.Subscriber(subscription)
	sub.ReceiveSettings.NumGoroutines = co.concurrency
	if co.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight
	}

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		//nolint:errcheck // handler errors are logged by the handler
		_ = dispatch(ctx, "pubsub", handler, &pubSubMessage{msg: m}, co.autoAck)
	})
}

type pubSubMessage struct {
	responder
	msg *pubsub.Message
}

func (m *pubSubMessage) Body() []byte { return m.msg.Data }
func (m *pubSubMessage) ID() string   { return m.msg.ID }

func (m *pubSubMessage) Headers() []Header {
	out := make([]Header, 0, len(m.msg.Attributes))
	for k, v := range m.msg.Attributes {
		out = append(out, Header{Key: k, Value: []byte(v)})
	}
	return out
}

func (m *pubSubMessage) Ack(context.Context) error {
	if m.claim() {
		m.msg.Ack()
	}
	return nil
}

func (m *pubSubMessage) Nack(context.Context) error {
	if m.claim() {
		m.msg.Nack()
	}
	return nil
}
