// Package idempotency guards operations against duplicate submission by
// tracking per-key state in Redis.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrAlreadyFailed     = errors.New("idempotency: operation already failed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

// State is the stored status of a key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateError      State = "error"
)

func (s State) String() string {
	return string(s)
}

// Err maps a non-proceeding state to its sentinel error.
func (s State) Err() error {
	switch s {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	case StateError:
		return ErrInvalidState
	default:
		return nil
	}
}

type Idempotency interface {
	// Acquire returns StateNone when the caller owns the key and may proceed.
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	// Exec runs fn once per key and records its outcome.
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	defaultPrefix       = "mailblast:idempotency:"
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

func WithLockDuration(lockDuration time.Duration) Option {
	return func(o *execOptions) {
		o.lockDuration = lockDuration
	}
}

func WithStateTTL(stateTTL time.Duration) Option {
	return func(o *execOptions) {
		o.stateTTL = stateTTL
	}
}

func newExecOptions(opts []Option) execOptions {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}
	return o
}

// StateTracker implements Idempotency on a Redis client.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New builds a StateTracker. An empty prefix uses the default key prefix.
func New(client redis.UniversalClient, prefix string) *StateTracker {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &StateTracker{client: client, prefix: prefix}
}

func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := s.prefix + key

	acquired, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return StateError, err
	}
	if acquired {
		return StateNone, nil
	}

	result, err := s.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		acquired, err = s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
		if err != nil {
			return StateError, err
		}
		if acquired {
			return StateNone, nil
		}
		return StateError, ErrInvalidState
	}
	if err != nil {
		return StateError, err
	}

	switch State(result) {
	case StateInProgress, StateCompleted, StateFailed:
		return State(result), nil
	default:
		return StateError, ErrInvalidState
	}
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateFailed.String(), ttl).Err()
}

func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := newExecOptions(opts)

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	if err := state.Err(); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		if markErr := s.MarkFailed(ctx, key, o.stateTTL); markErr != nil {
			return errors.Join(err, markErr)
		}
		return err
	}

	return s.MarkCompleted(ctx, key, o.stateTTL)
}

// Noop always lets the operation proceed. It is used when Redis is not configured.
type Noop struct{}

func (Noop) Acquire(context.Context, string, time.Duration) (State, error) { return StateNone, nil }

func (Noop) MarkCompleted(context.Context, string, time.Duration) error { return nil }

func (Noop) MarkFailed(context.Context, string, time.Duration) error { return nil }

func (Noop) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...Option) error {
	return fn(ctx)
}
