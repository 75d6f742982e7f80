package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces bus topics inside the Redis instance shared with
// the cache.
const channelPrefix = "channelwatch:events:"

// RedisBus implements Bus over Redis pub/sub. Subscribe all handlers before
// calling Start; Start opens one subscription covering every registered
// topic and dispatches each delivery in its own goroutine.
type RedisBus struct {
	client *redis.Client

	mu       sync.Mutex
	handlers map[string][]Handler

	sub *redis.PubSub
	wg  sync.WaitGroup
}

// NewRedisBus creates a new RedisBus from a Redis URL.
func NewRedisBus(redisURL string) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisBus{
		client:   redis.NewClient(opts),
		handlers: make(map[string][]Handler),
	}, nil
}

func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Publish validates and JSON-encodes the payload, then delivers it to every
// current subscriber of the topic.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload Validator) error {
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("publish %s: encode payload: %w", topic, err)
	}
	if err := b.client.Publish(ctx, channelPrefix+topic, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for a topic. Must be called before Start.
func (b *RedisBus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Start opens the pub/sub subscription and begins dispatching. It returns
// once the subscription is confirmed; delivery runs until ctx is cancelled
// or Close is called.
func (b *RedisBus) Start(ctx context.Context) error {
	b.mu.Lock()
	channels := make([]string, 0, len(b.handlers))
	for topic := range b.handlers {
		channels = append(channels, channelPrefix+topic)
	}
	b.mu.Unlock()

	if len(channels) == 0 {
		return fmt.Errorf("start bus: no subscriptions registered")
	}

	b.sub = b.client.Subscribe(ctx, channels...)
	if _, err := b.sub.Receive(ctx); err != nil {
		return fmt.Errorf("start bus: confirm subscription: %w", err)
	}

	go b.dispatch(ctx)
	return nil
}

func (b *RedisBus) dispatch(ctx context.Context) {
	for msg := range b.sub.Channel() {
		topic := msg.Channel[len(channelPrefix):]
		payload := []byte(msg.Payload)

		if err := checkEnvelope(payload); err != nil {
			slog.Error("dropping event with bad envelope", "topic", topic, "error", err)
			continue
		}

		b.mu.Lock()
		handlers := b.handlers[topic]
		b.mu.Unlock()

		for _, h := range handlers {
			b.wg.Add(1)
			go func(h Handler) {
				defer b.wg.Done()
				defer func() {
					if r := recover(); r != nil {
						slog.Error("panic in event handler",
							"topic", topic,
							"error", r,
							"stack", string(debug.Stack()),
						)
					}
				}()
				h(ctx, payload)
			}(h)
		}
	}
}

// Close stops the subscription, waits for in-flight handlers, and releases
// the Redis connection.
func (b *RedisBus) Close() error {
	if b.sub != nil {
		if err := b.sub.Close(); err != nil {
			return err
		}
	}
	b.wg.Wait()
	return b.client.Close()
}
