package store

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisChannelPrefix = "izi:doc:"

type redisNotifier struct {
	client *redis.Client

	mu   sync.Mutex
	subs []*redis.PubSub
}

var _ Notifier = (*redisNotifier)(nil)

// NewRedisNotifier connects a Redis client used for document-change
// pub/sub.
func NewRedisNotifier(address, username, password string) Notifier {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
	return &redisNotifier{client: client}
}

// NewRedisNotifierFromClient wraps an existing client, used by tests.
func NewRedisNotifierFromClient(client *redis.Client) Notifier {
	return &redisNotifier{client: client}
}

func (n *redisNotifier) Publish(ctx context.Context, key string) error {
	if err := n.client.Publish(ctx, redisChannelPrefix+key, key).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("[notifier] redis publish failed")
		return err
	}
	return nil
}

func (n *redisNotifier) Subscribe(key string, fn func(key string)) (func(), error) {
	ps := n.client.Subscribe(context.Background(), redisChannelPrefix+key)
	// force the SUBSCRIBE round trip so a publish right after Subscribe
	// returns is not missed
	if _, err := ps.Receive(context.Background()); err != nil {
		_ = ps.Close()
		return nil, err
	}

	n.mu.Lock()
	n.subs = append(n.subs, ps)
	n.mu.Unlock()

	go func() {
		for range ps.Channel() {
			fn(key)
		}
	}()

	return func() {
		n.mu.Lock()
		for i, candidate := range n.subs {
			if candidate == ps {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				break
			}
		}
		n.mu.Unlock()

		if err := ps.Close(); err != nil {
			log.Error().Err(err).Str("key", key).Msg("[notifier] redis unsubscribe failed")
		}
	}, nil
}

func (n *redisNotifier) Close() error {
	n.mu.Lock()
	for _, ps := range n.subs {
		_ = ps.Close()
	}
	n.subs = nil
	n.mu.Unlock()
	return n.client.Close()
}
