package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisCredentialKey = "console:session:credential"
	redisEventChannel  = "console:session:events"
)

// RedisStore shares the session credential through redis. Changes are
// broadcast on a pub/sub channel so every process attached to the session
// observes credential add/remove events, mirroring the cross-tab behavior
// of the browser console.
type RedisStore struct {
	client *redis.Client
	bc     *broadcaster
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisStore creates a redis-backed session store from a redis URL.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s := &RedisStore{
		client: client,
		bc:     newBroadcaster(),
		pubsub: client.Subscribe(ctx, redisEventChannel),
		done:   make(chan struct{}),
	}

	go s.relay()
	return s, nil
}

// Load returns the stored credential, or ErrNoCredential.
func (s *RedisStore) Load(ctx context.Context) (*Credential, error) {
	token, err := s.client.Get(ctx, redisCredentialKey).Result()
	if err == redis.Nil {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return &Credential{Token: token, IssuedAt: time.Now()}, nil
}

// Save stores the credential and publishes CredentialAdded to all
// processes subscribed to the session channel.
func (s *RedisStore) Save(ctx context.Context, cred Credential) error {
	if err := s.client.Set(ctx, redisCredentialKey, cred.Token, 0).Err(); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	if err := s.client.Publish(ctx, redisEventChannel, CredentialAdded.String()).Err(); err != nil {
		return fmt.Errorf("failed to publish credential event: %w", err)
	}
	return nil
}

// Clear removes the credential and publishes CredentialRemoved.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, redisCredentialKey).Err(); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	if err := s.client.Publish(ctx, redisEventChannel, CredentialRemoved.String()).Err(); err != nil {
		return fmt.Errorf("failed to publish credential event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of credential events and a cancel func.
func (s *RedisStore) Subscribe() (<-chan Event, func()) {
	return s.bc.subscribe()
}

// Close stops the pub/sub relay and closes the redis connection.
func (s *RedisStore) Close() error {
	close(s.done)
	s.pubsub.Close()
	s.bc.closeAll()
	return s.client.Close()
}

// relay converts redis pub/sub messages into local credential events.
func (s *RedisStore) relay() {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			switch msg.Payload {
			case CredentialAdded.String():
				s.bc.publish(Event{Kind: CredentialAdded})
			case CredentialRemoved.String():
				s.bc.publish(Event{Kind: CredentialRemoved})
			}
		}
	}
}
