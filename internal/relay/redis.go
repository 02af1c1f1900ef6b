package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/proto"
)

const redisChannelPrefix = "portalchat:room:"

// RedisBroker shares room traffic between relays through Redis pub/sub.
type RedisBroker struct {
	client *redis.Client
	log    *zerolog.Logger
}

var _ Broker = (*RedisBroker)(nil)

// NewRedisBroker connects to the Redis server at url (redis://host:port/db).
func NewRedisBroker(ctx context.Context, url string, logger *zerolog.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RedisBroker{client: client, log: logger}, nil
}

// Publish sends m to the room's channel.
func (b *RedisBroker) Publish(ctx context.Context, m chat.Message) error {
	payload, err := json.Marshal(proto.FromMessage(m))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return b.client.Publish(ctx, redisChannelPrefix+m.Room, payload).Err()
}

// Subscribe listens on every room channel until ctx is done.
func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan chat.Message, error) {
	pubsub := b.client.PSubscribe(ctx, redisChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("psubscribe: %w", err)
	}

	out := make(chan chat.Message, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				m, err := decodeRedisMessage(msg)
				if err != nil {
					b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("skipping redis message")
					continue
				}
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the Redis connection pool.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

func decodeRedisMessage(msg *redis.Message) (chat.Message, error) {
	var data proto.MessageData
	if err := json.Unmarshal([]byte(msg.Payload), &data); err != nil {
		return chat.Message{}, fmt.Errorf("unmarshal: %w", err)
	}
	if room := strings.TrimPrefix(msg.Channel, redisChannelPrefix); room != data.Room {
		return chat.Message{}, fmt.Errorf("payload room %q on channel %q", data.Room, msg.Channel)
	}
	return data.ToMessage()
}
