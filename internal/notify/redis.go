package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisNotifier shares the signal between instances over a redis pub/sub
// channel. Local subscribers are fed from the channel, including for
// signals this instance published.
type RedisNotifier struct {
	*Hub
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	done    chan struct{}
	logger  *logrus.Logger
}

// NewRedisNotifier subscribes to channel and starts relaying
func NewRedisNotifier(ctx context.Context, client *redis.Client, channel string, logger *logrus.Logger) (*RedisNotifier, error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	relayCtx, cancel := context.WithCancel(context.Background())
	n := &RedisNotifier{
		Hub:     NewHub(),
		client:  client,
		channel: channel,
		pubsub:  pubsub,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go n.relay(relayCtx)

	logger.WithField("channel", channel).Info("Subscribed to redis storage notifications")
	return n, nil
}

// Publish sends the signal to the redis channel
func (n *RedisNotifier) Publish(ctx context.Context) error {
	if err := n.client.Publish(ctx, n.channel, Signal).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.channel, err)
	}
	return nil
}

func (n *RedisNotifier) relay(ctx context.Context) {
	defer close(n.done)
	ch := n.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			n.logger.WithField("channel", msg.Channel).Debug("Storage change received")
			n.Broadcast()
		}
	}
}

// Close unsubscribes and closes local subscribers. The redis client is
// left open for its owner.
func (n *RedisNotifier) Close() error {
	n.cancel()
	err := n.pubsub.Close()
	<-n.done
	_ = n.Hub.Close()
	return err
}
