package webhook

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	retryKeyPrefix = "webhook:retry:"
	expiredChannel = "__keyevent@0__:expired"

	resubscribeDelay = 2 * time.Second
)

// RetryScheduler turns an (event id, retry time) pair into a future
// wake-up on the delivery queue. The production implementation rides on
// redis key expiry; tests swap in an in-memory one.
type RetryScheduler interface {
	Schedule(ctx context.Context, eventID int64, retryAt time.Time) error
}

// RedisScheduler arms a timer by setting webhook:retry:{id} with a TTL.
// Losing the key on a redis restart is tolerable: the outbox row is
// durable and recovery re-enqueues it.
type RedisScheduler struct {
	rdb *redis.Client
}

func NewRedisScheduler(rdb *redis.Client) *RedisScheduler {
	return &RedisScheduler{rdb: rdb}
}

func (s *RedisScheduler) Schedule(ctx context.Context, eventID int64, retryAt time.Time) error {
	ttl := time.Until(retryAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	return s.rdb.Set(ctx, retryKey(eventID), "", ttl).Err()
}

func retryKey(eventID int64) string {
	return retryKeyPrefix + strconv.FormatInt(eventID, 10)
}

// parseRetryKey extracts the event id from an expired key. Keys outside
// the reserved prefix are ignored.
func parseRetryKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, retryKeyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ExpirySubscriber listens for redis expired-key notifications and pushes
// matching event ids back onto the delivery queue.
type ExpirySubscriber struct {
	rdb   *redis.Client
	queue *Queue
	log   *zap.Logger
}

func NewExpirySubscriber(rdb *redis.Client, queue *Queue, log *zap.Logger) *ExpirySubscriber {
	return &ExpirySubscriber{rdb: rdb, queue: queue, log: log}
}

// Run supervises the subscription: on any connection or subscribe
// failure it waits a bounded interval and reconnects. A notification
// lost in the gap is picked up by recovery on the next boot.
func (s *ExpirySubscriber) Run(ctx context.Context) {
	s.log.Info("starting redis expiry subscriber")
	for {
		if err := s.listen(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("redis expiry listener failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
			s.log.Warn("restarting redis expiry listener")
		}
	}
}

func (s *ExpirySubscriber) listen(ctx context.Context) error {
	// Expired-key notifications are off by default on a stock redis.
	if err := s.rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		s.log.Warn("could not enable keyspace notifications", zap.Error(err))
	}

	sub := s.rdb.Subscribe(ctx, expiredChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	s.log.Info("subscribed to redis key expiry events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription channel closed")
			}
			eventID, ok := parseRetryKey(msg.Payload)
			if !ok {
				continue
			}
			s.log.Info("retry timer expired", zap.Int64("webhook_event_id", eventID))
			s.queue.Push(Message{EventID: eventID})
		}
	}
}
