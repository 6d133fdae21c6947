package monitor

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"qscope/internal/config"
	"qscope/internal/constants"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/models"
)

// RedisSink keeps the latest depths in a hash and change events in a capped
// list, newest first.
type RedisSink struct {
	client      redis.UniversalClient
	prefix      string
	eventsLimit int64
	ttl         time.Duration
}

func NewRedisSink(client redis.UniversalClient, cfg config.RedisConfig) *RedisSink {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = constants.DefaultRedisKeyPrefix
	}
	limit := int64(cfg.EventsLimit)
	if limit <= 0 {
		limit = constants.DefaultRedisEventsLimit
	}
	return &RedisSink{
		client:      client,
		prefix:      prefix,
		eventsLimit: limit,
		ttl:         time.Duration(cfg.TTLSeconds) * time.Second,
	}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) DepthsKey() string { return s.prefix + "depths" }

func (s *RedisSink) EventsKey() string { return s.prefix + "events" }

func (s *RedisSink) Record(ctx context.Context, snapshot models.QueueSnapshot, events []models.ChangeEvent) error {
	pipe := s.client.TxPipeline()

	depths := make(map[string]interface{}, len(snapshot)+1)
	for name, d := range snapshot {
		if d.OK() {
			depths[name] = strconv.Itoa(d.Count)
		}
	}
	if len(depths) > 0 {
		depths["_updated_at"] = time.Now().UTC().Format(time.RFC3339)
		pipe.HSet(ctx, s.DepthsKey(), depths)
	}

	if len(events) > 0 {
		values := make([]interface{}, 0, len(events))
		for _, e := range events {
			payload, err := json.Marshal(e)
			if err != nil {
				return apperrors.ErrInternal.WithCause(err)
			}
			values = append(values, payload)
		}
		pipe.LPush(ctx, s.EventsKey(), values...)
		pipe.LTrim(ctx, s.EventsKey(), 0, s.eventsLimit-1)
	}

	if s.ttl > 0 {
		pipe.Expire(ctx, s.DepthsKey(), s.ttl)
		pipe.Expire(ctx, s.EventsKey(), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.ErrUnavailable.WithCause(err).WithDetail("sink", s.Name())
	}
	return nil
}

// RecentEvents returns up to n stored events, newest first.
func (s *RedisSink) RecentEvents(ctx context.Context, n int64) ([]models.ChangeEvent, error) {
	raw, err := s.client.LRange(ctx, s.EventsKey(), 0, n-1).Result()
	if err != nil {
		return nil, apperrors.ErrUnavailable.WithCause(err).WithDetail("sink", s.Name())
	}
	events := make([]models.ChangeEvent, 0, len(raw))
	for _, r := range raw {
		var e models.ChangeEvent
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, apperrors.ErrDecode.WithCause(err)
		}
		events = append(events, e)
	}
	return events, nil
}

// Close leaves the shared client to its owner.
func (s *RedisSink) Close() error {
	return nil
}
