package brief

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const indexKey = "briefs:index"

// RedisStore keeps each brief under its id with a 30 day expiry and an
// index list of the newest MaxSaved ids.
type RedisStore struct {
	rdb *redis.Client
}

// ConnectRedis parses url, connects and pings the server.
func ConnectRedis(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStore(rdb), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Save stores p and pushes its id onto the index.
func (s *RedisStore) Save(ctx context.Context, p *Packet) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal brief: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.ID, data, PacketTTL)
		pipe.LPush(ctx, indexKey, p.ID)
		pipe.LTrim(ctx, indexKey, 0, MaxSaved-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save brief: %w", err)
	}
	return nil
}

// List returns the indexed briefs that have not expired, newest first.
// Unreadable entries are skipped.
func (s *RedisStore) List(ctx context.Context) ([]Packet, error) {
	ids, err := s.rdb.LRange(ctx, indexKey, 0, MaxSaved-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read brief index: %w", err)
	}

	packets := []Packet{}
	if len(ids) == 0 {
		return packets, nil
	}

	values, err := s.rdb.MGet(ctx, ids...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read briefs: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p Packet
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		packets = append(packets, p)
	}
	return packets, nil
}
