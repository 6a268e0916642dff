package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kilianp07/leafdash/config"
	"github.com/kilianp07/leafdash/core/displaystate"
)

// RedisStore keeps display states in Redis so several kiosks behind one
// controller read the same view. Sequence numbers restart with the process,
// so each store writes under its own epoch and a state from another epoch is
// always replaced.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	epoch  string
}

// NewRedisStore connects to cfg.Addr and pings it.
func NewRedisStore(ctx context.Context, cfg config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreWithClient(client, cfg.KeyPrefix, cfg.TTL()), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, epoch: uuid.NewString()}
}

func (s *RedisStore) key(vehicleID string) string { return s.prefix + vehicleID }

// setScript writes the state unless the stored one belongs to the same epoch
// and has a higher seq.
var setScript = redis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'epoch', 'seq')
local seq = tonumber(ARGV[1])
if cur[1] == ARGV[4] and cur[2] and seq ~= 0 and seq < tonumber(cur[2]) then
  return 0
end
redis.call('HSET', KEYS[1], 'epoch', ARGV[4], 'seq', ARGV[1], 'state', ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

func (s *RedisStore) Set(ctx context.Context, st displaystate.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := setScript.Run(ctx, s.client, []string{s.key(st.VehicleID)},
		st.Seq, data, s.ttl.Milliseconds(), s.epoch).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", st.VehicleID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, vehicleID string) (displaystate.State, bool, error) {
	var st displaystate.State
	data, err := s.client.HGet(ctx, s.key(vehicleID), "state").Bytes()
	if errors.Is(err, redis.Nil) {
		return st, false, nil
	}
	if err != nil {
		return st, false, fmt.Errorf("redis get %s: %w", vehicleID, err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, false, fmt.Errorf("decode state: %w", err)
	}
	return st, true, nil
}

func (s *RedisStore) List(ctx context.Context) ([]displaystate.State, error) {
	var out []displaystate.State
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), s.prefix)
		st, ok, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, st)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out, nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }
