package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"pillar-backend/internal/domain"
)

const (
	sessionKeyPrefix = "pillar:session:"
	// sessionIndexKey scores each expiring session by its expiry in unix seconds.
	sessionIndexKey   = "pillar:sessions:expiry"
	maxUpdateAttempts = 5
)

// RedisPivotStore keeps each session as a JSON value with a TTL.
type RedisPivotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPivotStore(client *redis.Client, ttl time.Duration) *RedisPivotStore {
	return &RedisPivotStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func decodeSession(b []byte) (domain.PivotConfig, error) {
	var cfg domain.PivotConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return domain.PivotConfig{}, fmt.Errorf("decode session: %w", err)
	}
	if cfg.Broken == nil {
		cfg.Broken = []domain.BrokenLevel{}
	}
	return cfg, nil
}

// track records the session's expiry so PurgeExpired can report it later.
func (r *RedisPivotStore) track(ctx context.Context, c redis.Cmdable, sessionID string) error {
	if r.ttl <= 0 {
		return nil
	}
	return c.ZAdd(ctx, sessionIndexKey, redis.Z{
		Score:  float64(time.Now().Add(r.ttl).Unix()),
		Member: sessionID,
	}).Err()
}

func (r *RedisPivotStore) Create(ctx context.Context, cfg domain.PivotConfig) error {
	val, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := r.client.SetNX(ctx, sessionKey(cfg.SessionID), val, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionExists
	}
	return r.track(ctx, r.client, cfg.SessionID)
}

func (r *RedisPivotStore) Get(ctx context.Context, sessionID string) (domain.PivotConfig, error) {
	b, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PivotConfig{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.PivotConfig{}, err
	}
	return decodeSession(b)
}

// Save overwrites an existing session only, refreshing its TTL.
func (r *RedisPivotStore) Save(ctx context.Context, cfg domain.PivotConfig) error {
	val, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := r.client.SetXX(ctx, sessionKey(cfg.SessionID), val, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return r.track(ctx, r.client, cfg.SessionID)
}

// Update is an optimistic WATCH/MULTI transaction, retried when another
// writer touches the key first.
func (r *RedisPivotStore) Update(ctx context.Context, sessionID string, fn func(*domain.PivotConfig) error) (domain.PivotConfig, error) {
	key := sessionKey(sessionID)
	var out domain.PivotConfig

	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		cfg, err := decodeSession(b)
		if err != nil {
			return err
		}
		if err := fn(&cfg); err != nil {
			return err
		}
		cfg.SessionID = sessionID

		val, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, val, r.ttl)
			return r.track(ctx, pipe, sessionID)
		})
		if err == nil {
			out = cfg
		}
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.PivotConfig{}, err
		}
		return out, nil
	}
	return domain.PivotConfig{}, fmt.Errorf("update session %s: %w", sessionID, redis.TxFailedErr)
}

func (r *RedisPivotStore) Delete(ctx context.Context, sessionID string) error {
	n, err := r.client.Del(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return err
	}
	if err := r.client.ZRem(ctx, sessionIndexKey, sessionID).Err(); err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// PurgeExpired reports sessions whose keys redis has already expired and
// drops them from the expiry index. Keys still present are left for the
// next pass.
func (r *RedisPivotStore) PurgeExpired(ctx context.Context) ([]string, error) {
	due, err := r.client.ZRangeByScore(ctx, sessionIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, id := range due {
		n, err := r.client.Exists(ctx, sessionKey(id)).Result()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	members := make([]any, len(removed))
	for i, id := range removed {
		members[i] = id
	}
	if err := r.client.ZRem(ctx, sessionIndexKey, members...).Err(); err != nil {
		return nil, err
	}
	return removed, nil
}
