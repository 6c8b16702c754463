package chess

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "tutor:sessions:"

type RedisStore struct{ rdb *redis.Client }

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

// NewRedisStoreFromURL dials REDIS_URL and pings it before returning.
func NewRedisStoreFromURL(ctx context.Context, raw string) (*RedisStore, error) {
	opts, err := ParseRedisURL(raw)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: u.Host, Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: u.Hostname()}
	}
	return opts, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *RedisStore) redisKey(key string) string { return sessionKeyPrefix + strings.TrimSpace(key) }

func (s *RedisStore) Load(ctx context.Context, key string) (*SessionRecord, error) {
	raw, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tutor session: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode tutor session: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Create(ctx context.Context, key string, rec *SessionRecord, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	ok, err := s.rdb.SetNX(ctx, s.redisKey(key), raw, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("create tutor session: %w", err)
	}
	return ok, nil
}

// Save commits rec only if the stored revision still matches rec.Revision.
func (s *RedisStore) Save(ctx context.Context, key string, rec *SessionRecord, ttl time.Duration) error {
	k := s.redisKey(key)
	next := *rec
	next.Revision++
	newRaw, err := json.Marshal(&next)
	if err != nil {
		return err
	}
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrConcurrentUpdate
		}
		if err != nil {
			return err
		}
		var cur SessionRecord
		if err := json.Unmarshal(raw, &cur); err != nil {
			return err
		}
		if cur.Revision != rec.Revision || cur.SessionUUID != rec.SessionUUID {
			return ErrConcurrentUpdate
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, newRaw, ttl)
			return nil
		})
		return err
	}, k)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConcurrentUpdate
	}
	if err != nil {
		return err
	}
	rec.Revision = next.Revision
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.redisKey(key)).Err()
}
