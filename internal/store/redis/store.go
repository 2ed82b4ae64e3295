// Package redis keeps capped per-room message lists and profile hashes in Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/hotspot/internal/config"
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/go-redis/redis/v8"
)

const defaultMaxLen = 1000

type Store struct {
	rdb    *redis.Client
	prefix string
	maxLen int64
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return New(rdb, cfg.KeyPrefix, cfg.MaxLen), nil
}

func New(rdb *redis.Client, prefix string, maxLen int64) *Store {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &Store{rdb: rdb, prefix: prefix, maxLen: maxLen}
}

func (s *Store) roomKey(room domain.RoomName) string {
	return s.prefix + "room:" + string(room) + ":messages"
}

func (s *Store) userKey(id domain.UserID) string {
	return s.prefix + "user:" + string(id)
}

func (s *Store) Append(ctx context.Context, m domain.Message) (domain.Message, error) {
	m.ID = core.NewMessageID()
	m.CreatedAt = time.Now().UTC()
	data, err := json.Marshal(m)
	if err != nil {
		return domain.Message{}, fmt.Errorf("encode message: %w", err)
	}
	key := s.roomKey(m.Room)
	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -s.maxLen, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Message{}, fmt.Errorf("append to %s: %w", key, err)
	}
	return m, nil
}

func (s *Store) Recent(ctx context.Context, room domain.RoomName, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	key := s.roomKey(room)
	raw, err := s.rdb.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	out := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var m domain.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("decode message in %s: %w", key, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) Profile(ctx context.Context, id domain.UserID) (domain.Profile, error) {
	fields, err := s.rdb.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("read user %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domain.Profile{}, core.ErrNotFound
	}
	return domain.Profile{ID: id, Username: fields["username"], AvatarURL: fields["avatarUrl"]}, nil
}

func (s *Store) PutProfile(ctx context.Context, p domain.Profile) error {
	err := s.rdb.HSet(ctx, s.userKey(p.ID), "username", p.Username, "avatarUrl", p.AvatarURL).Err()
	if err != nil {
		return fmt.Errorf("write user %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
