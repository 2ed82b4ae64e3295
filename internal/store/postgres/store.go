// Package postgres persists messages and profiles with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/hotspot/internal/config"
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	room       TEXT NOT NULL,
	sender_id  TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT 'text',
	media_url  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS messages_room_created_at ON messages (room, created_at);
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT ''
);
`

type Store struct {
	pool *pgxpool.Pool
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// New applies the schema on pool. The store owns pool afterwards.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Append(ctx context.Context, m domain.Message) (domain.Message, error) {
	m.ID = core.NewMessageID()
	query := `INSERT INTO messages (id, room, sender_id, content, type, media_url)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`
	err := s.pool.QueryRow(ctx, query,
		m.ID, string(m.Room), string(m.SenderID), m.Content, string(m.Type), m.MediaURL,
	).Scan(&m.CreatedAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("insert message for room %s: %w", m.Room, err)
	}
	return m, nil
}

func (s *Store) Recent(ctx context.Context, room domain.RoomName, limit int) ([]domain.Message, error) {
	query := `SELECT id, sender_id, content, type, media_url, created_at FROM messages
		WHERE room = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, query, string(room), limit)
	if err != nil {
		return nil, fmt.Errorf("query messages for room %s: %w", room, err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var id, sender, content, typ, media string
		m := domain.Message{Room: room}
		if err := rows.Scan(&id, &sender, &content, &typ, &media, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = id
		m.SenderID = domain.UserID(sender)
		m.Content = content
		m.Type = domain.MessageType(typ)
		m.MediaURL = media
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages for room %s: %w", room, err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *Store) Profile(ctx context.Context, id domain.UserID) (domain.Profile, error) {
	p := domain.Profile{ID: id}
	err := s.pool.QueryRow(ctx, "SELECT username, avatar_url FROM users WHERE id = $1", string(id)).
		Scan(&p.Username, &p.AvatarURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, core.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("query user %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) PutProfile(ctx context.Context, p domain.Profile) error {
	query := `INSERT INTO users (id, username, avatar_url) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, avatar_url = EXCLUDED.avatar_url`
	if _, err := s.pool.Exec(ctx, query, string(p.ID), p.Username, p.AvatarURL); err != nil {
		return fmt.Errorf("upsert user %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
