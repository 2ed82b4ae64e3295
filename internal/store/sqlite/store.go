// Package sqlite persists messages and profiles with mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	room       TEXT NOT NULL,
	sender_id  TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT 'text',
	media_url  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_room_created_at ON messages (room, created_at);
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT ''
);
`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Append(ctx context.Context, m domain.Message) (domain.Message, error) {
	m.ID = core.NewMessageID()
	m.CreatedAt = time.Now().UTC()
	query := "INSERT INTO messages (id, room, sender_id, content, type, media_url, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	if _, err := s.db.ExecContext(ctx, query, m.ID, m.Room, m.SenderID, m.Content, m.Type, m.MediaURL, m.CreatedAt); err != nil {
		return domain.Message{}, fmt.Errorf("failed to insert message for room %s: %w", m.Room, err)
	}
	return m, nil
}

func (s *Store) Recent(ctx context.Context, room domain.RoomName, limit int) ([]domain.Message, error) {
	query := "SELECT id, sender_id, content, type, media_url, created_at FROM messages WHERE room = ? ORDER BY created_at DESC, id DESC LIMIT ?"
	rows, err := s.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for room %s: %w", room, err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		m := domain.Message{Room: room}
		var typ string
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Content, &typ, &m.MediaURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Type = domain.MessageType(typ)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over messages for room %s: %w", room, err)
	}
	reverse(messages)
	return messages, nil
}

func (s *Store) Profile(ctx context.Context, id domain.UserID) (domain.Profile, error) {
	query := "SELECT username, avatar_url FROM users WHERE id = ?"
	p := domain.Profile{ID: id}
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&p.Username, &p.AvatarURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, core.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("error querying user %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) PutProfile(ctx context.Context, p domain.Profile) error {
	query := "INSERT INTO users (id, username, avatar_url) VALUES (?, ?, ?) ON CONFLICT(id) DO UPDATE SET username = excluded.username, avatar_url = excluded.avatar_url"
	if _, err := s.db.ExecContext(ctx, query, p.ID, p.Username, p.AvatarURL); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func reverse(ms []domain.Message) {
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
}
