package core

import (
	"context"
	"errors"

	"github.com/dkeye/hotspot/internal/domain"
)

var ErrNotFound = errors.New("not found")

// MessageStore is the append-only message log keyed by room.
type MessageStore interface {
	// Append persists m, assigning ID and CreatedAt.
	Append(ctx context.Context, m domain.Message) (domain.Message, error)
	// Recent returns at most limit newest messages of room, oldest first.
	Recent(ctx context.Context, room domain.RoomName, limit int) ([]domain.Message, error)
}

// ProfileStore resolves public profiles. Missing users yield ErrNotFound.
type ProfileStore interface {
	Profile(ctx context.Context, id domain.UserID) (domain.Profile, error)
}

// Store bundles both collaborators behind one driver.
type Store interface {
	MessageStore
	ProfileStore
	Close() error
}
