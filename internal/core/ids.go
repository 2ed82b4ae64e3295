package core

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

// NewMessageID returns a lexically time-ordered id.
func NewMessageID() string {
	return ulid.Make().String()
}
