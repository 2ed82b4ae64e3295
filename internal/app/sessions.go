package app

import (
	"errors"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyPaired = errors.New("connection already in a peer session")
	ErrSelfPair      = errors.New("connection cannot pair with itself")
)

// Sessions is the undirected peer session table. A connection is in at most one.
type Sessions struct {
	partner map[core.ConnectionID]core.ConnectionID
}

func NewSessions() *Sessions {
	return &Sessions{partner: make(map[core.ConnectionID]core.ConnectionID)}
}

// Open pairs a and b. An existing session on either side is never overwritten.
func (s *Sessions) Open(a, b core.ConnectionID) error {
	if a == b {
		return ErrSelfPair
	}
	if _, ok := s.partner[a]; ok {
		return ErrAlreadyPaired
	}
	if _, ok := s.partner[b]; ok {
		return ErrAlreadyPaired
	}
	s.partner[a] = b
	s.partner[b] = a
	log.Info().Str("module", "app.sessions").Str("a", string(a)).Str("b", string(b)).Msg("peer session opened")
	return nil
}

func (s *Sessions) Partner(id core.ConnectionID) (core.ConnectionID, bool) {
	p, ok := s.partner[id]
	return p, ok
}

// Close ends the session of id and returns the other side.
func (s *Sessions) Close(id core.ConnectionID) (core.ConnectionID, bool) {
	p, ok := s.partner[id]
	if !ok {
		return "", false
	}
	delete(s.partner, id)
	delete(s.partner, p)
	log.Info().Str("module", "app.sessions").Str("a", string(id)).Str("b", string(p)).Msg("peer session closed")
	return p, true
}

// Len counts sessions, not connections.
func (s *Sessions) Len() int { return len(s.partner) / 2 }
