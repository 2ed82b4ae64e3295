package app

import (
	"sort"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	UserID domain.UserID
	Conn   core.SignalConnection
	Rooms  map[domain.RoomName]struct{}
}

// ConnSnapshot is what Unregister hands back for the cleanup cascade.
type ConnSnapshot struct {
	ID     core.ConnectionID
	UserID domain.UserID
	Conn   core.SignalConnection
	Rooms  []domain.RoomName
}

// Registry tracks every live connection and the rooms it joined.
// It is owned by the orchestrator loop and is not safe for concurrent use.
type Registry struct {
	conns map[core.ConnectionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnectionID]*connEntry)}
}

// Register adds a connection. It reports false if the id is already live.
func (r *Registry) Register(id core.ConnectionID, userID domain.UserID, conn core.SignalConnection) bool {
	if _, ok := r.conns[id]; ok {
		return false
	}
	r.conns[id] = &connEntry{
		UserID: userID,
		Conn:   conn,
		Rooms:  make(map[domain.RoomName]struct{}),
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(userID)).Msg("registered connection")
	return true
}

// Unregister removes the connection. Only the first call for an id reports true.
func (r *Registry) Unregister(id core.ConnectionID) (ConnSnapshot, bool) {
	e, ok := r.conns[id]
	if !ok {
		return ConnSnapshot{}, false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unregistered connection")
	return ConnSnapshot{
		ID:     id,
		UserID: e.UserID,
		Conn:   e.Conn,
		Rooms:  sortedRooms(e.Rooms),
	}, true
}

func (r *Registry) Lookup(id core.ConnectionID) (domain.UserID, bool) {
	e, ok := r.conns[id]
	if !ok {
		return "", false
	}
	return e.UserID, true
}

func (r *Registry) Conn(id core.ConnectionID) (core.SignalConnection, bool) {
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

// SetUser replaces the user id bound to a connection.
func (r *Registry) SetUser(id core.ConnectionID, userID domain.UserID) bool {
	e, ok := r.conns[id]
	if !ok || userID == "" {
		return false
	}
	if e.UserID != userID {
		e.UserID = userID
		log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(userID)).Msg("updated user")
	}
	return true
}

func (r *Registry) AddRoom(id core.ConnectionID, room domain.RoomName) {
	if e, ok := r.conns[id]; ok {
		e.Rooms[room] = struct{}{}
	}
}

func (r *Registry) RemoveRoom(id core.ConnectionID, room domain.RoomName) {
	if e, ok := r.conns[id]; ok {
		delete(e.Rooms, room)
	}
}

func (r *Registry) Rooms(id core.ConnectionID) []domain.RoomName {
	e, ok := r.conns[id]
	if !ok {
		return nil
	}
	return sortedRooms(e.Rooms)
}

func (r *Registry) Len() int { return len(r.conns) }

func sortedRooms(set map[domain.RoomName]struct{}) []domain.RoomName {
	out := make([]domain.RoomName, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
