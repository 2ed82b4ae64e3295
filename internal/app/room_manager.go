package app

import (
	"sort"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
)

// RoomManager holds the implicit rooms: a room exists while it has members.
// It is owned by the orchestrator loop and is not safe for concurrent use.
type RoomManager struct {
	rooms map[domain.RoomName]*room
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomName]*room)}
}

// Join adds id to name, creating the room. It reports whether membership changed.
func (m *RoomManager) Join(name domain.RoomName, id core.ConnectionID, conn core.SignalConnection) bool {
	r, ok := m.rooms[name]
	if !ok {
		r = newRoom(name)
		m.rooms[name] = r
	}
	return r.add(id, conn)
}

// Leave removes id from name and drops the room once empty.
func (m *RoomManager) Leave(name domain.RoomName, id core.ConnectionID) bool {
	r, ok := m.rooms[name]
	if !ok {
		return false
	}
	removed := r.remove(id)
	if len(r.members) == 0 {
		delete(m.rooms, name)
	}
	return removed
}

func (m *RoomManager) IsMember(name domain.RoomName, id core.ConnectionID) bool {
	r, ok := m.rooms[name]
	if !ok {
		return false
	}
	_, ok = r.members[id]
	return ok
}

func (m *RoomManager) Broadcast(name domain.RoomName, from core.ConnectionID, f core.Frame, includeSender bool) core.PublishResult {
	r, ok := m.rooms[name]
	if !ok {
		return core.PublishResult{}
	}
	return r.broadcast(from, f, includeSender)
}

// Members returns the connection ids of name in a stable order.
func (m *RoomManager) Members(name domain.RoomName) []core.ConnectionID {
	r, ok := m.rooms[name]
	if !ok {
		return nil
	}
	out := make([]core.ConnectionID, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *RoomManager) List() []core.RoomInfo {
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for name, r := range m.rooms {
		out = append(out, core.RoomInfo{Name: name, MemberCount: len(r.members)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *RoomManager) Len() int { return len(m.rooms) }
