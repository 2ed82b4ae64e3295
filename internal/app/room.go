package app

import (
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/rs/zerolog/log"
)

// room is an in-memory membership set.
// It never closes adapter-owned resources.
type room struct {
	name    domain.RoomName
	members map[core.ConnectionID]core.SignalConnection
}

func newRoom(name domain.RoomName) *room {
	return &room{
		name:    name,
		members: make(map[core.ConnectionID]core.SignalConnection),
	}
}

func (r *room) add(id core.ConnectionID, conn core.SignalConnection) bool {
	_, existed := r.members[id]
	r.members[id] = conn
	if !existed {
		log.Info().Str("module", "app.room").Str("room", string(r.name)).Str("conn", string(id)).Msg("member added")
	}
	return !existed
}

func (r *room) remove(id core.ConnectionID) bool {
	if _, ok := r.members[id]; !ok {
		return false
	}
	delete(r.members, id)
	log.Info().Str("module", "app.room").Str("room", string(r.name)).Str("conn", string(id)).Msg("member removed")
	return true
}

// broadcast fans f out to every member, skipping from unless includeSender.
func (r *room) broadcast(from core.ConnectionID, f core.Frame, includeSender bool) core.PublishResult {
	res := core.PublishResult{}
	for id, conn := range r.members {
		if id == from && !includeSender {
			continue
		}
		if err := conn.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.room").Str("room", string(r.name)).Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
