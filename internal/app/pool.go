package app

import (
	"sort"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/rs/zerolog/log"
)

// Candidate is a pool entry as seen by the pairing engine.
type Candidate struct {
	ID core.ConnectionID
	domain.Registration
}

type poolEntry struct {
	reg  domain.Registration
	busy bool
}

// Pool is the matchmaking registry. Entries in a peer session are busy and
// not offered to other requesters until the session ends.
type Pool struct {
	entries map[core.ConnectionID]*poolEntry
}

func NewPool() *Pool {
	return &Pool{entries: make(map[core.ConnectionID]*poolEntry)}
}

// Upsert stores reg for id; the last write wins and the busy mark survives.
func (p *Pool) Upsert(id core.ConnectionID, reg domain.Registration) {
	if e, ok := p.entries[id]; ok {
		e.reg = reg
	} else {
		p.entries[id] = &poolEntry{reg: reg}
	}
	log.Info().Str("module", "app.pool").Str("conn", string(id)).Str("user", string(reg.UserID)).Msg("registered for matching")
}

func (p *Pool) Remove(id core.ConnectionID) bool {
	if _, ok := p.entries[id]; !ok {
		return false
	}
	delete(p.entries, id)
	log.Info().Str("module", "app.pool").Str("conn", string(id)).Msg("removed from matching")
	return true
}

func (p *Pool) Get(id core.ConnectionID) (domain.Registration, bool) {
	e, ok := p.entries[id]
	if !ok {
		return domain.Registration{}, false
	}
	return e.reg, true
}

// SetBusy flips availability of a registered entry.
func (p *Pool) SetBusy(id core.ConnectionID, busy bool) bool {
	e, ok := p.entries[id]
	if !ok {
		return false
	}
	e.busy = busy
	return true
}

// Available lists non-busy entries other than except, ordered by id.
func (p *Pool) Available(except core.ConnectionID) []Candidate {
	out := make([]Candidate, 0, len(p.entries))
	for id, e := range p.entries {
		if id == except || e.busy {
			continue
		}
		out = append(out, Candidate{ID: id, Registration: e.reg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (p *Pool) Len() int { return len(p.entries) }

func (p *Pool) AvailableLen() int {
	n := 0
	for _, e := range p.entries {
		if !e.busy {
			n++
		}
	}
	return n
}
