package orch

import (
	"context"
	"sort"

	"github.com/dkeye/hotspot/internal/app"
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/rs/zerolog/log"
)

// MessageIntent is a client "message" intent before validation.
type MessageIntent struct {
	Room     string `json:"room"`
	SenderID string `json:"senderId"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	MediaURL string `json:"mediaUrl"`
}

type pendingMessage struct {
	origin core.ConnectionID
	msg    domain.Message
}

// persistQueue keeps one append in flight per room so that broadcast order
// equals persistence order.
type persistQueue struct {
	items []pendingMessage
	busy  bool
}

func (o *Orchestrator) JoinRoom(id core.ConnectionID, room, userID string) {
	o.submit(func() { o.join(id, room, userID) })
}

func (o *Orchestrator) LeaveRoom(id core.ConnectionID, room, userID string) {
	o.submit(func() { o.leave(id, room, userID) })
}

func (o *Orchestrator) PostMessage(id core.ConnectionID, in MessageIntent) {
	o.submit(func() { o.postMessage(id, in) })
}

// announce resolves the acting user id, adopting the one carried by the intent.
func (o *Orchestrator) announce(id core.ConnectionID, raw string) (domain.UserID, bool) {
	current, ok := o.Registry.Lookup(id)
	if !ok {
		return "", false
	}
	if raw == "" {
		return current, true
	}
	uid, err := domain.ParseUserID(raw)
	if err != nil {
		return current, true
	}
	o.Registry.SetUser(id, uid)
	return uid, true
}

func (o *Orchestrator) join(id core.ConnectionID, rawRoom, rawUser string) {
	room, err := domain.ParseRoomName(rawRoom)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(id)).Msg("join dropped")
		return
	}
	userID, ok := o.announce(id, rawUser)
	if !ok {
		return
	}
	conn, _ := o.Registry.Conn(id)
	o.Rooms.Join(room, id, conn)
	o.Registry.AddRoom(id, room)
	o.broadcast(room, id, app.EventSystem, app.SystemEvent{Room: room, Type: app.SystemJoin, UserID: userID}, false)
	if o.opts.LoadHistory && o.Messages != nil {
		o.loadHistory(id, room)
	}
}

func (o *Orchestrator) leave(id core.ConnectionID, rawRoom, rawUser string) {
	room, err := domain.ParseRoomName(rawRoom)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(id)).Msg("leave dropped")
		return
	}
	userID, ok := o.announce(id, rawUser)
	if !ok {
		return
	}
	if !o.Rooms.Leave(room, id) {
		return
	}
	o.Registry.RemoveRoom(id, room)
	o.broadcast(room, id, app.EventSystem, app.SystemEvent{Room: room, Type: app.SystemLeave, UserID: userID}, false)
}

func (o *Orchestrator) loadHistory(id core.ConnectionID, room domain.RoomName) {
	ctx, cancel := o.ioContext()
	limit := o.opts.HistoryLimit
	o.io.Go(func() {
		defer cancel()
		msgs, err := o.Messages.Recent(ctx, room, limit)
		var out []domain.EnrichedMessage
		if err == nil {
			out = o.enrichAll(ctx, msgs)
		}
		o.submit(func() { o.deliverHistory(id, room, out, err) })
	})
}

func (o *Orchestrator) deliverHistory(id core.ConnectionID, room domain.RoomName, msgs []domain.EnrichedMessage, err error) {
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("conn", string(id)).Str("room", string(room)).Msg("history fetch failed")
		o.sendTo(id, app.EventError, app.ErrorEvent{Code: app.CodeHistoryFailed, Room: room})
		return
	}
	if !o.Rooms.IsMember(room, id) {
		return
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	if len(msgs) > o.opts.HistoryLimit {
		msgs = msgs[len(msgs)-o.opts.HistoryLimit:]
	}
	if msgs == nil {
		msgs = []domain.EnrichedMessage{}
	}
	// Each message carries its room, so the payload stays a bare array.
	o.sendTo(id, app.EventHistory, msgs)
}

func (o *Orchestrator) postMessage(id core.ConnectionID, in MessageIntent) {
	logger := log.With().Str("module", "orch").Str("conn", string(id)).Logger()
	room, err := domain.ParseRoomName(in.Room)
	if err != nil {
		logger.Debug().Err(err).Msg("message dropped")
		return
	}
	sender, ok := o.announce(id, in.SenderID)
	if !ok {
		return
	}
	msg, err := domain.NewMessage(room, sender, in.Content, domain.MessageType(in.Type), in.MediaURL)
	if err != nil {
		logger.Debug().Err(err).Msg("message dropped")
		return
	}
	if o.Messages == nil {
		return
	}
	q, ok := o.persist[room]
	if !ok {
		q = &persistQueue{}
		o.persist[room] = q
	}
	q.items = append(q.items, pendingMessage{origin: id, msg: msg})
	if !q.busy {
		o.persistNext(room, q)
	}
}

func (o *Orchestrator) persistNext(room domain.RoomName, q *persistQueue) {
	if len(q.items) == 0 {
		delete(o.persist, room)
		return
	}
	q.busy = true
	head := q.items[0]
	ctx, cancel := o.ioContext()
	o.io.Go(func() {
		defer cancel()
		saved, err := o.Messages.Append(ctx, head.msg)
		var out domain.EnrichedMessage
		if err == nil {
			out = o.enrich(ctx, saved, nil)
		}
		o.submit(func() { o.persisted(room, head, out, err) })
	})
}

func (o *Orchestrator) persisted(room domain.RoomName, head pendingMessage, out domain.EnrichedMessage, err error) {
	q := o.persist[room]
	q.items = q.items[1:]
	q.busy = false
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("conn", string(head.origin)).Str("room", string(room)).Msg("message persist failed")
		o.sendTo(head.origin, app.EventError, app.ErrorEvent{Code: app.CodePersistFailed, Room: room})
	} else {
		o.broadcast(room, "", app.EventMessage, out, true)
	}
	o.persistNext(room, q)
}

// enrich attaches the sender profile; lookups that fail leave only the id.
func (o *Orchestrator) enrich(ctx context.Context, m domain.Message, cache map[domain.UserID]domain.Profile) domain.EnrichedMessage {
	out := domain.EnrichedMessage{Message: m, Sender: domain.Profile{ID: m.SenderID}}
	if p, ok := cache[m.SenderID]; ok {
		out.Sender = p
		return out
	}
	if o.Profiles != nil {
		p, err := o.Profiles.Profile(ctx, m.SenderID)
		if err == nil {
			p.ID = m.SenderID
			out.Sender = p
		} else {
			log.Debug().Err(err).Str("module", "orch").Str("user", string(m.SenderID)).Msg("profile lookup")
		}
	}
	if cache != nil {
		cache[m.SenderID] = out.Sender
	}
	return out
}

func (o *Orchestrator) enrichAll(ctx context.Context, msgs []domain.Message) []domain.EnrichedMessage {
	cache := make(map[domain.UserID]domain.Profile)
	out := make([]domain.EnrichedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, o.enrich(ctx, m, cache))
	}
	return out
}

// RecentMessages reads room history straight from the store for the HTTP API.
func (o *Orchestrator) RecentMessages(ctx context.Context, room domain.RoomName, limit int) ([]domain.EnrichedMessage, error) {
	if o.Messages == nil {
		return []domain.EnrichedMessage{}, nil
	}
	if limit <= 0 || limit > o.opts.HistoryLimit {
		limit = o.opts.HistoryLimit
	}
	msgs, err := o.Messages.Recent(ctx, room, limit)
	if err != nil {
		return nil, err
	}
	return o.enrichAll(ctx, msgs), nil
}
