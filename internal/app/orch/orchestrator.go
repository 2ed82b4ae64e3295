package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/hotspot/internal/app"
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

var ErrClosed = errors.New("orchestrator stopped")

const (
	DefaultHistoryLimit = 50
	DefaultQueueSize    = 1024
	DefaultStoreTimeout = 5 * time.Second
)

type Options struct {
	LoadHistory  bool
	HistoryLimit int
	StrictRelay  bool
	QueueSize    int
	StoreTimeout time.Duration
	Policy       app.Policy
	Rand         app.Intner
}

func DefaultOptions() Options {
	return Options{
		LoadHistory:  true,
		HistoryLimit: DefaultHistoryLimit,
		QueueSize:    DefaultQueueSize,
		StoreTimeout: DefaultStoreTimeout,
	}
}

// Orchestrator is the single serialization point. Every mutation of the
// registry, rooms, pool and sessions runs on the Run goroutine; store calls
// run outside it and re-enter through the event queue.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
	Pool     *app.Pool
	Sessions *app.Sessions
	Engine   *app.Engine
	Relay    *app.Relay
	Policy   app.Policy

	Messages core.MessageStore
	Profiles core.ProfileStore

	opts    Options
	events  chan func()
	done    chan struct{}
	baseCtx context.Context
	io      conc.WaitGroup
	kicks   []core.ConnectionID
	persist map[domain.RoomName]*persistQueue
}

func New(messages core.MessageStore, profiles core.ProfileStore, opts Options) *Orchestrator {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	policy := opts.Policy
	if policy == nil {
		policy = app.SimplePolicy{}
	}
	reg := app.NewRegistry()
	sessions := app.NewSessions()
	return &Orchestrator{
		Registry: reg,
		Rooms:    app.NewRoomManager(),
		Pool:     app.NewPool(),
		Sessions: sessions,
		Engine:   app.NewEngine(opts.Rand),
		Relay:    app.NewRelay(reg, sessions, opts.StrictRelay),
		Policy:   policy,
		Messages: messages,
		Profiles: profiles,
		opts:     opts,
		events:   make(chan func(), opts.QueueSize),
		done:     make(chan struct{}),
		baseCtx:  context.Background(),
		persist:  make(map[domain.RoomName]*persistQueue),
	}
}

// Run drains the event queue until ctx is done, then waits for in-flight store calls.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.baseCtx = ctx
	log.Info().Str("module", "orch").Msg("coordinator loop started")
	defer func() {
		close(o.done)
		o.io.Wait()
		log.Info().Str("module", "orch").Msg("coordinator loop stopped")
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-o.events:
			fn()
			o.drainKicks()
		}
	}
}

func (o *Orchestrator) submit(fn func()) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.events <- fn:
		return true
	case <-o.done:
		return false
	}
}

// query runs fn on the loop and waits for it.
func (o *Orchestrator) query(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !o.submit(func() { fn(); close(finished) }) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-o.done:
		return ErrClosed
	}
}

// Connect registers a transport and returns its connection id.
func (o *Orchestrator) Connect(conn core.SignalConnection, userID domain.UserID) core.ConnectionID {
	id := core.NewConnectionID()
	o.submit(func() {
		if !o.Registry.Register(id, userID, conn) {
			return
		}
		o.sendTo(id, app.EventWelcome, app.WelcomeEvent{ConnectionID: id, UserID: userID})
	})
	return id
}

// Disconnect is the only cancellation signal; repeated calls are no-ops.
func (o *Orchestrator) Disconnect(id core.ConnectionID) {
	o.submit(func() { o.disconnect(id) })
}

func (o *Orchestrator) disconnect(id core.ConnectionID) {
	snap, ok := o.Registry.Unregister(id)
	if !ok {
		return
	}
	for _, room := range snap.Rooms {
		if o.Rooms.Leave(room, id) {
			o.broadcast(room, id, app.EventSystem, app.SystemEvent{Room: room, Type: app.SystemDisconnect, UserID: snap.UserID}, false)
		}
	}
	o.Pool.Remove(id)
	o.endSession(id)
	if snap.Conn != nil {
		snap.Conn.Close()
	}
	log.Info().Str("module", "orch").Str("conn", string(id)).Int("rooms", len(snap.Rooms)).Msg("disconnect cleanup done")
}

func (o *Orchestrator) drainKicks() {
	for len(o.kicks) > 0 {
		id := o.kicks[0]
		o.kicks = o.kicks[1:]
		o.disconnect(id)
	}
}

func (o *Orchestrator) onSendFailure(id core.ConnectionID) {
	switch o.Policy.OnBackPressure(id) {
	case app.KickMember:
		log.Warn().Str("module", "orch").Str("conn", string(id)).Msg("slow connection kicked")
		o.kicks = append(o.kicks, id)
	case app.DropFrame, app.NoAction:
	}
}

func (o *Orchestrator) sendTo(id core.ConnectionID, event string, data any) {
	conn, ok := o.Registry.Conn(id)
	if !ok {
		return
	}
	f, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode")
		return
	}
	if err := conn.TrySend(f); err != nil {
		o.onSendFailure(id)
	}
}

func (o *Orchestrator) broadcast(room domain.RoomName, from core.ConnectionID, event string, data any, includeSender bool) {
	f, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode")
		return
	}
	res := o.Rooms.Broadcast(room, from, f, includeSender)
	for _, slow := range res.Dropped {
		o.onSendFailure(slow)
	}
}

func (o *Orchestrator) ioContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(o.baseCtx, o.opts.StoreTimeout)
}

// ListRooms lists live rooms.
func (o *Orchestrator) ListRooms(ctx context.Context) ([]core.RoomInfo, error) {
	var out []core.RoomInfo
	err := o.query(ctx, func() { out = o.Rooms.List() })
	return out, err
}

func (o *Orchestrator) Members(ctx context.Context, room domain.RoomName) ([]core.MemberDTO, error) {
	var out []core.MemberDTO
	err := o.query(ctx, func() {
		ids := o.Rooms.Members(room)
		out = make([]core.MemberDTO, 0, len(ids))
		for _, id := range ids {
			uid, _ := o.Registry.Lookup(id)
			out = append(out, core.MemberDTO{ConnectionID: id, UserID: uid})
		}
	})
	return out, err
}

func (o *Orchestrator) Stats(ctx context.Context) (core.Stats, error) {
	var out core.Stats
	err := o.query(ctx, func() {
		out = core.Stats{
			Connections:  o.Registry.Len(),
			Rooms:        o.Rooms.Len(),
			Registered:   o.Pool.Len(),
			Available:    o.Pool.AvailableLen(),
			PeerSessions: o.Sessions.Len(),
		}
	})
	return out, err
}
