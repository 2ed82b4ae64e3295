package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/hotspot/internal/app/orch"
	"github.com/dkeye/hotspot/internal/config"
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

const (
	defaultReadLimit  = 32 << 10
	defaultPingPeriod = 54 * time.Second
	defaultWriteWait  = 5 * time.Second
	defaultSendBuffer = 64
)

// Settings tunes the per-connection pumps.
type Settings struct {
	ReadLimit  int64
	PingPeriod time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

func SettingsFromConfig(cfg *config.Config) Settings {
	s := Settings{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
	}
	if s.ReadLimit <= 0 {
		s.ReadLimit = defaultReadLimit
	}
	if s.PingPeriod <= 0 {
		s.PingPeriod = defaultPingPeriod
	}
	if s.WriteWait <= 0 {
		s.WriteWait = defaultWriteWait
	}
	if s.SendBuffer <= 0 {
		s.SendBuffer = defaultSendBuffer
	}
	return s
}

// pongWait must exceed PingPeriod so one lost pong is tolerated.
func (s Settings) pongWait() time.Duration {
	return s.PingPeriod * 10 / 9
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	settings Settings
}

func NewSignalWSController(o *orch.Orchestrator, settings Settings) *SignalWSController {
	return &SignalWSController{
		Orch:     o,
		settings: settings,
	}
}

// WsSignalConn is the outbound side of one websocket. TrySend never blocks.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// resolveUser prefers the userId query parameter and falls back to the client token cookie.
func resolveUser(c *gin.Context) domain.UserID {
	if uid, err := domain.ParseUserID(c.Query("userId")); err == nil {
		return uid
	}
	uid, _ := domain.ParseUserID(c.GetString("client_token"))
	return uid
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	userID := resolveUser(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.settings.SendBuffer),
	}
	id := ctl.Orch.Connect(conn, userID)
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("user", string(userID)).Msg("new WS connection")

	go ctl.writePump(ctx, id, conn)
	go ctl.readPump(id, conn)
}
