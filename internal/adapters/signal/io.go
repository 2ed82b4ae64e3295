package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, id core.ConnectionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.settings.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("writePump channel closed")
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(ctl.settings.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.settings.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.settings.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump ping")
				return
			}
		}
	}
}

// readPump owns the connection lifetime: when it returns the coordinator runs
// the disconnect cascade.
func (ctl *SignalWSController) readPump(id core.ConnectionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		ctl.Orch.Disconnect(id)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.settings.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.settings.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.settings.pongWait()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
			}
			return
		}
		ctl.dispatch(id, c, data)
	}
}

func (ctl *SignalWSController) dispatch(id core.ConnectionID, c *WsSignalConn, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad json")
		return
	}

	switch env.Event {
	case "joinRoom":
		ctl.handleJoinRoom(id, env.Data)
	case "leaveRoom":
		ctl.handleLeaveRoom(id, env.Data)
	case "message":
		ctl.handleMessage(id, env.Data)
	case "register":
		ctl.handleRegister(id, env.Data)
	case "unregister":
		ctl.Orch.Unregister(id)
	case "match":
		ctl.handleMatch(id, env.Data)
	case "match:end":
		ctl.Orch.EndSession(id)
	case "signal":
		ctl.handleRelay(id, env.Data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Debug().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
	}
}

// decode unmarshals an intent payload; a missing payload decodes as empty.
func decode(id core.ConnectionID, event string, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(id)).Str("event", event).Msg("bad payload")
		return false
	}
	return true
}
