package signal

import (
	"github.com/dkeye/hotspot/internal/app"
	"github.com/dkeye/hotspot/internal/core"
	"github.com/rs/zerolog/log"
)

// handlePing answers directly; it does not touch coordinator state.
func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	f, err := core.Encode(app.EventPong, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("encode pong")
		return
	}
	_ = conn.TrySend(f)
}
