package signal

import (
	"encoding/json"

	"github.com/dkeye/hotspot/internal/app/orch"
	"github.com/dkeye/hotspot/internal/core"
)

type roomPayload struct {
	Room   string `json:"room"`
	UserID string `json:"userId"`
}

func (ctl *SignalWSController) handleJoinRoom(id core.ConnectionID, data json.RawMessage) {
	var p roomPayload
	if !decode(id, "joinRoom", data, &p) {
		return
	}
	ctl.Orch.JoinRoom(id, p.Room, p.UserID)
}

// handleLeaveRoom leaves one room; the connection stays open.
func (ctl *SignalWSController) handleLeaveRoom(id core.ConnectionID, data json.RawMessage) {
	var p roomPayload
	if !decode(id, "leaveRoom", data, &p) {
		return
	}
	ctl.Orch.LeaveRoom(id, p.Room, p.UserID)
}

func (ctl *SignalWSController) handleMessage(id core.ConnectionID, data json.RawMessage) {
	var in orch.MessageIntent
	if !decode(id, "message", data, &in) {
		return
	}
	ctl.Orch.PostMessage(id, in)
}
