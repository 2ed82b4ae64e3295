package signal

import (
	"encoding/json"

	"github.com/dkeye/hotspot/internal/app/orch"
	"github.com/dkeye/hotspot/internal/core"
)

func (ctl *SignalWSController) handleRegister(id core.ConnectionID, data json.RawMessage) {
	var in orch.RegisterIntent
	if !decode(id, "register", data, &in) {
		return
	}
	ctl.Orch.Register(id, in)
}

func (ctl *SignalWSController) handleMatch(id core.ConnectionID, data json.RawMessage) {
	var in orch.MatchIntent
	if !decode(id, "match", data, &in) {
		return
	}
	ctl.Orch.RequestMatch(id, in)
}

type relayPayload struct {
	PartnerID string          `json:"partnerId"`
	Data      json.RawMessage `json:"data"`
}

// handleRelay forwards an opaque negotiation payload to the named partner.
func (ctl *SignalWSController) handleRelay(id core.ConnectionID, data json.RawMessage) {
	var p relayPayload
	if !decode(id, "signal", data, &p) || p.PartnerID == "" {
		return
	}
	ctl.Orch.Signal(id, core.ConnectionID(p.PartnerID), p.Data)
}
