package orch

import (
	"encoding/json"

	"github.com/dkeye/hotspot/internal/core"
)

// Signal relays an opaque negotiation payload from id to partner.
func (o *Orchestrator) Signal(id, partner core.ConnectionID, data json.RawMessage) {
	o.submit(func() {
		if _, ok := o.Registry.Lookup(id); !ok {
			return
		}
		if _, err := o.Relay.Forward(id, partner, data); err != nil {
			o.onSendFailure(partner)
		}
	})
}
