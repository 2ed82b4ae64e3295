package app

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/rs/zerolog/log"
)

// Relay forwards opaque negotiation payloads between connections.
type Relay struct {
	registry *Registry
	sessions *Sessions
	// strict limits forwarding to the two ends of a peer session.
	strict bool
}

func NewRelay(registry *Registry, sessions *Sessions, strict bool) *Relay {
	return &Relay{registry: registry, sessions: sessions, strict: strict}
}

// Forward delivers data unchanged to `to`, tagged with `from`.
// A missing target is a silent drop (false, nil); a send failure is returned.
func (r *Relay) Forward(from, to core.ConnectionID, data json.RawMessage) (bool, error) {
	logger := log.With().Str("module", "app.relay").Str("from", string(from)).Str("to", string(to)).Logger()
	if to == "" || to == from {
		logger.Debug().Msg("relay: bad target")
		return false, nil
	}
	if r.strict {
		if p, ok := r.sessions.Partner(from); !ok || p != to {
			logger.Debug().Msg("relay: target is not the session partner")
			return false, nil
		}
	}
	conn, ok := r.registry.Conn(to)
	if !ok {
		logger.Debug().Msg("relay: target gone")
		return false, nil
	}
	f, err := encodeSignal(from, data)
	if err != nil {
		logger.Error().Err(err).Msg("relay: encode")
		return false, nil
	}
	if err := conn.TrySend(f); err != nil {
		logger.Warn().Err(err).Msg("relay: send failed")
		return false, err
	}
	return true, nil
}

var errInvalidPayload = errors.New("signal payload is not valid JSON")

// encodeSignal splices data into the frame byte for byte.
func encodeSignal(from core.ConnectionID, data json.RawMessage) (core.Frame, error) {
	if len(data) > 0 && !json.Valid(data) {
		return nil, errInvalidPayload
	}
	partner, err := json.Marshal(from)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteString(`{"event":"` + EventSignal + `","data":{"partnerId":`)
	b.Write(partner)
	if len(data) > 0 {
		b.WriteString(`,"data":`)
		b.Write(data)
	}
	b.WriteString(`}}`)
	return b.Bytes(), nil
}
