package app

import (
	"encoding/json"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
)

// Outbound event names.
const (
	EventWelcome      = "welcome"
	EventHistory      = "history"
	EventMessage      = "message"
	EventSystem       = "system"
	EventMatchWaiting = "match:waiting"
	EventMatchFound   = "match:found"
	EventMatchEnded   = "match:ended"
	EventSignal       = "signal"
	EventError        = "error"
	EventPong         = "pong"
)

// System event kinds.
const (
	SystemJoin       = "join"
	SystemLeave      = "leave"
	SystemDisconnect = "disconnect"
)

// Error codes carried by EventError.
const (
	CodePersistFailed = "persist_failed"
	CodeHistoryFailed = "history_failed"
	CodeAlreadyPaired = "already_paired"
)

type WelcomeEvent struct {
	ConnectionID core.ConnectionID `json:"connectionId"`
	UserID       domain.UserID     `json:"userId,omitempty"`
}

type SystemEvent struct {
	Room   domain.RoomName `json:"room"`
	Type   string          `json:"type"`
	UserID domain.UserID   `json:"userId,omitempty"`
}

type MatchFoundEvent struct {
	PartnerID core.ConnectionID `json:"partnerId"`
	UserID    domain.UserID     `json:"userId,omitempty"`
}

type MatchEndedEvent struct {
	PartnerID core.ConnectionID `json:"partnerId"`
}

type SignalEvent struct {
	PartnerID core.ConnectionID `json:"partnerId"`
	Data      json.RawMessage   `json:"data,omitempty"`
}

type ErrorEvent struct {
	Code string          `json:"code"`
	Room domain.RoomName `json:"room,omitempty"`
}
