package core

import "github.com/dkeye/hotspot/internal/domain"

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []ConnectionID
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ConnectionID ConnectionID  `json:"connectionId"`
	UserID       domain.UserID `json:"userId"`
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

// Stats is a point-in-time view of the coordinator state.
type Stats struct {
	Connections  int `json:"connections"`
	Rooms        int `json:"rooms"`
	Registered   int `json:"registered"`
	Available    int `json:"available"`
	PeerSessions int `json:"peer_sessions"`
}
