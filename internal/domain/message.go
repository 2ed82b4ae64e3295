package domain

import (
	"errors"
	"strings"
	"time"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageVoice MessageType = "voice"
)

var (
	ErrEmptyMessage       = errors.New("message has neither content nor media")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrNoSender           = errors.New("message has no sender")
)

// Message is an append-only chat record. The store that persisted it owns it.
type Message struct {
	ID        string      `json:"id"`
	Room      RoomName    `json:"room"`
	SenderID  UserID      `json:"senderId"`
	Content   string      `json:"content,omitempty"`
	Type      MessageType `json:"type"`
	MediaURL  string      `json:"mediaUrl,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewMessage validates a draft. ID and CreatedAt are assigned by the store.
func NewMessage(room RoomName, sender UserID, content string, typ MessageType, mediaURL string) (Message, error) {
	if sender == "" {
		return Message{}, ErrNoSender
	}
	if typ == "" {
		typ = MessageText
	}
	if typ != MessageText && typ != MessageVoice {
		return Message{}, ErrInvalidMessageType
	}
	content = strings.TrimSpace(content)
	mediaURL = strings.TrimSpace(mediaURL)
	if content == "" && mediaURL == "" {
		return Message{}, ErrEmptyMessage
	}
	return Message{
		Room:     room,
		SenderID: sender,
		Content:  content,
		Type:     typ,
		MediaURL: mediaURL,
	}, nil
}

// EnrichedMessage is what members receive: the record plus the sender profile.
type EnrichedMessage struct {
	Message
	Sender Profile `json:"sender"`
}
