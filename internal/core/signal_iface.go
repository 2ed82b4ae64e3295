package core

// Frame is a raw encoded event.
type Frame []byte

// ConnectionID identifies one live client connection.
type ConnectionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
