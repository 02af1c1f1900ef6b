package relay

import "github.com/vovakirdan/portalchat/internal/chat"

// EventKind is a notification the hub emits to clients.
type EventKind int

const (
	// EventReceiveMessage delivers a chat message, including the sender's echo.
	EventReceiveMessage EventKind = iota
	// EventError notifies a client about a rejected command.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Message chat.Message
	Error   *CoreError
}
