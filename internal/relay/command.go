package relay

import "github.com/vovakirdan/portalchat/internal/chat"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a room. Joining twice is a no-op.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandSendMessage relays a chat message to every member of its room.
	CommandSendMessage
)

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	Room    string
	Message chat.Message
}
