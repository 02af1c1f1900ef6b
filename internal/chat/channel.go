package chat

import "context"

// Delivery is one event from a channel's inbound stream. Exactly one of
// Message or Err is meaningful.
type Delivery struct {
	Message Message
	Err     error
}

// Channel is a bidirectional connection to the message relay.
type Channel interface {
	// Join asks the relay to add this connection to room.
	Join(ctx context.Context, room string) error
	// Send emits m without waiting for any acknowledgement.
	Send(ctx context.Context, m Message) error
	// Inbound delivers events in arrival order, including echoes of our own
	// messages. The channel is closed when the connection ends.
	Inbound() <-chan Delivery
}

// Roster resolves participant display names.
type Roster interface {
	Name(ctx context.Context, role Role, id int64) (string, error)
}

// Update is pushed to the View for every message appended to a thread.
type Update struct {
	Counterpart int64
	Name        string
	NewThread   bool
	Record      DisplayRecord
}

// View is the UI layer driven by the Client loop.
type View interface {
	Show(u Update)
	Notify(err error)
	ClearInput()
}
