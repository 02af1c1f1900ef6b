package relay

// Client is a relay connection as seen by the hub.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	rooms map[string]struct{}
	gone  chan struct{}
}

// NewClient constructs a client with initialized channels. buffer sizes the
// outgoing event queue; events beyond it are dropped for this client.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 16
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
		rooms:    make(map[string]struct{}),
		gone:     make(chan struct{}),
	}
}
