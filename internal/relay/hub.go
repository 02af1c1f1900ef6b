package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/store"
)

// Broker fans messages out across relay instances. Every published message,
// including the publisher's own, comes back through Subscribe.
type Broker interface {
	Publish(ctx context.Context, m chat.Message) error
	Subscribe(ctx context.Context) (<-chan chat.Message, error)
}

type submission struct {
	client *Client
	cmd    *Command
}

// Hub owns all rooms and client memberships. State is only touched from Run.
type Hub struct {
	store  store.MessageStore
	broker Broker
	log    *zerolog.Logger

	register   chan *Client
	unregister chan *Client
	inbox      chan submission
	done       chan struct{}

	clients map[*Client]struct{}
	rooms   map[string]*Room
}

// NewHub creates a hub. st and broker are optional: without a store messages
// are not logged, without a broker they are broadcast in-process only.
func NewHub(st store.MessageStore, broker Broker, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		store:      st,
		broker:     broker,
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan submission, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]*Room),
	}
}

// RegisterClient attaches a client; its Commands start being processed.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient detaches a client from every room and closes its Events.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes registrations, commands and broker deliveries until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	var deliveries <-chan chat.Message
	if h.broker != nil {
		ch, err := h.broker.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("subscribe broker: %w", err)
		}
		deliveries = ch
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-h.register:
			h.clients[c] = struct{}{}
			go h.pump(ctx, c)
			h.log.Debug().Str("client_id", c.ID).Msg("client registered")
		case c := <-h.unregister:
			h.remove(c)
		case sub := <-h.inbox:
			h.handle(ctx, sub.client, sub.cmd)
		case m, ok := <-deliveries:
			if !ok {
				return errors.New("broker subscription closed")
			}
			h.broadcast(m)
		}
	}
}

func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.inbox <- submission{client: c, cmd: cmd}:
			case <-c.gone:
				return
			case <-ctx.Done():
				return
			}
		case <-c.gone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	for name := range c.rooms {
		h.leave(c, name)
	}
	delete(h.clients, c)
	close(c.gone)
	close(c.Events)
	h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
}

func (h *Hub) handle(ctx context.Context, c *Client, cmd *Command) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		room, ok := h.rooms[cmd.Room]
		if !ok {
			room = NewRoom(cmd.Room)
			h.rooms[cmd.Room] = room
		}
		if room.AddClient(c) {
			c.rooms[cmd.Room] = struct{}{}
			h.log.Info().Str("client_id", c.ID).Str("room", cmd.Room).Msg("joined room")
		}
	case CommandLeaveRoom:
		if _, ok := c.rooms[cmd.Room]; !ok {
			h.reject(c, coreError(ErrCodeNotInRoom, "not in room "+cmd.Room))
			return
		}
		h.leave(c, cmd.Room)
	case CommandSendMessage:
		h.send(ctx, c, cmd.Message)
	default:
		h.reject(c, coreError(ErrCodeBadRequest, "unknown command"))
	}
}

func (h *Hub) send(ctx context.Context, c *Client, m chat.Message) {
	if _, ok := c.rooms[m.Room]; !ok {
		h.reject(c, coreError(ErrCodeNotInRoom, "join "+m.Room+" before sending"))
		return
	}

	// Without a broker the message is stored before delivery. With one, only
	// successfully published messages are stored.
	if h.broker == nil {
		if err := h.save(ctx, m); err != nil {
			h.log.Error().Err(err).Str("room", m.Room).Msg("save message")
			h.reject(c, coreError(ErrCodeInternal, "message could not be stored"))
			return
		}
		h.broadcast(m)
		return
	}

	if err := h.broker.Publish(ctx, m); err != nil {
		h.log.Error().Err(err).Str("room", m.Room).Msg("publish message")
		h.reject(c, coreError(ErrCodeInternal, "message could not be relayed"))
		return
	}
	if err := h.save(ctx, m); err != nil {
		h.log.Error().Err(err).Str("room", m.Room).Msg("save relayed message")
	}
}

func (h *Hub) save(ctx context.Context, m chat.Message) error {
	if h.store == nil {
		return nil
	}
	return h.store.SaveMessage(ctx, &store.Message{
		Room:       m.Room,
		Content:    m.Text,
		SenderType: string(m.SenderRole),
		DoctorID:   m.DoctorID,
		PatientID:  m.PatientID,
		SentAt:     m.Timestamp,
	})
}

func (h *Hub) broadcast(m chat.Message) {
	room, ok := h.rooms[m.Room]
	if !ok {
		return
	}
	dropped := room.Broadcast(&Event{Kind: EventReceiveMessage, Message: m})
	for _, id := range dropped {
		h.log.Warn().Str("client_id", id).Str("room", m.Room).Msg("dropped message for slow client")
	}
}

func (h *Hub) leave(c *Client, name string) {
	delete(c.rooms, name)
	room, ok := h.rooms[name]
	if !ok {
		return
	}
	room.RemoveClient(c)
	if room.Empty() {
		delete(h.rooms, name)
	}
}

func (h *Hub) reject(c *Client, err *CoreError) {
	select {
	case c.Events <- &Event{Kind: EventError, Error: err}:
	default:
		h.log.Warn().Str("client_id", c.ID).Str("code", err.Code).Msg("dropped error for slow client")
	}
}
