// Package ws implements chat.Channel over a WebSocket connection to the relay.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/proto"
)

// ErrClosed is returned by operations on a closed channel.
var ErrClosed = errors.New("channel closed")

// Channel is a lazily dialed relay connection shared by every send, join
// and receive call site of a chat view.
type Channel struct {
	url string
	log *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    *websocket.Conn
	closed  bool
	inbound chan chat.Delivery
}

var _ chat.Channel = (*Channel)(nil)

// New creates a channel for the relay at url. buffer sizes the inbound queue.
func New(url string, buffer int, logger *zerolog.Logger) *Channel {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if buffer < 0 {
		buffer = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Channel{
		url:     url,
		log:     logger,
		ctx:     ctx,
		cancel:  cancel,
		inbound: make(chan chat.Delivery, buffer),
	}
}

// Connect dials the relay once. Repeated and concurrent calls share the
// same connection.
func (c *Channel) Connect(ctx context.Context) error {
	_, err := c.connection(ctx)
	return err
}

// Join emits a join_room event.
func (c *Channel) Join(ctx context.Context, room string) error {
	return c.write(ctx, proto.InboundTypeJoin, proto.JoinData{Room: room})
}

// Send emits a send_message event.
func (c *Channel) Send(ctx context.Context, m chat.Message) error {
	return c.write(ctx, proto.InboundTypeSend, proto.FromMessage(m))
}

// Inbound returns the ordered stream of relay events.
func (c *Channel) Inbound() <-chan chat.Delivery {
	return c.inbound
}

// Close terminates the connection and the read loop.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn == nil {
		c.cancel()
		close(c.inbound)
		return nil
	}
	// the read loop must see the cancellation before the socket goes away
	c.cancel()
	if err := c.conn.Close(websocket.StatusNormalClosure, "bye"); err != nil {
		c.log.Debug().Err(err).Msg("close relay connection")
	}
	return nil
}

func (c *Channel) connection(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &chat.TransportError{Op: "dial", Err: ErrClosed}
	}
	if c.conn != nil {
		return c.conn, nil
	}

	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return nil, &chat.TransportError{Op: "dial", Err: err}
	}
	c.conn = conn
	c.log.Info().Str("url", c.url).Msg("connected to relay")

	go c.readLoop(conn)
	return conn, nil
}

func (c *Channel) write(ctx context.Context, typ string, data any) error {
	conn, err := c.connection(ctx)
	if err != nil {
		return err
	}

	envelope, err := proto.NewInbound(typ, data)
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, envelope); err != nil {
		return &chat.TransportError{Op: typ, Err: err}
	}
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	defer close(c.inbound)

	for {
		var outbound proto.Outbound
		if err := wsjson.Read(c.ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) || c.ctx.Err() != nil {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				c.log.Info().Msg("relay closed connection")
				return
			}
			c.log.Error().Err(err).Msg("read relay event")
			c.deliver(chat.Delivery{Err: &chat.TransportError{Op: "receive", Err: err}})
			return
		}

		d, ok := c.decode(outbound)
		if !ok {
			continue
		}
		if !c.deliver(d) {
			return
		}
	}
}

func (c *Channel) decode(outbound proto.Outbound) (chat.Delivery, bool) {
	switch outbound.Type {
	case proto.OutboundTypeError:
		if outbound.Error == nil {
			return chat.Delivery{Err: fmt.Errorf("%w: error event without body", chat.ErrMalformedEvent)}, true
		}
		return chat.Delivery{Err: fmt.Errorf("relay: %w", outbound.Error)}, true
	case proto.OutboundTypeEvent:
	default:
		return chat.Delivery{Err: fmt.Errorf("%w: unknown type %q", chat.ErrMalformedEvent, outbound.Type)}, true
	}

	if outbound.Event != proto.EventReceiveMessage {
		c.log.Debug().Str("event", outbound.Event).Msg("ignoring relay event")
		return chat.Delivery{}, false
	}

	var data proto.MessageData
	if err := json.Unmarshal(outbound.Data, &data); err != nil {
		return chat.Delivery{Err: fmt.Errorf("%w: %v", chat.ErrMalformedEvent, err)}, true
	}
	msg, err := data.ToMessage()
	if err != nil {
		return chat.Delivery{Err: fmt.Errorf("%w: %v", chat.ErrMalformedEvent, err)}, true
	}
	return chat.Delivery{Message: msg}, true
}

func (c *Channel) deliver(d chat.Delivery) bool {
	select {
	case c.inbound <- d:
		return true
	case <-c.ctx.Done():
		return false
	}
}
