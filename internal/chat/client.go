package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var errInboundClosed = errors.New("inbound stream closed")

type command struct {
	run   func() error
	reply chan error
}

// Client is the event loop of one chat view. Session state, the
// conversation store and rendering are only touched from Run.
type Client struct {
	session  *Session
	convos   *Conversations
	channel  Channel
	roster   Roster
	view     View
	log      *zerolog.Logger
	now      func() time.Time
	commands chan command
	done     chan struct{}
}

// NewClient wires a client. roster may be nil, in which case fallback labels
// are used for every counterpart.
func NewClient(session *Session, ch Channel, roster Roster, view View, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		session:  session,
		convos:   NewConversations(),
		channel:  ch,
		roster:   roster,
		view:     view,
		log:      logger,
		now:      time.Now,
		commands: make(chan command),
		done:     make(chan struct{}),
	}
}

// SetClock replaces the timestamp source. Call before Run.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// Run processes user commands and inbound deliveries one at a time until ctx
// is done or the inbound stream closes.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.done)

	inbound := c.channel.Inbound()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-c.commands:
			cmd.reply <- cmd.run()
		case d, ok := <-inbound:
			if !ok {
				err := &TransportError{Op: "receive", Err: errInboundClosed}
				c.view.Notify(err)
				return err
			}
			c.handle(ctx, d)
		}
	}
}

// Send validates text and emits it to the selected counterpart's room,
// joining the room first when it differs from the current one.
func (c *Client) Send(ctx context.Context, text string) error {
	return c.do(ctx, func() error { return c.send(ctx, text) })
}

// Select records the counterpart chosen in the UI.
func (c *Client) Select(ctx context.Context, counterpart int64) error {
	return c.do(ctx, func() error {
		c.session.SelectCounterpart(counterpart)
		return nil
	})
}

// Open selects counterpart and joins its room right away, so that replies
// arrive before the first send.
func (c *Client) Open(ctx context.Context, counterpart int64) error {
	return c.do(ctx, func() error {
		c.session.SelectCounterpart(counterpart)
		id, err := c.session.ResolveCounterpart()
		if err != nil {
			return err
		}
		doctorID, patientID := c.session.Participants(id)
		if err := c.join(ctx, RoomID(doctorID, patientID)); err != nil {
			c.view.Notify(err)
			return err
		}
		return nil
	})
}

// ThreadSummary is a rendered snapshot of one thread.
type ThreadSummary struct {
	Counterpart int64
	Name        string
	Expanded    bool
	Records     []DisplayRecord
}

// Threads returns rendered snapshots of all threads in creation order.
func (c *Client) Threads(ctx context.Context) ([]ThreadSummary, error) {
	var out []ThreadSummary
	err := c.do(ctx, func() error {
		for _, id := range c.convos.Counterparts() {
			t, _ := c.convos.Thread(id)
			summary := ThreadSummary{Counterpart: id, Name: t.Name, Expanded: t.Expanded}
			for _, m := range t.messages {
				summary.Records = append(summary.Records, Render(c.session.Role(), m, t.Name))
			}
			out = append(out, summary)
		}
		return nil
	})
	return out, err
}

func (c *Client) do(ctx context.Context, fn func() error) error {
	cmd := command{run: fn, reply: make(chan error, 1)}
	select {
	case c.commands <- cmd:
	case <-c.done:
		return ErrClientStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		select {
		case err := <-cmd.reply:
			return err
		default:
			return ErrClientStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	counterpart, err := c.session.ResolveCounterpart()
	if err != nil {
		c.view.Notify(err)
		return err
	}
	defer c.view.ClearInput()

	doctorID, patientID := c.session.Participants(counterpart)
	room := RoomID(doctorID, patientID)
	if err := c.join(ctx, room); err != nil {
		c.view.Notify(err)
		return err
	}

	msg := Message{
		Room:       room,
		Text:       text,
		SenderRole: c.session.Role(),
		DoctorID:   doctorID,
		PatientID:  patientID,
		Timestamp:  c.now().UTC(),
	}
	if err := c.channel.Send(ctx, msg); err != nil {
		err = asTransportError("send", err)
		c.log.Warn().Err(err).Str("room", room).Msg("send message")
		c.view.Notify(err)
		return err
	}
	return nil
}

func (c *Client) join(ctx context.Context, room string) error {
	prev := c.session.CurrentRoom()
	if !c.session.SetCurrentRoom(room) {
		return nil
	}
	if err := c.channel.Join(ctx, room); err != nil {
		c.session.SetCurrentRoom(prev)
		err = asTransportError("join", err)
		c.log.Warn().Err(err).Str("room", room).Msg("join room")
		return err
	}
	c.log.Debug().Str("room", room).Msg("joined room")
	return nil
}

func (c *Client) handle(ctx context.Context, d Delivery) {
	if d.Err != nil {
		c.log.Warn().Err(d.Err).Msg("inbound event rejected")
		c.view.Notify(d.Err)
		return
	}

	m := d.Message
	if own := c.ownID(m); own != c.session.Self() {
		err := fmt.Errorf("%w: message for %s %d delivered to %d", ErrMalformedEvent, c.session.Role(), own, c.session.Self())
		c.log.Warn().Err(err).Str("room", m.Room).Msg("inbound message rejected")
		c.view.Notify(err)
		return
	}

	counterpart := c.session.CounterpartOf(m)
	created := !c.convos.Has(counterpart)
	var name string
	if created {
		name = c.lookupName(ctx, counterpart)
	}
	t := c.convos.Append(counterpart, name, m)

	c.view.Show(Update{
		Counterpart: counterpart,
		Name:        t.Name,
		NewThread:   created,
		Record:      Render(c.session.Role(), m, t.Name),
	})
}

func (c *Client) ownID(m Message) int64 {
	if c.session.Role() == RoleDoctor {
		return m.DoctorID
	}
	return m.PatientID
}

func (c *Client) lookupName(ctx context.Context, counterpart int64) string {
	role := c.session.Role().Other()
	fallback := FallbackLabel(role, counterpart)
	if c.roster == nil {
		return fallback
	}

	name, err := c.roster.Name(ctx, role, counterpart)
	if err != nil {
		lookupErr := &LookupError{Role: role, ID: counterpart, Err: err}
		c.log.Warn().Err(err).Int64("counterpart", counterpart).Msg("display name lookup failed")
		c.view.Notify(lookupErr)
		return fallback
	}
	if name == "" {
		return fallback
	}
	return name
}

func asTransportError(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
