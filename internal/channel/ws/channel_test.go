package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/proto"
)

// echoRelay answers every send_message with a receive_message carrying the
// same payload and records join requests on joins.
func echoRelay(t *testing.T, joins chan<- string) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		for {
			var in proto.Inbound
			if err := wsjson.Read(ctx, conn, &in); err != nil {
				return
			}
			var out proto.Outbound
			switch in.Type {
			case proto.InboundTypeJoin:
				joins <- string(in.Data)
				out = proto.Outbound{Type: proto.OutboundTypeEvent, Event: "joined_room"}
			case proto.InboundTypeSend:
				out = proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventReceiveMessage, Data: in.Data}
			default:
				out = proto.NewError("bad_request", "unknown type")
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextDelivery(t *testing.T, ch *Channel) chat.Delivery {
	t.Helper()
	select {
	case d, ok := <-ch.Inbound():
		if !ok {
			t.Fatalf("inbound closed")
		}
		return d
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for delivery")
		return chat.Delivery{}
	}
}

func TestJoinSendAndReceiveEcho(t *testing.T) {
	joins := make(chan string, 4)
	ch := New(echoRelay(t, joins), 8, nil)
	t.Cleanup(func() { _ = ch.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if err := ch.Join(ctx, "room_7_3"); err != nil {
		t.Fatalf("join: %v", err)
	}
	select {
	case got := <-joins:
		if got != `{"room":"room_7_3"}` {
			t.Fatalf("unexpected join payload %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("join never reached relay")
	}

	sent := chat.Message{
		Room:       "room_7_3",
		Text:       "hello",
		SenderRole: chat.RoleDoctor,
		DoctorID:   7,
		PatientID:  3,
		Timestamp:  time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
	if err := ch.Send(ctx, sent); err != nil {
		t.Fatalf("send: %v", err)
	}

	// joined_room is not a chat event and is skipped
	d := nextDelivery(t, ch)
	if d.Err != nil {
		t.Fatalf("unexpected delivery error: %v", d.Err)
	}
	if d.Message != sent {
		t.Fatalf("got %+v want %+v", d.Message, sent)
	}
}

func TestRelayErrorsAreDelivered(t *testing.T) {
	joins := make(chan string, 1)
	ch := New(echoRelay(t, joins), 8, nil)
	t.Cleanup(func() { _ = ch.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := ch.write(ctx, "shout", proto.JoinData{Room: "x"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	d := nextDelivery(t, ch)
	var perr *proto.Error
	if !errors.As(d.Err, &perr) || perr.Code != "bad_request" {
		t.Fatalf("expected relay error, got %v", d.Err)
	}
}

func TestDialFailureIsTransportError(t *testing.T) {
	ch := New("ws://127.0.0.1:1/ws", 1, nil)
	t.Cleanup(func() { _ = ch.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := ch.Join(ctx, "room_7_3")
	var te *chat.TransportError
	if !errors.As(err, &te) || te.Op != "dial" {
		t.Fatalf("expected dial transport error, got %v", err)
	}
}

func TestCloseEndsInbound(t *testing.T) {
	joins := make(chan string, 1)
	ch := New(echoRelay(t, joins), 1, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// a local close is not a transport failure
	select {
	case d, ok := <-ch.Inbound():
		if ok {
			t.Fatalf("expected closed inbound, got delivery %+v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("inbound not closed")
	}

	if err := ch.Join(ctx, "room_7_3"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
