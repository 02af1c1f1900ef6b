package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/proto"
	"github.com/vovakirdan/portalchat/internal/relay"
)

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, config.Default())

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestWebSocketJoinSendAndEcho(t *testing.T) {
	ts := startTestServer(t, config.Default())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	doctor := dialTestServer(ctx, t, ts)
	patient := dialTestServer(ctx, t, ts)

	mustWrite(ctx, t, doctor, proto.InboundTypeJoin, proto.JoinData{Room: "room_7_3"})
	mustWrite(ctx, t, patient, proto.InboundTypeJoin, proto.JoinData{Room: "room_7_3"})
	time.Sleep(100 * time.Millisecond)

	mustWrite(ctx, t, doctor, proto.InboundTypeSend, testPayload(7, 3, "doctor", "Hello"))

	for _, conn := range []struct {
		name string
		read func() proto.Outbound
	}{
		{"patient", func() proto.Outbound { return mustRead(ctx, t, patient) }},
		{"doctor echo", func() proto.Outbound { return mustRead(ctx, t, doctor) }},
	} {
		outbound := conn.read()
		if outbound.Type != proto.OutboundTypeEvent || outbound.Event != proto.EventReceiveMessage {
			t.Fatalf("%s: unexpected outbound: %+v", conn.name, outbound)
		}

		var data proto.MessageData
		if err := json.Unmarshal(outbound.Data, &data); err != nil {
			t.Fatalf("%s: unmarshal event data: %v", conn.name, err)
		}
		if data.Message != "Hello" || data.SenderType != "doctor" || data.DoctorID != 7 || data.PatientID != 3 {
			t.Fatalf("%s: unexpected payload: %+v", conn.name, data)
		}
		if data.Timestamp != "2024-05-01T09:30:00Z" {
			t.Fatalf("%s: relay rewrote timestamp: %s", conn.name, data.Timestamp)
		}
	}
}

func TestWebSocketRejectsMalformedPayloads(t *testing.T) {
	ts := startTestServer(t, config.Default())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dialTestServer(ctx, t, ts)

	mustWrite(ctx, t, conn, proto.InboundTypeJoin, proto.JoinData{Room: "general"})
	if out := mustRead(ctx, t, conn); out.Error == nil || out.Error.Code != relay.ErrCodeBadRequest {
		t.Fatalf("expected bad_request for foreign room name, got %+v", out)
	}

	bad := testPayload(7, 3, "doctor", "Hello")
	bad.Room = "room_3_7"
	mustWrite(ctx, t, conn, proto.InboundTypeSend, bad)
	if out := mustRead(ctx, t, conn); out.Error == nil || out.Error.Code != relay.ErrCodeInvalidMessage {
		t.Fatalf("expected invalid_message for room mismatch, got %+v", out)
	}

	mustWrite(ctx, t, conn, "hello", proto.JoinData{Room: "room_7_3"})
	if out := mustRead(ctx, t, conn); out.Error == nil || out.Error.Code != relay.ErrCodeInvalidMessage {
		t.Fatalf("expected invalid_message for unknown type, got %+v", out)
	}

	// The connection must survive rejected frames.
	mustWrite(ctx, t, conn, proto.InboundTypeSend, testPayload(7, 3, "doctor", "Hello"))
	if out := mustRead(ctx, t, conn); out.Error == nil || out.Error.Code != relay.ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room, got %+v", out)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimitPerMinute = 1
	ts := startTestServer(t, cfg)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dialTestServer(ctx, t, ts)

	mustWrite(ctx, t, conn, proto.InboundTypeJoin, proto.JoinData{Room: "room_7_3"})
	mustWrite(ctx, t, conn, proto.InboundTypeJoin, proto.JoinData{Room: "room_7_3"})

	out := mustRead(ctx, t, conn)
	if out.Error == nil || out.Error.Code != relay.ErrCodeRateLimited {
		t.Fatalf("expected rate_limited, got %+v", out)
	}
}

func TestWebSocketLeaveRoom(t *testing.T) {
	ts := startTestServer(t, config.Default())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dialTestServer(ctx, t, ts)

	mustWrite(ctx, t, conn, proto.InboundTypeLeave, proto.JoinData{Room: "room_7_9"})
	if out := mustRead(ctx, t, conn); out.Error == nil || out.Error.Code != relay.ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room for unjoined room, got %+v", out)
	}

	mustWrite(ctx, t, conn, proto.InboundTypeJoin, proto.JoinData{Room: "room_7_3"})
	mustWrite(ctx, t, conn, proto.InboundTypeLeave, proto.JoinData{Room: "room_7_3"})
	mustWrite(ctx, t, conn, proto.InboundTypeSend, testPayload(7, 3, "doctor", "Hello"))
	if out := mustRead(ctx, t, conn); out.Error == nil || out.Error.Code != relay.ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room after leaving, got %+v", out)
	}
}

func TestWebSocketRawFrameThroughServerMux(t *testing.T) {
	ts := startTestServer(t, config.Default())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dialTestServer(ctx, t, ts)
	if err := conn.Write(ctx, websocket.MessageText, []byte("bogus")); err != nil {
		t.Fatalf("write raw frame: %v", err)
	}

	out := mustRead(ctx, t, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != relay.ErrCodeInvalidMessage {
		t.Fatalf("expected invalid_message reply, got %+v", out)
	}
}
