package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/proto"
	"github.com/vovakirdan/portalchat/internal/relay"
	"github.com/vovakirdan/portalchat/internal/store"
	"github.com/vovakirdan/portalchat/internal/store/sqlite"
)

// createTestStore creates a seeded in-memory SQLite store.
func createTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := store.Seed(context.Background(), st); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return st
}

func startTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	st := createTestStore(t)

	hub := relay.NewHub(st, nil, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, st, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func dialTestServer(ctx context.Context, t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func mustWrite(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	inbound, err := proto.NewInbound(typ, data)
	if err != nil {
		t.Fatalf("build inbound: %v", err)
	}
	if err := wsjson.Write(ctx, conn, inbound); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func mustRead(ctx context.Context, t *testing.T, conn *websocket.Conn) proto.Outbound {
	t.Helper()

	var outbound proto.Outbound
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return outbound
}

func testPayload(doctorID, patientID int64, sender, text string) proto.MessageData {
	return proto.MessageData{
		Room:       chat.RoomID(doctorID, patientID),
		Message:    text,
		SenderType: sender,
		DoctorID:   doctorID,
		PatientID:  patientID,
		Timestamp:  time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC).Format(proto.TimestampLayout),
	}
}
