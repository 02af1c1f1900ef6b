package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/proto"
)

type recordingChannel struct {
	mu      sync.Mutex
	joins   []string
	sends   []chat.Message
	inbound chan chat.Delivery
}

func (r *recordingChannel) Join(_ context.Context, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joins = append(r.joins, room)
	return nil
}

func (r *recordingChannel) Send(_ context.Context, m chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, m)
	return nil
}

func (r *recordingChannel) Inbound() <-chan chat.Delivery { return r.inbound }

type staticLister []proto.Participant

func (s staticLister) Counterparts(context.Context, chat.Role, int64) ([]proto.Participant, error) {
	return s, nil
}

func newTestSession(t *testing.T) (*session, *recordingChannel, *bytes.Buffer) {
	t.Helper()

	ch := &recordingChannel{inbound: make(chan chat.Delivery)}
	var out bytes.Buffer
	term := newTerminal(&out)
	client := chat.NewClient(chat.NewSession(chat.RoleDoctor, 1), ch, nil, term, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	lister := staticLister{{ID: 3, Name: "Nora Fields"}, {ID: 4, Name: "Ivan Petrov"}}
	return &session{client: client, term: term, roster: lister, role: chat.RoleDoctor, self: 1}, ch, &out
}

func TestSessionCommands(t *testing.T) {
	s, ch, out := newTestSession(t)
	ctx := context.Background()

	if !s.handleLine(ctx, "/with 3") {
		t.Fatalf("/with should not quit")
	}
	s.handleLine(ctx, "how is the cough?")
	s.handleLine(ctx, "/list")

	ch.mu.Lock()
	joins, sends := ch.joins, ch.sends
	ch.mu.Unlock()
	if len(joins) != 1 || joins[0] != "room_1_3" {
		t.Fatalf("unexpected joins %v", joins)
	}
	if len(sends) != 1 || sends[0].Text != "how is the cough?" {
		t.Fatalf("unexpected sends %+v", sends)
	}

	text := out.String()
	for _, want := range []string{"now chatting with patient #3", "#4 Ivan Petrov"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}

	if s.handleLine(ctx, "/quit") {
		t.Fatalf("/quit should stop the session")
	}
}

func TestSessionRejectsBadWith(t *testing.T) {
	s, ch, out := newTestSession(t)

	s.handleLine(context.Background(), "/with nobody")
	if !strings.Contains(out.String(), "usage: /with <patient id>") {
		t.Fatalf("expected usage hint, got %q", out.String())
	}
	if len(ch.joins) != 0 {
		t.Fatalf("unexpected join %v", ch.joins)
	}
}

func TestSendWithoutSelectionIsReported(t *testing.T) {
	s, _, out := newTestSession(t)

	s.handleLine(context.Background(), "hello")
	if !strings.Contains(out.String(), "! select a patient before sending") {
		t.Fatalf("expected selection hint, got %q", out.String())
	}
}

func TestFormatRecord(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)

	sent := formatRecord("Nora Fields", chat.DisplayRecord{Side: chat.SideSent, Label: "Sent", Text: "hi", Timestamp: ts})
	if sent != "[Nora Fields] 09:30  Sent > hi" {
		t.Fatalf("unexpected sent line %q", sent)
	}
	recv := formatRecord("Nora Fields", chat.DisplayRecord{Side: chat.SideReceived, Label: "Nora Fields", Text: "hello", Timestamp: ts})
	if recv != "[Nora Fields] 09:30  Nora Fields: hello" {
		t.Fatalf("unexpected received line %q", recv)
	}
}
