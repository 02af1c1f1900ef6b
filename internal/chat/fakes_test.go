package chat

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeChannel struct {
	mu      sync.Mutex
	joins   []string
	sends   []Message
	joinErr error
	sendErr error
	inbound chan Delivery
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{inbound: make(chan Delivery, 16)}
}

func (f *fakeChannel) Join(_ context.Context, room string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joins = append(f.joins, room)
	return nil
}

func (f *fakeChannel) Send(_ context.Context, m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sends = append(f.sends, m)
	return nil
}

func (f *fakeChannel) Inbound() <-chan Delivery { return f.inbound }

func (f *fakeChannel) Joins() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.joins...)
}

func (f *fakeChannel) Sends() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sends...)
}

type fakeRoster struct {
	names map[int64]string
	err   error
}

func (f *fakeRoster) Name(_ context.Context, _ Role, id int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.names[id], nil
}

type fakeView struct {
	updates chan Update
	errs    chan error

	mu      sync.Mutex
	cleared int
}

func newFakeView() *fakeView {
	return &fakeView{
		updates: make(chan Update, 16),
		errs:    make(chan error, 16),
	}
}

func (f *fakeView) Show(u Update)    { f.updates <- u }
func (f *fakeView) Notify(err error) { f.errs <- err }

func (f *fakeView) ClearInput() {
	f.mu.Lock()
	f.cleared++
	f.mu.Unlock()
}

func (f *fakeView) Cleared() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func (f *fakeView) nextUpdate(t *testing.T) Update {
	t.Helper()
	select {
	case u := <-f.updates:
		return u
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for update")
		return Update{}
	}
}

func (f *fakeView) nextErr(t *testing.T) error {
	t.Helper()
	select {
	case err := <-f.errs:
		return err
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for notification")
		return nil
	}
}

func (f *fakeView) noErr(t *testing.T) {
	t.Helper()
	select {
	case err := <-f.errs:
		t.Fatalf("unexpected notification: %v", err)
	default:
	}
}

var fixedTime = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// startClient runs a client until the test ends.
func startClient(t *testing.T, role Role, self int64, roster Roster) (*Client, *fakeChannel, *fakeView) {
	t.Helper()

	ch := newFakeChannel()
	view := newFakeView()
	c := NewClient(NewSession(role, self), ch, roster, view, nil)
	c.SetClock(func() time.Time { return fixedTime })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c, ch, view
}
