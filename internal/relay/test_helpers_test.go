package relay

import (
	"testing"
	"time"

	"github.com/vovakirdan/portalchat/internal/chat"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(wait):
	}
}

// settle gives per-client pumps time to hand queued commands to the hub,
// since ordering is only guaranteed within one client.
func settle() {
	time.Sleep(50 * time.Millisecond)
}

func testMessage(doctorID, patientID int64, sender chat.Role, text string) chat.Message {
	return chat.Message{
		Room:       chat.RoomID(doctorID, patientID),
		Text:       text,
		SenderRole: sender,
		DoctorID:   doctorID,
		PatientID:  patientID,
		Timestamp:  time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}
