package chat

import (
	"fmt"
	"time"
)

// Side tells the UI which column a message belongs in.
type Side string

const (
	SideSent     Side = "sent"
	SideReceived Side = "received"
)

const sentLabel = "Sent"

// DisplayRecord is what the UI needs to draw one message.
type DisplayRecord struct {
	Side      Side
	Label     string
	Text      string
	Timestamp time.Time
}

// Render maps a message to its display record for the local role.
// name is the counterpart's display name; empty falls back to a role label.
func Render(local Role, m Message, name string) DisplayRecord {
	rec := DisplayRecord{
		Side:      SideReceived,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
	if m.SenderRole == local {
		rec.Side = SideSent
		rec.Label = sentLabel
		return rec
	}
	rec.Label = name
	if rec.Label == "" {
		rec.Label = FallbackLabel(m.SenderRole, senderID(m))
	}
	return rec
}

// FallbackLabel is shown when a participant's name cannot be resolved.
func FallbackLabel(role Role, id int64) string {
	switch role {
	case RoleDoctor:
		return fmt.Sprintf("Doctor #%d", id)
	case RolePatient:
		return fmt.Sprintf("Patient #%d", id)
	default:
		return fmt.Sprintf("#%d", id)
	}
}

func senderID(m Message) int64 {
	if m.SenderRole == RoleDoctor {
		return m.DoctorID
	}
	return m.PatientID
}
