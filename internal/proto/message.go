package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/portalchat/internal/chat"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin  = "join_room"
	InboundTypeLeave = "leave_room"
	InboundTypeSend  = "send_message"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventReceiveMessage = "receive_message"
)

// TimestampLayout is the ISO-8601 form used for message timestamps.
const TimestampLayout = time.RFC3339Nano

var (
	ErrEmptyRoom      = errors.New("room is required")
	ErrEmptyText      = errors.New("message is required")
	ErrBadSender      = errors.New("sender_type must be doctor or patient")
	ErrMissingID      = errors.New("doctor_id and patient_id are required")
	ErrBadTimestamp   = errors.New("timestamp must be ISO-8601")
	ErrRoomMismatch   = errors.New("room does not match doctor_id and patient_id")
	ErrUnknownInbound = errors.New("unknown message type")
)

// JoinData requests membership in a room. leave_room uses the same payload.
type JoinData struct {
	Room string `json:"room"`
}

// Validate checks the join payload.
func (j JoinData) Validate() error {
	if strings.TrimSpace(j.Room) == "" {
		return ErrEmptyRoom
	}
	return nil
}

// MessageData is the send_message and receive_message payload.
type MessageData struct {
	Room       string `json:"room"`
	Message    string `json:"message"`
	SenderType string `json:"sender_type"`
	DoctorID   int64  `json:"doctor_id"`
	PatientID  int64  `json:"patient_id"`
	Timestamp  string `json:"timestamp"`
}

// Validate rejects payloads with missing or inconsistent fields.
func (m MessageData) Validate() error {
	if m.Room == "" {
		return ErrEmptyRoom
	}
	if strings.TrimSpace(m.Message) == "" {
		return ErrEmptyText
	}
	if !chat.Role(m.SenderType).Valid() {
		return ErrBadSender
	}
	if m.DoctorID == 0 || m.PatientID == 0 {
		return ErrMissingID
	}
	if _, err := time.Parse(TimestampLayout, m.Timestamp); err != nil {
		return fmt.Errorf("%w: %v", ErrBadTimestamp, err)
	}
	if m.Room != chat.RoomID(m.DoctorID, m.PatientID) {
		return ErrRoomMismatch
	}
	return nil
}

// ToMessage validates the payload and converts it to the domain model.
func (m MessageData) ToMessage() (chat.Message, error) {
	if err := m.Validate(); err != nil {
		return chat.Message{}, err
	}
	ts, _ := time.Parse(TimestampLayout, m.Timestamp)
	return chat.Message{
		Room:       m.Room,
		Text:       strings.TrimSpace(m.Message),
		SenderRole: chat.Role(m.SenderType),
		DoctorID:   m.DoctorID,
		PatientID:  m.PatientID,
		Timestamp:  ts,
	}, nil
}

// FromMessage builds the wire payload for a domain message.
func FromMessage(m chat.Message) MessageData {
	return MessageData{
		Room:       m.Room,
		Message:    m.Text,
		SenderType: string(m.SenderRole),
		DoctorID:   m.DoctorID,
		PatientID:  m.PatientID,
		Timestamp:  m.Timestamp.UTC().Format(TimestampLayout),
	}
}

// NewInbound wraps data in a client envelope.
func NewInbound(typ string, data any) (Inbound, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Inbound{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return Inbound{Type: typ, Data: raw}, nil
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// NewEvent wraps an event payload in a relay envelope.
func NewEvent(event string, data any) (Outbound, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Outbound{}, fmt.Errorf("marshal %s: %w", event, err)
	}
	return Outbound{Type: OutboundTypeEvent, Event: event, Data: raw}, nil
}

// NewError builds an error envelope.
func NewError(code, msg string) Outbound {
	return Outbound{Type: OutboundTypeError, Error: &Error{Code: code, Msg: msg}}
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Msg
}
