package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Doctor is a portal doctor as known to the roster.
type Doctor struct {
	ID        int64
	FirstName string
	LastName  string
	Specialty string
}

// DisplayName is the label patients see for this doctor.
func (d Doctor) DisplayName() string {
	return "Dr. " + d.FirstName + " " + d.LastName
}

// Patient is a portal patient as known to the roster.
type Patient struct {
	ID        int64
	FirstName string
	LastName  string
}

// DisplayName is the label doctors see for this patient.
func (p Patient) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

// Message is a relayed chat message as logged by the relay.
type Message struct {
	ID         int64
	Room       string
	Content    string
	SenderType string
	DoctorID   int64
	PatientID  int64
	SentAt     time.Time
	CreatedAt  time.Time
}

// RosterStore handles doctors, patients and their care relationships.
type RosterStore interface {
	// CreateDoctor inserts a doctor and fills in its ID.
	CreateDoctor(ctx context.Context, d *Doctor) error

	// CreatePatient inserts a patient and fills in its ID.
	CreatePatient(ctx context.Context, p *Patient) error

	// AssignPatient links a patient to a doctor. Linking twice is a no-op.
	AssignPatient(ctx context.Context, doctorID, patientID int64) error

	// GetDoctor retrieves a doctor by ID.
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)

	// GetPatient retrieves a patient by ID.
	GetPatient(ctx context.Context, id int64) (*Patient, error)

	// ListPatientsForDoctor lists the doctor's patients ordered by ID.
	ListPatientsForDoctor(ctx context.Context, doctorID int64) ([]*Patient, error)

	// ListDoctorsForPatient lists the patient's doctors ordered by ID.
	ListDoctorsForPatient(ctx context.Context, patientID int64) ([]*Doctor, error)
}

// MessageStore handles the relay's message log.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages returns up to limit most recent messages of a room, oldest first.
	ListMessages(ctx context.Context, room string, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RosterStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
