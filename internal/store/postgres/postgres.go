// Package postgres implements store.Store on PostgreSQL using lib/pq.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/vovakirdan/portalchat/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements store.Store for PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

// New connects to dsn and applies the schema.
func New(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateDoctor(ctx context.Context, d *store.Doctor) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO doctors (first_name, last_name, specialty)
         VALUES ($1, $2, $3) RETURNING doctor_id`,
		d.FirstName, d.LastName, d.Specialty,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePatient(ctx context.Context, p *store.Patient) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO patients (first_name, last_name)
         VALUES ($1, $2) RETURNING patient_id`,
		p.FirstName, p.LastName,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (s *PostgresStore) AssignPatient(ctx context.Context, doctorID, patientID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO doctor_patient_association (doctor_id, patient_id)
         VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		doctorID, patientID,
	)
	if err != nil {
		return fmt.Errorf("assign patient: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDoctor(ctx context.Context, id int64) (*store.Doctor, error) {
	var d store.Doctor
	err := s.db.QueryRowContext(ctx,
		`SELECT doctor_id, first_name, last_name, specialty FROM doctors WHERE doctor_id = $1`,
		id,
	).Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("doctor %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query doctor: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) GetPatient(ctx context.Context, id int64) (*store.Patient, error) {
	var p store.Patient
	err := s.db.QueryRowContext(ctx,
		`SELECT patient_id, first_name, last_name FROM patients WHERE patient_id = $1`,
		id,
	).Scan(&p.ID, &p.FirstName, &p.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("patient %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query patient: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPatientsForDoctor(ctx context.Context, doctorID int64) ([]*store.Patient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.patient_id, p.first_name, p.last_name
         FROM patients p
         JOIN doctor_patient_association a ON a.patient_id = p.patient_id
         WHERE a.doctor_id = $1
         ORDER BY p.patient_id`,
		doctorID,
	)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var out []*store.Patient
	for rows.Next() {
		var p store.Patient
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListDoctorsForPatient(ctx context.Context, patientID int64) ([]*store.Doctor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.doctor_id, d.first_name, d.last_name, d.specialty
         FROM doctors d
         JOIN doctor_patient_association a ON a.doctor_id = d.doctor_id
         WHERE a.patient_id = $1
         ORDER BY d.doctor_id`,
		patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}
	defer rows.Close()

	var out []*store.Doctor
	for rows.Next() {
		var d store.Doctor
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialty); err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (room, content, sender_type, doctor_id, patient_id, sent_at)
         VALUES ($1, $2, $3, $4, $5, $6) RETURNING message_id, created_at`,
		msg.Room, msg.Content, msg.SenderType, msg.DoctorID, msg.PatientID, msg.SentAt.UTC(),
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, room, content, sender_type, doctor_id, patient_id, sent_at, created_at
         FROM (
             SELECT * FROM messages WHERE room = $1 ORDER BY message_id DESC LIMIT $2
         ) recent
         ORDER BY message_id`,
		room, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []*store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.Room, &m.Content, &m.SenderType,
			&m.DoctorID, &m.PatientID, &m.SentAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
