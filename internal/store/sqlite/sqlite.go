package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/portalchat/internal/store"
)

// Schema creates the roster and message tables if they are missing.
const Schema = `
CREATE TABLE IF NOT EXISTS doctors (
	doctor_id  INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL,
	specialty  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS patients (
	patient_id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS doctor_patient_association (
	doctor_id  INTEGER NOT NULL,
	patient_id INTEGER NOT NULL,
	PRIMARY KEY (doctor_id, patient_id),
	FOREIGN KEY (doctor_id) REFERENCES doctors(doctor_id),
	FOREIGN KEY (patient_id) REFERENCES patients(patient_id)
);

CREATE TABLE IF NOT EXISTS messages (
	message_id  INTEGER PRIMARY KEY AUTOINCREMENT,
	room        TEXT NOT NULL,
	content     TEXT NOT NULL,
	sender_type TEXT NOT NULL,
	doctor_id   INTEGER NOT NULL,
	patient_id  INTEGER NOT NULL,
	sent_at     DATETIME NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room, message_id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// New opens the database at dbPath and applies Schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== RosterStore implementation ====

// CreateDoctor inserts a doctor and fills in its ID.
func (s *SQLiteStore) CreateDoctor(ctx context.Context, d *store.Doctor) error {
	query := `
		INSERT INTO doctors (first_name, last_name, specialty)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, d.FirstName, d.LastName, d.Specialty)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	d.ID = id
	return nil
}

// CreatePatient inserts a patient and fills in its ID.
func (s *SQLiteStore) CreatePatient(ctx context.Context, p *store.Patient) error {
	query := `
		INSERT INTO patients (first_name, last_name)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, p.FirstName, p.LastName)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// AssignPatient links a patient to a doctor.
func (s *SQLiteStore) AssignPatient(ctx context.Context, doctorID, patientID int64) error {
	query := `
		INSERT OR IGNORE INTO doctor_patient_association (doctor_id, patient_id)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, doctorID, patientID); err != nil {
		return fmt.Errorf("assign patient: %w", err)
	}
	return nil
}

// GetDoctor retrieves a doctor by ID.
func (s *SQLiteStore) GetDoctor(ctx context.Context, id int64) (*store.Doctor, error) {
	query := `
		SELECT doctor_id, first_name, last_name, specialty
		FROM doctors
		WHERE doctor_id = ?
	`
	var d store.Doctor
	err := s.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("doctor %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query doctor: %w", err)
	}
	return &d, nil
}

// GetPatient retrieves a patient by ID.
func (s *SQLiteStore) GetPatient(ctx context.Context, id int64) (*store.Patient, error) {
	query := `
		SELECT patient_id, first_name, last_name
		FROM patients
		WHERE patient_id = ?
	`
	var p store.Patient
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.FirstName, &p.LastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query patient: %w", err)
	}
	return &p, nil
}

// ListPatientsForDoctor lists the doctor's patients ordered by ID.
func (s *SQLiteStore) ListPatientsForDoctor(ctx context.Context, doctorID int64) ([]*store.Patient, error) {
	query := `
		SELECT p.patient_id, p.first_name, p.last_name
		FROM patients p
		INNER JOIN doctor_patient_association a ON a.patient_id = p.patient_id
		WHERE a.doctor_id = ?
		ORDER BY p.patient_id
	`
	rows, err := s.db.QueryContext(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var patients []*store.Patient
	for rows.Next() {
		var p store.Patient
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

// ListDoctorsForPatient lists the patient's doctors ordered by ID.
func (s *SQLiteStore) ListDoctorsForPatient(ctx context.Context, patientID int64) ([]*store.Doctor, error) {
	query := `
		SELECT d.doctor_id, d.first_name, d.last_name, d.specialty
		FROM doctors d
		INNER JOIN doctor_patient_association a ON a.doctor_id = d.doctor_id
		WHERE a.patient_id = ?
		ORDER BY d.doctor_id
	`
	rows, err := s.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*store.Doctor
	for rows.Next() {
		var d store.Doctor
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialty); err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, &d)
	}
	return doctors, rows.Err()
}

// ==== MessageStore implementation ====

// SaveMessage persists a message to storage.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (room, content, sender_type, doctor_id, patient_id, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.Room, msg.Content, msg.SenderType, msg.DoctorID, msg.PatientID, msg.SentAt.UTC())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	return nil
}

// ListMessages returns the most recent messages of a room, oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	query := `
		SELECT message_id, room, content, sender_type, doctor_id, patient_id, sent_at, created_at
		FROM messages
		WHERE room = ?
		ORDER BY message_id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.Content, &msg.SenderType,
			&msg.DoctorID, &msg.PatientID, &msg.SentAt, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	// Reverse to get chronological order
	for i := range len(messages) / 2 {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}

	return messages, rows.Err()
}
