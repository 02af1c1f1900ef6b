package chat

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies which side of the portal a session belongs to.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleDoctor {
		return RolePatient
	}
	return RoleDoctor
}

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Message is a chat message exchanged inside a doctor/patient room.
type Message struct {
	Room       string
	Text       string
	SenderRole Role
	DoctorID   int64
	PatientID  int64
	Timestamp  time.Time
}
