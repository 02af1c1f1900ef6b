package chat

// Session holds the local participant's view state: who they are, who they
// are talking to, and which room the channel last joined.
// A Session is owned by a single goroutine (the Client loop).
type Session struct {
	role        Role
	self        int64
	counterpart int64
	currentRoom string
}

// NewSession creates a session for the given role and identity.
func NewSession(role Role, self int64) *Session {
	return &Session{role: role, self: self}
}

// Role returns the local role.
func (s *Session) Role() Role { return s.role }

// Self returns the local identity.
func (s *Session) Self() int64 { return s.self }

// CurrentRoom returns the last joined room, or "" before the first join.
func (s *Session) CurrentRoom() string { return s.currentRoom }

// SelectCounterpart records the doctor (for patients) or patient (for doctors)
// chosen in the UI. Zero clears the selection.
func (s *Session) SelectCounterpart(id int64) {
	s.counterpart = id
}

// ResolveCounterpart returns the selected counterpart.
func (s *Session) ResolveCounterpart() (int64, error) {
	if s.counterpart == 0 {
		return 0, &MissingSelectionError{Role: s.role}
	}
	return s.counterpart, nil
}

// Participants orders the local identity and a counterpart as (doctor, patient).
func (s *Session) Participants(counterpart int64) (doctorID, patientID int64) {
	if s.role == RoleDoctor {
		return s.self, counterpart
	}
	return counterpart, s.self
}

// CounterpartOf returns the id that keys m's thread for this session.
func (s *Session) CounterpartOf(m Message) int64 {
	if s.role == RoleDoctor {
		return m.PatientID
	}
	return m.DoctorID
}

// SetCurrentRoom records room as joined. It returns false when room is
// already the current one, in which case no join must be emitted.
func (s *Session) SetCurrentRoom(room string) bool {
	if s.currentRoom == room {
		return false
	}
	s.currentRoom = room
	return true
}
