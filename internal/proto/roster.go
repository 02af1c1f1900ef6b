package proto

// Participant is a doctor or patient entry returned by the roster API.
type Participant struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
}

// LookupResponse answers a single doctor or patient lookup.
type LookupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Participant
}

// ListResponse answers a counterpart listing.
type ListResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message,omitempty"`
	Participants []Participant `json:"participants"`
}
