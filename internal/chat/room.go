package chat

import (
	"fmt"
	"strconv"
	"strings"
)

const roomPrefix = "room_"

// RoomID returns the conversation room shared by a doctor and a patient.
// The doctor id always comes first so both sides derive the same value.
func RoomID(doctorID, patientID int64) string {
	return roomPrefix + strconv.FormatInt(doctorID, 10) + "_" + strconv.FormatInt(patientID, 10)
}

// ParseRoomID splits a room id produced by RoomID back into its participants.
func ParseRoomID(room string) (doctorID, patientID int64, err error) {
	rest, ok := strings.CutPrefix(room, roomPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("room %q: missing %q prefix", room, roomPrefix)
	}
	d, p, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, 0, fmt.Errorf("room %q: missing separator", room)
	}
	if doctorID, err = strconv.ParseInt(d, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("room %q: doctor id: %w", room, err)
	}
	if patientID, err = strconv.ParseInt(p, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("room %q: patient id: %w", room, err)
	}
	return doctorID, patientID, nil
}
