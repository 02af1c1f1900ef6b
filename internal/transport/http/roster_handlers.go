package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/proto"
	"github.com/vovakirdan/portalchat/internal/store"
)

// RosterHandlers serves doctor and patient lookups for chat clients.
type RosterHandlers struct {
	store store.RosterStore
	log   *zerolog.Logger
}

// NewRosterHandlers creates a new roster handlers instance.
func NewRosterHandlers(st store.RosterStore, logger *zerolog.Logger) *RosterHandlers {
	return &RosterHandlers{
		store: st,
		log:   logger,
	}
}

// GetDoctor returns a doctor's display name.
// GET /api/doctors/:id
func (h *RosterHandlers) GetDoctor(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	d, err := h.store.GetDoctor(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "doctor")
		return
	}

	c.JSON(http.StatusOK, proto.LookupResponse{
		Success:     true,
		Participant: proto.Participant{ID: d.ID, Name: d.DisplayName(), Specialty: d.Specialty},
	})
}

// GetPatient returns a patient's display name.
// GET /api/patients/:id
func (h *RosterHandlers) GetPatient(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	p, err := h.store.GetPatient(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "patient")
		return
	}

	c.JSON(http.StatusOK, proto.LookupResponse{
		Success:     true,
		Participant: proto.Participant{ID: p.ID, Name: p.DisplayName()},
	})
}

// ListPatients lists the patients a doctor can chat with.
// GET /api/doctors/:id/patients
func (h *RosterHandlers) ListPatients(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	patients, err := h.store.ListPatientsForDoctor(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "patients")
		return
	}

	resp := proto.ListResponse{Success: true, Participants: make([]proto.Participant, 0, len(patients))}
	for _, p := range patients {
		resp.Participants = append(resp.Participants, proto.Participant{ID: p.ID, Name: p.DisplayName()})
	}
	c.JSON(http.StatusOK, resp)
}

// ListDoctors lists the doctors a patient can chat with.
// GET /api/patients/:id/doctors
func (h *RosterHandlers) ListDoctors(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	doctors, err := h.store.ListDoctorsForPatient(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "doctors")
		return
	}

	resp := proto.ListResponse{Success: true, Participants: make([]proto.Participant, 0, len(doctors))}
	for _, d := range doctors {
		resp.Participants = append(resp.Participants, proto.Participant{ID: d.ID, Name: d.DisplayName(), Specialty: d.Specialty})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RosterHandlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, proto.LookupResponse{Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *RosterHandlers) fail(c *gin.Context, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, proto.LookupResponse{Message: what + " not found"})
		return
	}
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("roster lookup failed")
	c.JSON(http.StatusInternalServerError, proto.LookupResponse{Message: "internal server error"})
}
