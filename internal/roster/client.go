// Package roster is the HTTP client for the portal's doctor/patient directory.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/proto"
)

// ErrNotFound is returned when the roster does not know the participant.
var ErrNotFound = errors.New("participant not found")

// Client queries the roster API.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ chat.Roster = (*Client)(nil)

// New creates a roster client for baseURL (e.g. http://localhost:8080).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// DoctorName returns the display name of a doctor.
func (c *Client) DoctorName(ctx context.Context, id int64) (string, error) {
	var resp proto.LookupResponse
	if err := c.get(ctx, "/api/doctors/"+strconv.FormatInt(id, 10), &resp); err != nil {
		return "", err
	}
	return resp.Name, nil
}

// PatientName returns the display name of a patient.
func (c *Client) PatientName(ctx context.Context, id int64) (string, error) {
	var resp proto.LookupResponse
	if err := c.get(ctx, "/api/patients/"+strconv.FormatInt(id, 10), &resp); err != nil {
		return "", err
	}
	return resp.Name, nil
}

// Name resolves the display name of a participant with the given role.
func (c *Client) Name(ctx context.Context, role chat.Role, id int64) (string, error) {
	switch role {
	case chat.RoleDoctor:
		return c.DoctorName(ctx, id)
	case chat.RolePatient:
		return c.PatientName(ctx, id)
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}

// Counterparts lists who a participant with the given role can chat with:
// a doctor's patients or a patient's doctors.
func (c *Client) Counterparts(ctx context.Context, role chat.Role, id int64) ([]proto.Participant, error) {
	var path string
	switch role {
	case chat.RoleDoctor:
		path = "/api/doctors/" + strconv.FormatInt(id, 10) + "/patients"
	case chat.RolePatient:
		path = "/api/patients/" + strconv.FormatInt(id, 10) + "/doctors"
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	var resp proto.ListResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Participants, nil
}

// envelope captures the fields shared by every roster response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("roster request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read roster response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode == http.StatusNotFound {
		if decodeErr != nil || env.Message == "" {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, env.Message)
	}
	if decodeErr != nil {
		return fmt.Errorf("roster api error: %s: %w", resp.Status, decodeErr)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return fmt.Errorf("roster api error: %s: %s", resp.Status, env.Message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode roster response: %w", err)
	}
	return nil
}
