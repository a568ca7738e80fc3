// Package directory talks to the hospital staff and patient directory
// service. Admissions look up the patient and attending doctor here before
// creating an encounter; when no directory URL is configured the client is
// disabled and lookups succeed vacuously.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/hms/ipd/internal/platform/apperr"
)

type Patient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Active bool   `json:"active"`
}

type Doctor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Active    bool   `json:"active"`
}

type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// New builds a directory client. An empty baseURL returns a disabled client;
// Enabled reports false and lookups return nil without a network call.
func New(baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		return &Client{logger: logger}
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, logger: logger}
}

func (c *Client) Enabled() bool {
	return c != nil && c.http != nil
}

// LookupPatient fetches a patient record by id. A 404 maps to a not-found
// error so admission requests with unknown patients fail cleanly.
func (c *Client) LookupPatient(ctx context.Context, id string) (*Patient, error) {
	if !c.Enabled() {
		return nil, nil
	}

	var patient Patient
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&patient).
		ForceContentType("application/json").
		Get(fmt.Sprintf("/patients/%s", id))
	if err != nil {
		c.logger.Error().Err(err).Str("patient_id", id).Msg("directory lookup failed")
		return nil, apperr.Internal(fmt.Errorf("directory: %w", err))
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperr.NotFound("patient", id)
	}
	if resp.IsError() {
		return nil, apperr.Internal(fmt.Errorf("directory returned status %d for patient %s", resp.StatusCode(), id))
	}
	return &patient, nil
}

// LookupDoctor fetches a practitioner record by id.
func (c *Client) LookupDoctor(ctx context.Context, id string) (*Doctor, error) {
	if !c.Enabled() {
		return nil, nil
	}

	var doctor Doctor
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&doctor).
		ForceContentType("application/json").
		Get(fmt.Sprintf("/practitioners/%s", id))
	if err != nil {
		c.logger.Error().Err(err).Str("doctor_id", id).Msg("directory lookup failed")
		return nil, apperr.Internal(fmt.Errorf("directory: %w", err))
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperr.NotFound("doctor", id)
	}
	if resp.IsError() {
		return nil, apperr.Internal(fmt.Errorf("directory returned status %d for doctor %s", resp.StatusCode(), id))
	}
	return &doctor, nil
}
