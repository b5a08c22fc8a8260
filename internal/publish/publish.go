// Package publish pushes a learner's ledger to the remote write endpoint.
//
// The endpoint is write-only: its response says nothing reliable about what
// was stored, so a publish has exactly two outcomes. Dispatched means the
// request was sent and the round trip did not fail; it does not mean the
// remote side persisted anything.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"learnerportal/internal/ledger"
	"learnerportal/internal/models"
)

// Outcome is the only observable result of a publish.
type Outcome int

const (
	DispatchFailed Outcome = iota
	Dispatched
)

func (o Outcome) String() string {
	if o == Dispatched {
		return "dispatched"
	}
	return "dispatch failed"
}

// DefaultPortal tags every payload with the portal it came from.
const DefaultPortal = "simpledata"

// Payload is the document accepted by the remote write endpoint.
type Payload struct {
	Portal       string `json:"portal"`
	Email        string `json:"email"`
	Name         string `json:"nombre"`
	Role         string `json:"rol"`
	Completed    int    `json:"completadas"`
	ProgressJSON string `json:"progresoJSON"`
}

// NewPayload builds the payload for a learner's full ledger.
func NewPayload(portal string, learner models.Learner, l ledger.Ledger) Payload {
	return Payload{
		Portal:       portal,
		Email:        learner.Email,
		Name:         learner.Name,
		Role:         learner.Role,
		Completed:    l.CompletedCount(),
		ProgressJSON: l.Encode(),
	}
}

// Client sends ledgers to the remote write endpoint.
type Client struct {
	endpoint   string
	portal     string
	httpClient *http.Client
	debug      bool
}

// NewClient creates a publisher. An empty endpoint disables publishing.
func NewClient(endpoint, portal string, timeout time.Duration, debug bool) *Client {
	if portal == "" {
		portal = DefaultPortal
	}
	return &Client{
		endpoint:   endpoint,
		portal:     portal,
		httpClient: &http.Client{Timeout: timeout},
		debug:      debug,
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

// Publish sends the full ledger once. It never retries and never returns an
// error; failures are logged and reported as DispatchFailed.
func (c *Client) Publish(ctx context.Context, learner models.Learner, l ledger.Ledger) Outcome {
	if !c.Enabled() {
		log.Printf("Skipping progress publish (no endpoint configured): %s", learner.Email)
		return DispatchFailed
	}

	payload := NewPayload(c.portal, learner, l)
	if c.debug {
		log.Printf("[DEBUG] Publishing progress: email=%s, completadas=%d, progress=%s",
			payload.Email, payload.Completed, payload.ProgressJSON)
	}

	if err := c.send(ctx, payload); err != nil {
		log.Printf("Error publishing progress for %s: %v", learner.Email, err)
		return DispatchFailed
	}
	return Dispatched
}

func (c *Client) send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The status and body are deliberately not inspected.
	io.Copy(io.Discard, resp.Body)
	return nil
}
