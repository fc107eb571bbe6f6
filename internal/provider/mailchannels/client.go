// Package mailchannels implements a Provider that sends email via the
// MailChannels transactional API.
//
// This is where the MDA's real work happens: the parsed message is
// partitioned into reserved and pass-through headers, addresses are
// resolved and flattened, bodies and attachments are extracted, the sender
// domain's DKIM key material is attached, and the result is submitted as
// one JSON POST. One message in, one attempt out; there is no retry.
package mailchannels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/shineum/mda-mailchannels/internal/email"
)

// DefaultEndpoint is the MailChannels transactional send endpoint.
const DefaultEndpoint = "https://api.mailchannels.net/tx/v1/send"

// ClientConfig holds the configuration for creating a Client.
type ClientConfig struct {
	// APIKey authenticates against the send endpoint.
	APIKey string

	// Selector is the DKIM selector reported alongside the key material.
	Selector string

	// Keys resolves per-domain DKIM private keys.
	Keys KeyStore

	// Endpoint overrides DefaultEndpoint when non-empty.
	Endpoint string

	// Transactional, when set, marks every submission accordingly.
	// When nil the wire field is serialized as null.
	Transactional *bool

	// ClickTracking and OpenTracking opt in or out of the provider's
	// tracking features. When both are nil, tracking_settings is
	// omitted from the request.
	ClickTracking *bool
	OpenTracking  *bool
}

// Client sends email through the MailChannels transactional API.
type Client struct {
	apiKey     string
	endpoint   string
	builder    *requestBuilder
	httpClient *http.Client
}

// New creates a new Client with the given configuration.
func New(cfg ClientConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	var tracking *trackingSettings
	if cfg.ClickTracking != nil || cfg.OpenTracking != nil {
		tracking = &trackingSettings{}
		if cfg.ClickTracking != nil {
			tracking.ClickTracking = &trackingToggle{Enable: *cfg.ClickTracking}
		}
		if cfg.OpenTracking != nil {
			tracking.OpenTracking = &trackingToggle{Enable: *cfg.OpenTracking}
		}
	}

	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		builder: &requestBuilder{
			keys:          cfg.Keys,
			selector:      cfg.Selector,
			transactional: cfg.Transactional,
			tracking:      tracking,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send transforms the message into the provider's request schema and
// submits it. Any validation failure aborts before the network call; a
// non-success response surfaces as an *APIError.
func (c *Client) Send(ctx context.Context, msg *email.Message) error {
	if !httpguts.ValidHeaderFieldValue(c.apiKey) {
		return fmt.Errorf("%w: api key", ErrMalformedHeaderValue)
	}

	req, err := c.builder.build(msg)
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	slog.Debug("assembled send request",
		"from", req.From.Email,
		"dkim_domain", req.Domain,
		"content_entries", len(req.Content),
		"attachments", len(req.Attachments),
		"bytes", len(body),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// The sandbox endpoint answers 200 instead of 202.
		slog.Info("send accepted by sandbox")
		return nil
	case http.StatusAccepted:
		slog.Info("message queued for delivery")
		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "mailchannels"
}
