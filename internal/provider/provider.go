// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/mda-mailchannels/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider transforms the parsed message into its own wire format and
// performs exactly one delivery attempt; retrying is not part of the
// contract.
type Provider interface {
	// Send delivers an email message through this provider.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, msg *email.Message) error

	// Name returns the human-readable name of this provider.
	Name() string
}
