// Package stdout implements a Provider that prints messages to standard
// output instead of delivering them. Useful as a dry run of the pipeline.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/mda-mailchannels/internal/email"
)

// Provider prints parsed messages to stdout in a human-readable format.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the message to stdout in a readable format.
// It always returns nil (success).
func (p *Provider) Send(_ context.Context, msg *email.Message) error {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("From: %s\n", msg.Get("From")))
	b.WriteString(fmt.Sprintf("To: %s\n", strings.Join(msg.Values("To"), ", ")))

	if vals := msg.Values("Cc"); len(vals) > 0 {
		b.WriteString(fmt.Sprintf("Cc: %s\n", strings.Join(vals, ", ")))
	}
	if v := msg.Get("Reply-To"); v != "" {
		b.WriteString(fmt.Sprintf("Reply-To: %s\n", v))
	}

	b.WriteString(fmt.Sprintf("Subject: %s\n", msg.Get("Subject")))

	for _, part := range msg.Inlines {
		b.WriteString(fmt.Sprintf("Body (%s):\n", part.ContentType))
		b.Write(part.Body)
		b.WriteString("\n")
	}

	if len(msg.Attachments) > 0 {
		attachments := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			attachments = append(attachments, fmt.Sprintf("%s (%s)", att.Filename, formatSize(len(att.Content))))
		}
		b.WriteString(fmt.Sprintf("Attachments: %s\n", strings.Join(attachments, ", ")))
	}

	b.WriteString("========================================\n")

	_, err := fmt.Fprint(p.writer, b.String())
	if err != nil {
		// A failed stdout write is not a delivery failure
		return nil
	}

	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
