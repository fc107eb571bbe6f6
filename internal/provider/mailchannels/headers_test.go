package mailchannels

import (
	"testing"

	"github.com/shineum/mda-mailchannels/internal/email"
)

func TestIsReserved(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"From", true},
		{"from", true},
		{"FROM", true},
		{"To", true},
		{"Cc", true},
		{"Bcc", true},
		{"Subject", true},
		{"Reply-To", true},
		{"reply-to", true},
		{"Message-Id", true},
		{"Message-ID", true},
		{"Received", true},
		{"Content-Type", true},
		{"Content-Transfer-Encoding", true},
		{"DKIM-Signature", true},
		{"ARC-Authentication-Results", true},
		{"X-Custom", false},
		{"Date", false},
		{"List-Unsubscribe", false},
		{"In-Reply-To", false},
		{"References", false},
	}

	for _, tt := range tests {
		if got := isReserved(tt.name); got != tt.want {
			t.Errorf("isReserved(%q): got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClassifyHeaders_Partition(t *testing.T) {
	t.Parallel()

	msg := &email.Message{Headers: []email.Header{
		{Name: "Received", Value: "from relay"},
		{Name: "From", Value: "sender@example.com"},
		{Name: "X-Campaign", Value: "spring"},
		{Name: "to", Value: "a@example.com"},
		{Name: "To", Value: "b@example.com"},
		{Name: "Date", Value: "Sat, 30 Aug 2026 10:00:00 +0000"},
	}}

	sets := classifyHeaders(msg)

	if got := sets.reserved["From"]; len(got) != 1 || got[0] != "sender@example.com" {
		t.Errorf("reserved From: got %v", got)
	}
	to := sets.reserved["To"]
	if len(to) != 2 || to[0] != "a@example.com" || to[1] != "b@example.com" {
		t.Errorf("reserved To should collect both casings in wire order: got %v", to)
	}
	if _, ok := sets.passthrough["From"]; ok {
		t.Error("From leaked into pass-through set")
	}
	if got := sets.passthrough["X-Campaign"]; got != "spring" {
		t.Errorf("pass-through X-Campaign: got %q, want %q", got, "spring")
	}
	if got := sets.passthrough["Date"]; got == "" {
		t.Error("Date should pass through")
	}
	if len(sets.passthrough) != 2 {
		t.Errorf("pass-through size: got %d (%v), want 2", len(sets.passthrough), sets.passthrough)
	}
}

func TestClassifyHeaders_DuplicatePassthroughLastWins(t *testing.T) {
	t.Parallel()

	msg := &email.Message{Headers: []email.Header{
		{Name: "X-Priority", Value: "1"},
		{Name: "X-Priority", Value: "5"},
	}}

	sets := classifyHeaders(msg)
	if got := sets.passthrough["X-Priority"]; got != "5" {
		t.Errorf("duplicate pass-through header: got %q, want last value %q", got, "5")
	}
}

func TestClassifyHeaders_PassthroughKeepsWireCasing(t *testing.T) {
	t.Parallel()

	msg := &email.Message{Headers: []email.Header{
		{Name: "x-lowercase-header", Value: "v"},
	}}

	sets := classifyHeaders(msg)
	if _, ok := sets.passthrough["x-lowercase-header"]; !ok {
		t.Errorf("pass-through keys should keep wire casing, got %v", sets.passthrough)
	}
}
