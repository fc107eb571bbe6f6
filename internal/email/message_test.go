package email

import (
	"testing"
)

func TestValues_CaseInsensitiveWireOrder(t *testing.T) {
	t.Parallel()

	msg := &Message{Headers: []Header{
		{Name: "To", Value: "first@example.com"},
		{Name: "Subject", Value: "hello"},
		{Name: "TO", Value: "second@example.com"},
		{Name: "to", Value: "third@example.com"},
	}}

	vals := msg.Values("tO")
	want := []string{"first@example.com", "second@example.com", "third@example.com"}
	if len(vals) != len(want) {
		t.Fatalf("values: got %v, want %v", vals, want)
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("value %d: got %q, want %q", i, vals[i], want[i])
		}
	}
}

func TestGet_FirstValueOrEmpty(t *testing.T) {
	t.Parallel()

	msg := &Message{Headers: []Header{
		{Name: "Subject", Value: "first"},
		{Name: "Subject", Value: "second"},
	}}

	if got := msg.Get("subject"); got != "first" {
		t.Errorf("Get: got %q, want %q", got, "first")
	}
	if got := msg.Get("X-Missing"); got != "" {
		t.Errorf("Get missing: got %q, want empty", got)
	}
}

func TestHTMLAndTextParts(t *testing.T) {
	t.Parallel()

	msg := &Message{Inlines: []BodyPart{
		{ContentType: "text/plain", Body: []byte("plain one")},
		{ContentType: "text/html", Body: []byte("<p>html</p>")},
		{ContentType: "", Body: []byte("typeless")},
		{ContentType: "text/plain", Body: []byte("plain two")},
	}}

	html := msg.HTMLParts()
	if len(html) != 1 || string(html[0].Body) != "<p>html</p>" {
		t.Errorf("html parts: got %v", html)
	}

	text := msg.TextParts()
	if len(text) != 3 {
		t.Fatalf("text parts: got %d, want 3", len(text))
	}
	if string(text[0].Body) != "plain one" || string(text[2].Body) != "plain two" {
		t.Errorf("text part order: got %v", text)
	}
}
