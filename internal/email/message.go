// Package email defines the parsed message model shared by all delivery
// providers.
package email

import "net/textproto"

// Message represents one parsed MIME message: its headers in wire order and
// its content parts split into inline bodies and attachments. A Message is
// built once by the parser and never mutated afterwards.
type Message struct {
	// Headers holds every header field in the order it appears in the
	// message. A name may repeat.
	Headers []Header

	// Inlines holds the text bodies (text/plain, text/html, ...) in
	// document order.
	Inlines []BodyPart

	// Attachments holds the binary attachment parts in document order.
	Attachments []Attachment
}

// Header is a single raw header field. Value is unfolded (line continuations
// removed) but otherwise verbatim.
type Header struct {
	Name  string
	Value string
}

// BodyPart is one inline text part of a message.
type BodyPart struct {
	// ContentType is the declared media type, "type/subtype" or a bare
	// "type" when the part declares no subtype. Empty when the part
	// carried no usable type information.
	ContentType string

	// Body is the transfer-decoded part content.
	Body []byte
}

// Attachment represents a file attached to a message.
type Attachment struct {
	// Filename may be empty when the part declares none.
	Filename string

	// ContentType is the declared media type of the attachment.
	ContentType string

	// Content is the transfer-decoded attachment bytes.
	Content []byte
}

// Address is one structured mailbox: an optional display name and a
// required email address.
type Address struct {
	Name  string
	Email string
}

// Values returns every value of the named header in wire order. The name
// comparison is case-insensitive.
func (m *Message) Values(name string) []string {
	key := textproto.CanonicalMIMEHeaderKey(name)
	var vals []string
	for _, h := range m.Headers {
		if textproto.CanonicalMIMEHeaderKey(h.Name) == key {
			vals = append(vals, h.Value)
		}
	}
	return vals
}

// Get returns the first value of the named header, or "" if absent.
func (m *Message) Get(name string) string {
	if vals := m.Values(name); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// HTMLParts returns the inline text/html parts in document order.
func (m *Message) HTMLParts() []BodyPart {
	var parts []BodyPart
	for _, p := range m.Inlines {
		if p.ContentType == "text/html" {
			parts = append(parts, p)
		}
	}
	return parts
}

// TextParts returns the inline parts that are not text/html, in document
// order.
func (m *Message) TextParts() []BodyPart {
	var parts []BodyPart
	for _, p := range m.Inlines {
		if p.ContentType != "text/html" {
			parts = append(parts, p)
		}
	}
	return parts
}
