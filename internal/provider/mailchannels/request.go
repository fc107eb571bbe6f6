package mailchannels

import (
	"fmt"
	"mime"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"

	"github.com/shineum/mda-mailchannels/internal/email"
)

// KeyStore looks up DKIM private-key material by sender domain. The
// returned string is the base64 key payload without PEM envelope or
// newlines.
type KeyStore interface {
	PrivateKey(domain string) (string, error)
}

// wordDecoder decodes RFC 2047 encoded words in Subject values.
var wordDecoder = mime.WordDecoder{CharsetReader: charset.Reader}

// requestBuilder assembles send requests from parsed messages. The
// transactional flag and tracking settings come from configuration and
// apply to every request; everything else derives from the message.
type requestBuilder struct {
	keys          KeyStore
	selector      string
	transactional *bool
	tracking      *trackingSettings
}

// build transforms one parsed message into the provider's request schema.
// Validation is strict: exactly one From, exactly one non-empty Subject, at
// most one Reply-To, at least one To recipient. The first violation aborts
// the build.
func (b *requestBuilder) build(msg *email.Message) (*sendRequest, error) {
	sets := classifyHeaders(msg)

	from, err := resolveFrom(sets.reserved["From"])
	if err != nil {
		return nil, err
	}

	domain, err := senderDomain(from.Email)
	if err != nil {
		return nil, err
	}

	key, err := b.keys.PrivateKey(domain)
	if err != nil {
		return nil, err
	}

	subject, err := resolveSubject(sets.reserved["Subject"])
	if err != nil {
		return nil, err
	}

	replyTo, err := resolveReplyTo(sets.reserved["Reply-To"])
	if err != nil {
		return nil, err
	}

	to, err := flattenAddresses(sets.reserved["To"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse To: %w", err)
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("%w: no recipient", ErrMissingHeader)
	}

	cc, err := flattenAddresses(sets.reserved["Cc"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse Cc: %w", err)
	}
	bcc, err := flattenAddresses(sets.reserved["Bcc"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse Bcc: %w", err)
	}

	contents, err := buildContent(msg)
	if err != nil {
		return nil, err
	}

	attachments, err := buildAttachments(msg.Attachments)
	if err != nil {
		return nil, err
	}

	req := &sendRequest{
		Attachments: attachments,
		Content:     contents,
		dkimInfo: dkimInfo{
			Domain:     domain,
			PrivateKey: key,
			Selector:   b.selector,
		},
		From: toWireAddress(from),
		Personalizations: []personalization{{
			Bcc: toWireAddresses(bcc),
			Cc:  toWireAddresses(cc),
			To:  toWireAddresses(to),
		}},
		Subject:          subject,
		TrackingSettings: b.tracking,
		Transactional:    b.transactional,
	}
	if replyTo != nil {
		wire := toWireAddress(*replyTo)
		req.ReplyTo = &wire
	}
	if len(sets.passthrough) > 0 {
		req.Headers = sets.passthrough
	}

	return req, nil
}

// resolveSubject resolves the Subject occurrences to exactly one non-empty
// decoded subject line.
func resolveSubject(values []string) (string, error) {
	switch {
	case len(values) == 0:
		return "", fmt.Errorf("%w: need a Subject", ErrMissingHeader)
	case len(values) > 1:
		return "", fmt.Errorf("%w: must have only one Subject", ErrTooManyHeaders)
	}

	subject, err := wordDecoder.DecodeHeader(values[0])
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: Subject is empty or undecodable", ErrMissingHeader)
	}
	return subject, nil
}

// buildContent produces one content entry per inline body part, every HTML
// part before every plain-text part.
func buildContent(msg *email.Message) ([]content, error) {
	parts := append(msg.HTMLParts(), msg.TextParts()...)

	entries := make([]content, 0, len(parts))
	for _, p := range parts {
		if p.ContentType == "" {
			return nil, fmt.Errorf("%w: body part missing content type", ErrAttachmentIssue)
		}
		if !utf8.Valid(p.Body) {
			return nil, fmt.Errorf("%w: %s body part", ErrInvalidUTF8, p.ContentType)
		}
		entries = append(entries, content{
			Type:  p.ContentType,
			Value: string(p.Body),
		})
	}
	return entries, nil
}

// buildAttachments converts the message's attachments to the wire schema.
// The declared media type of an attachment is not forwarded: the API
// receives text/plain regardless.
func buildAttachments(list []email.Attachment) ([]attachment, error) {
	if len(list) == 0 {
		return nil, nil
	}

	out := make([]attachment, 0, len(list))
	for _, a := range list {
		if a.Filename == "" {
			return nil, fmt.Errorf("%w: attachment is missing filename", ErrAttachmentIssue)
		}
		out = append(out, attachment{
			Content:  a.Content,
			Filename: a.Filename,
			Type:     "text/plain",
		})
	}
	return out, nil
}
