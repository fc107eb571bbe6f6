// Package parser turns one raw RFC 5322 message into the email.Message model.
//
// Parsing is delegated to go-message, which handles MIME multipart nesting,
// transfer-encoding decoding, and charset conversion. The parser preserves
// header order and does no policy work: classifying headers and validating
// the message against the delivery API's contract happens in the provider.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/shineum/mda-mailchannels/internal/email"
)

// ErrNoHeaders is returned when the input bytes do not parse as a MIME
// message at all.
var ErrNoHeaders = errors.New("message has no parseable headers")

// Parse parses a raw RFC 5322 message into an email.Message. Headers are
// kept in wire order with line continuations removed. Text parts land in
// Inlines; attached files and non-text inline parts land in Attachments.
// Parts are collected in document order, transfer-decoded.
func Parse(raw []byte) (*email.Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// An unknown charset only affects text decoding; the message
		// structure is still usable.
		if !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoHeaders, err)
		}
		slog.Warn("unknown charset in message, content kept undecoded",
			"error", err,
		)
	}
	defer mr.Close()

	result := &email.Message{}

	fields := mr.Header.Fields()
	for fields.Next() {
		result.Headers = append(result.Headers, email.Header{
			Name:  fields.Key(),
			Value: unfold(fields.Value()),
		})
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				slog.Warn("unknown charset in part, content kept undecoded",
					"error", err,
				)
			} else {
				return nil, fmt.Errorf("failed to read message part: %w", err)
			}
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, params, ctErr := h.ContentType()
			if ctErr != nil {
				slog.Warn("unparseable part content type",
					"error", ctErr,
				)
				ct = ""
			}
			// go-message presumes text/plain for a part declaring no
			// Content-Type at all; keep the absence visible instead.
			if h.Get("Content-Type") == "" {
				ct = ""
			}
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read body part: %w", err)
			}
			// A non-text inline part (a cid-referenced image in an
			// HTML mail, say) travels as an attachment.
			if ct != "" && !isTextType(ct) {
				result.Attachments = append(result.Attachments, email.Attachment{
					Filename:    inlineFilename(h, params),
					ContentType: ct,
					Content:     body,
				})
				continue
			}
			result.Inlines = append(result.Inlines, email.BodyPart{
				ContentType: ct,
				Body:        body,
			})

		case *mail.AttachmentHeader:
			filename, fnErr := h.Filename()
			if fnErr != nil {
				slog.Warn("unparseable attachment filename",
					"error", fnErr,
				)
				filename = ""
			}
			ct, _, ctErr := h.ContentType()
			if ctErr != nil {
				ct = ""
			}
			content, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read attachment: %w", err)
			}
			result.Attachments = append(result.Attachments, email.Attachment{
				Filename:    filename,
				ContentType: ct,
				Content:     content,
			})
		}
	}

	return result, nil
}

// isTextType reports whether the media type names a text body, with or
// without a subtype.
func isTextType(ct string) bool {
	return ct == "text" || strings.HasPrefix(ct, "text/")
}

// inlineFilename recovers a filename for an inline non-text part from its
// Content-Disposition parameters, falling back to the Content-Type name
// parameter. May be empty; the delivery provider owns the filename rule.
func inlineFilename(h *mail.InlineHeader, params map[string]string) string {
	if _, dparams, err := h.ContentDisposition(); err == nil {
		if f := dparams["filename"]; f != "" {
			return f
		}
	}
	return params["name"]
}

// unfold removes the CR and LF characters a folded header value carries.
// The whitespace that starts each continuation line is kept, so folded
// words stay separated.
func unfold(v string) string {
	v = strings.NewReplacer("\r", "", "\n", "").Replace(v)
	return strings.TrimSpace(v)
}
