package mailchannels

import (
	"log/slog"
	"net/textproto"

	"github.com/shineum/mda-mailchannels/internal/email"
)

// reservedHeaders are the header names the MailChannels API refuses as
// custom headers. Each is either consumed into a structured request field
// or discarded outright; none is forwarded as a pass-through header.
// Keys are in Go's canonical MIME header form.
var reservedHeaders = map[string]struct{}{
	"Arc-Authentication-Results": {}, // discarded
	"Bcc":                        {}, // becomes personalization bcc
	"Cc":                         {}, // becomes personalization cc
	"Content-Transfer-Encoding":  {}, // superseded by content entries
	"Content-Type":               {}, // superseded by content entries
	"Dkim-Signature":             {}, // discarded, message is signed after submission
	"From":                       {}, // becomes top-level from
	"Message-Id":                 {}, // discarded
	"Received":                   {}, // discarded
	"Reply-To":                   {}, // becomes top-level reply_to
	"Subject":                    {}, // becomes top-level subject
	"To":                         {}, // becomes personalization to
}

// isReserved reports whether the named header belongs to the reserved set,
// regardless of its wire casing.
func isReserved(name string) bool {
	_, ok := reservedHeaders[textproto.CanonicalMIMEHeaderKey(name)]
	return ok
}

// headerSets is the result of partitioning a message's headers.
type headerSets struct {
	// reserved maps canonical header name to every value occurrence, in
	// wire order.
	reserved map[string][]string

	// passthrough maps header name (wire casing) to its value. On
	// duplicates the last value wins.
	passthrough map[string]string
}

// classifyHeaders partitions the message's headers into the reserved set,
// keyed canonically with all occurrences kept, and the pass-through set
// forwarded to the API as custom headers.
func classifyHeaders(msg *email.Message) headerSets {
	sets := headerSets{
		reserved:    make(map[string][]string),
		passthrough: make(map[string]string),
	}

	for _, h := range msg.Headers {
		if isReserved(h.Name) {
			key := textproto.CanonicalMIMEHeaderKey(h.Name)
			sets.reserved[key] = append(sets.reserved[key], h.Value)
			slog.Debug("header reserved", "name", h.Name)
			continue
		}
		sets.passthrough[h.Name] = h.Value
		slog.Debug("header passed through", "name", h.Name)
	}

	return sets
}
