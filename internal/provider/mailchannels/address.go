package mailchannels

import (
	"fmt"
	"mime"
	"net/mail"
	"strings"

	"github.com/emersion/go-message/charset"

	"github.com/shineum/mda-mailchannels/internal/email"
)

// addressParser decodes RFC 2047 encoded words in display names, including
// non-UTF-8 charsets.
var addressParser = mail.AddressParser{
	WordDecoder: &mime.WordDecoder{CharsetReader: charset.Reader},
}

// flattenAddresses resolves one or more raw address header values into a
// flat address list. Address groups are expanded into their member
// addresses; the group label is discarded. A value that does not parse as
// an address list is a hard defect, not a recoverable case.
func flattenAddresses(values []string) ([]email.Address, error) {
	var out []email.Address
	for _, v := range values {
		list, err := addressParser.ParseList(v)
		if err != nil {
			return nil, fmt.Errorf("header value %q is not an address list: %w", v, err)
		}
		for _, a := range list {
			out = append(out, email.Address{Name: a.Name, Email: a.Address})
		}
	}
	return out, nil
}

// isAddressGroup reports whether a raw header value uses RFC 5322 group
// syntax ("label: a@b, c@d;"). Groups are flattened for recipient lists but
// rejected for From, which must be a single mailbox.
func isAddressGroup(v string) bool {
	v = strings.TrimSpace(v)
	return strings.HasSuffix(v, ";") && strings.Contains(v, ":")
}

// resolveFrom resolves the From header occurrences to exactly one address.
func resolveFrom(values []string) (email.Address, error) {
	if len(values) == 0 {
		return email.Address{}, fmt.Errorf("%w: 'From' address missing", ErrInvalidFrom)
	}
	for _, v := range values {
		if isAddressGroup(v) {
			return email.Address{}, fmt.Errorf("%w: 'From' address is a group, supply a single address", ErrInvalidFrom)
		}
	}

	list, err := flattenAddresses(values)
	if err != nil {
		return email.Address{}, fmt.Errorf("%w: %v", ErrInvalidFrom, err)
	}
	switch {
	case len(list) == 0:
		return email.Address{}, fmt.Errorf("%w: 'From' header appears empty", ErrInvalidFrom)
	case len(list) > 1:
		return email.Address{}, fmt.Errorf("%w: 'From' is a list of addresses, supply a single address", ErrInvalidFrom)
	}
	if list[0].Email == "" {
		return email.Address{}, fmt.Errorf("%w: 'From' header is missing an email address", ErrInvalidFrom)
	}
	return list[0], nil
}

// resolveReplyTo resolves the Reply-To header occurrences to at most one
// address.
func resolveReplyTo(values []string) (*email.Address, error) {
	list, err := flattenAddresses(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Reply-To: %w", err)
	}
	switch {
	case len(list) == 0:
		return nil, nil
	case len(list) > 1:
		return nil, fmt.Errorf("%w: should only have one Reply-To address", ErrTooManyHeaders)
	}
	return &list[0], nil
}

// senderDomain extracts the domain following the last @ of an email
// address.
func senderDomain(addr string) (string, error) {
	idx := strings.LastIndex(addr, "@")
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrNoSenderDomain, addr)
	}
	return addr[idx+1:], nil
}
