package mailchannels

import (
	"errors"
	"fmt"
)

// Validation errors raised while transforming a message into a send
// request. Every one of them aborts the transformation before any network
// call is made.
var (
	// ErrInvalidFrom is returned when the From header is missing, is a
	// group, carries more than one address, or lacks an email part.
	ErrInvalidFrom = errors.New("invalid From header")

	// ErrNoSenderDomain is returned when the From email has no
	// @-delimited domain.
	ErrNoSenderDomain = errors.New("sender email has no domain")

	// ErrMissingHeader is returned when Subject or To is absent or empty.
	ErrMissingHeader = errors.New("required header missing")

	// ErrTooManyHeaders is returned on multiple Subject headers or
	// multiple Reply-To addresses.
	ErrTooManyHeaders = errors.New("too many header values")

	// ErrAttachmentIssue is returned for an attachment without a
	// filename or a body part without usable content type information.
	ErrAttachmentIssue = errors.New("attachment or body part issue")

	// ErrInvalidUTF8 is returned when a body part's bytes are not valid
	// UTF-8.
	ErrInvalidUTF8 = errors.New("body is not valid UTF-8")

	// ErrMalformedHeaderValue is returned when a configured value cannot
	// be sent as an HTTP header.
	ErrMalformedHeaderValue = errors.New("malformed header value")
)

// APIError is a non-success response from the send endpoint. It carries the
// HTTP status code and the response body for operator diagnosis.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailchannels API error (HTTP %d): %s", e.StatusCode, e.Body)
}
