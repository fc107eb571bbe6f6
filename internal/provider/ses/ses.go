// Package ses implements a Provider that relays messages via AWS SES v2.
//
// Unlike the MailChannels path, SES carries no DKIM key material and no
// custom-header contract: the parsed message is re-rendered either as a
// simple SES message or, when attachments are present, as a raw MIME
// message. One attempt per invocation, like every provider here.
package ses

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/mda-mailchannels/internal/email"
)

// SESProviderConfig holds the configuration for creating a SESProvider.
type SESProviderConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SESProvider sends emails via the AWS SES v2 API. The envelope sender and
// all recipients come from the message itself.
type SESProvider struct {
	client SendEmailAPI
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a new SESProvider with the given configuration.
func New(ctx context.Context, cfg SESProviderConfig) (*SESProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESProvider{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// NewWithClient creates a SESProvider with a custom client, used for testing.
func NewWithClient(client SendEmailAPI) *SESProvider {
	return &SESProvider{client: client}
}

// Send delivers an email message via AWS SES v2.
// For messages with attachments, it builds a raw MIME message.
// For simple messages, it uses the SES simple email format.
func (s *SESProvider) Send(ctx context.Context, msg *email.Message) error {
	var input *sesv2.SendEmailInput

	if len(msg.Attachments) > 0 {
		raw, err := buildRawMessage(msg)
		if err != nil {
			return fmt.Errorf("failed to build raw message: %w", err)
		}
		input = &sesv2.SendEmailInput{
			FromEmailAddress: aws.String(msg.Get("From")),
			Content: &types.EmailContent{
				Raw: &types.RawMessage{
					Data: raw,
				},
			},
		}
	} else {
		input = buildSimpleInput(msg)
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("SES API request failed: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (s *SESProvider) Name() string {
	return "ses"
}

// buildSimpleInput creates a SES SendEmailInput for messages without
// attachments.
func buildSimpleInput(msg *email.Message) *sesv2.SendEmailInput {
	body := &types.Body{}

	if parts := msg.HTMLParts(); len(parts) > 0 {
		body.Html = &types.Content{
			Data:    aws.String(string(parts[0].Body)),
			Charset: aws.String("UTF-8"),
		}
	}
	if parts := msg.TextParts(); len(parts) > 0 {
		body.Text = &types.Content{
			Data:    aws.String(string(parts[0].Body)),
			Charset: aws.String("UTF-8"),
		}
	}

	dest := &types.Destination{
		ToAddresses:  addressList(msg.Values("To")),
		CcAddresses:  addressList(msg.Values("Cc")),
		BccAddresses: addressList(msg.Values("Bcc")),
	}

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Get("Subject"))
	if err != nil {
		subject = msg.Get("Subject")
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.Get("From")),
		Destination:      dest,
		ReplyToAddresses: addressList(msg.Values("Reply-To")),
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: body,
			},
		},
	}
}

// buildRawMessage re-renders the parsed message as a raw MIME message for
// SES delivery with attachments. Bcc stays out of the rendered headers; SES
// takes it from the envelope.
func buildRawMessage(msg *email.Message) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", msg.Get("From"))
	if vals := msg.Values("To"); len(vals) > 0 {
		fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(vals, ", "))
	}
	if vals := msg.Values("Cc"); len(vals) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(vals, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Get("Subject"))
	if v := msg.Get("Message-Id"); v != "" {
		fmt.Fprintf(&buf, "Message-ID: %s\r\n", v)
	}
	if v := msg.Get("Reply-To"); v != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", v)
	}
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	// Write body parts, HTML before text
	for _, p := range append(msg.HTMLParts(), msg.TextParts()...) {
		contentType := p.ContentType
		if contentType == "" {
			contentType = "text/plain"
		}
		partHeader := make(textproto.MIMEHeader)
		partHeader.Set("Content-Type", contentType+"; charset=UTF-8")
		part, err := writer.CreatePart(partHeader)
		if err != nil {
			return nil, fmt.Errorf("failed to create body part: %w", err)
		}
		part.Write(p.Body)
	}

	// Write attachments with their real declared media type
	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		attHeader := make(textproto.MIMEHeader)
		attHeader.Set("Content-Type", contentType)
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%s", mime.QEncoding.Encode("UTF-8", att.Filename)))

		part, err := writer.CreatePart(attHeader)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}

		encoded := encodeBase64WithLineBreaks(att.Content)
		part.Write([]byte(encoded))
	}

	writer.Close()
	return buf.Bytes(), nil
}

// addressList flattens raw address header values into bare email address
// strings. Values that fail RFC 5322 parsing fall back to a comma split.
func addressList(values []string) []string {
	var out []string
	for _, raw := range values {
		addrs, err := mail.ParseAddressList(raw)
		if err != nil {
			for _, p := range strings.Split(raw, ",") {
				if trimmed := strings.TrimSpace(p); trimmed != "" {
					out = append(out, trimmed)
				}
			}
			continue
		}
		for _, a := range addrs {
			out = append(out, a.Address)
		}
	}
	return out
}

// encodeBase64WithLineBreaks encodes bytes to base64 with 76-character line breaks per RFC 2045.
func encodeBase64WithLineBreaks(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var lines []string
	for i := 0; i < len(encoded); i += 76 {
		end := i + 76
		if end > len(encoded) {
			end = len(encoded)
		}
		lines = append(lines, encoded[i:end])
	}
	return strings.Join(lines, "\r\n")
}
