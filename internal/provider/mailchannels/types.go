package mailchannels

import "github.com/shineum/mda-mailchannels/internal/email"

// sendRequest is the top-level request body for the transactional send
// endpoint.
type sendRequest struct {
	Attachments []attachment `json:"attachments,omitempty"`
	Content     []content    `json:"content"`
	dkimInfo
	From             address           `json:"from"`
	Headers          map[string]string `json:"headers,omitempty"`
	Personalizations []personalization `json:"personalizations"`
	ReplyTo          *address          `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	TrackingSettings *trackingSettings `json:"tracking_settings,omitempty"`

	// Transactional is always serialized, null when unset, so the
	// provider sees explicit intent either way.
	Transactional *bool `json:"transactional"`
}

// dkimInfo is the signing-key material for the sender domain. Its fields
// flatten into the enclosing object.
type dkimInfo struct {
	Domain     string `json:"dkim_domain"`
	PrivateKey string `json:"dkim_private_key"`
	Selector   string `json:"dkim_selector"`
}

// personalization bundles one message's recipients and optional
// per-recipient overrides. This pipeline produces exactly one and sets only
// the address lists.
type personalization struct {
	Bcc []address `json:"bcc,omitempty"`
	Cc  []address `json:"cc,omitempty"`
	*dkimInfo
	DynamicTemplateData map[string]any    `json:"dynamic_template_data,omitempty"`
	From                *address          `json:"from,omitempty"`
	Headers             map[string]string `json:"headers,omitempty"`
	ReplyTo             *address          `json:"reply_to,omitempty"`
	Subject             string            `json:"subject,omitempty"`
	To                  []address         `json:"to"`
}

// content is one text or HTML body entry.
type content struct {
	TemplateType string `json:"template_type,omitempty"`
	Type         string `json:"type"`
	Value        string `json:"value"`
}

// attachment is one named binary attachment. Content marshals as base64.
type attachment struct {
	Content  []byte `json:"content"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

// trackingSettings holds the per-message tracking toggles.
type trackingSettings struct {
	ClickTracking *trackingToggle `json:"click_tracking,omitempty"`
	OpenTracking  *trackingToggle `json:"open_tracking,omitempty"`
}

type trackingToggle struct {
	Enable bool `json:"enable"`
}

// address is one mailbox in the wire schema.
type address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

func toWireAddress(a email.Address) address {
	return address{Name: a.Name, Email: a.Email}
}

func toWireAddresses(list []email.Address) []address {
	if len(list) == 0 {
		return nil
	}
	out := make([]address, 0, len(list))
	for _, a := range list {
		out = append(out, toWireAddress(a))
	}
	return out
}
