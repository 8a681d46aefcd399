package mail

import (
	"context"
	"io"
)

// Message is one outbound email. Credential mail always has a single
// recipient; Cc and Bcc exist for operator copies.
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
	// Headers are extra MIME headers, e.g. X-CRM-Delivery-Kind. Reserved
	// headers (From, To, Subject, Message-ID) are ignored.
	Headers map[string]string
}

// Mail sends transactional email.
type Mail interface {
	io.Closer
	// Send dispatches msg and returns the Message-ID the provider accepted.
	Send(ctx context.Context, msg Message) (string, error)
}
