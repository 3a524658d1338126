// Package notify delivers address change notifications by email through the
// MailerSend HTTP API.
package notify

import (
	"context"

	"ipsend/internal/types"
)

// DefaultSubject is the subject of every address change email
const DefaultSubject = "Current Public IP Address"

// Notifier sends a message to the configured recipient
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Message is the subject and plain text body of one notification
type Message struct {
	Subject string
	Body    string
}

// NewIPChangeMessage builds the notification for addr: the default subject
// and the bare address as the body.
func NewIPChangeMessage(addr types.Address) Message {
	return NewIPChangeMessageWithSubject(DefaultSubject, addr)
}

// NewIPChangeMessageWithSubject is NewIPChangeMessage with a custom subject
func NewIPChangeMessageWithSubject(subject string, addr types.Address) Message {
	if subject == "" {
		subject = DefaultSubject
	}
	return Message{
		Subject: subject,
		Body:    addr.String(),
	}
}
