package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier emails the entrant when they join the waitlist. Other kinds
// have no email and are skipped.
type SMTPNotifier struct {
	sender mailSender
	from   string
}

// NewSMTPNotifier dials host:port with the given credentials on every send.
func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{sender: gomail.NewDialer(host, port, username, password), from: from}
}

// Send emails message.Destination.
func (n *SMTPNotifier) Send(ctx context.Context, message Message) error {
	if message.Kind != KindWaitlistJoined || message.Destination == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", message.Destination)
	m.SetHeader("Subject", message.Subject)
	m.SetBody("text/plain", message.Body)
	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send %s email: %w", message.Kind, err)
	}
	return nil
}
