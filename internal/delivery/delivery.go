// Package delivery sends produced artifact links to the customer: a direct
// message first when a handle exists, then email only if the direct
// attempt did not itself report success. Dispatch accumulates receipts and
// never fails the pipeline.
package delivery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"routineforge/internal/intake"
)

// Receipt records one channel attempt.
type Receipt struct {
	Channel string `json:"channel"` // direct-message, email
	Target  string `json:"target"`
	Status  string `json:"status"`
	OK      bool   `json:"ok"`
}

// Contact holds the resolvable delivery endpoints for one customer.
type Contact struct {
	Handle string
	Email  string
	Name   string
}

// DirectMessenger sends a chat message to a contact handle.
type DirectMessenger interface {
	Send(ctx context.Context, handle, text string) (Receipt, error)
}

// EmailSender sends an email with text and HTML bodies.
type EmailSender interface {
	Send(ctx context.Context, to, subject, text, html string) (Receipt, error)
}

// DispatcherConfig holds construction parameters for a Dispatcher.
type DispatcherConfig struct {
	Messenger DirectMessenger // optional
	Email     EmailSender     // optional
	Logger    *zap.Logger
}

// Dispatcher orders the notification channels.
type Dispatcher struct {
	messenger DirectMessenger
	email     EmailSender
	logger    *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{messenger: cfg.Messenger, email: cfg.Email, logger: logger}
}

// Dispatch attempts the direct-message channel, then the email fallback
// when the direct attempt did not report success. Returns whatever
// receipts accumulated, possibly none; it never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, contact Contact, links []string) []Receipt {
	var receipts []Receipt
	primaryOK := false

	if d.messenger != nil && contact.Handle != "" && len(links) > 0 {
		receipt, err := d.messenger.Send(ctx, contact.Handle, messageText(contact, links))
		if err != nil {
			d.logger.Warn("direct message failed", zap.Error(err))
			receipt = Receipt{Channel: "direct-message", Target: contact.Handle, Status: err.Error()}
		}
		receipts = append(receipts, receipt)
		primaryOK = receipt.OK
	}

	if !primaryOK && d.email != nil && intake.ValidEmail(contact.Email) && len(links) > 0 {
		subject := "Your routine kit is ready"
		text := messageText(contact, links)
		receipt, err := d.email.Send(ctx, contact.Email, subject, text, htmlBody(contact, links))
		if err != nil {
			d.logger.Warn("email delivery failed", zap.Error(err))
			receipt = Receipt{Channel: "email", Target: contact.Email, Status: err.Error()}
		}
		receipts = append(receipts, receipt)
	}

	d.logger.Info("delivery dispatched",
		zap.Int("links", len(links)),
		zap.Int("receipts", len(receipts)))
	return receipts
}

func messageText(contact Contact, links []string) string {
	greeting := "Hi"
	if contact.Name != "" {
		greeting = "Hi " + contact.Name
	}
	return fmt.Sprintf("%s! Your routine kit is ready:\n%s\n", greeting, strings.Join(links, "\n"))
}

func htmlBody(contact Contact, links []string) string {
	var sb strings.Builder
	sb.WriteString("<p>Your routine kit is ready:</p><ul>")
	for _, l := range links {
		fmt.Fprintf(&sb, `<li><a href="%s">%s</a></li>`, l, l)
	}
	sb.WriteString("</ul>")
	return sb.String()
}
