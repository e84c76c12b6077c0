package notify

import (
	"context"
	"fmt"
)

// Sender sends a WhatsApp text message.
type Sender interface {
	SendText(ctx context.Context, phone, message string) error
}

// WhatsApp delivers admin notifications to a WhatsApp contact.
type WhatsApp struct {
	sender  Sender
	contact string
}

// NewWhatsApp creates a WhatsApp admin notifier.
func NewWhatsApp(sender Sender, contact string) (*WhatsApp, error) {
	if sender == nil {
		return nil, fmt.Errorf("notify: whatsapp: sender is required")
	}
	if contact == "" {
		return nil, fmt.Errorf("notify: whatsapp: admin contact is required")
	}
	return &WhatsApp{sender: sender, contact: contact}, nil
}

// Notify implements AdminNotifier.
func (w *WhatsApp) Notify(ctx context.Context, text string) error {
	return w.sender.SendText(ctx, w.contact, text)
}
