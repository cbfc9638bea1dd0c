// Package messenger delivers a rendered greeting image and its caption to a
// phone number through one of several transports.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tartampluch/go-wishes/internal/config"
)

// ErrUnknownKind is returned by New for an unsupported transport name.
var ErrUnknownKind = errors.New("unknown messenger kind")

// Messenger sends one greeting. Implementations must honour ctx cancellation
// and return an error for any delivery they cannot confirm.
type Messenger interface {
	Send(ctx context.Context, phone, imagePath, caption string) error
	Name() string
}

// Kinds lists the transport names New accepts.
func Kinds() []string {
	return []string{config.MessengerDryRun, config.MessengerWebhook, config.MessengerSMTP, config.MessengerIMessage}
}

// New builds the transport selected in settings. secret is the webhook token
// or SMTP password read from the keyring; it may be empty.
func New(s config.MessengerSettings, secret string) (Messenger, error) {
	switch strings.ToLower(strings.TrimSpace(s.Kind)) {
	case "", config.MessengerDryRun:
		return DryRun{}, nil
	case config.MessengerWebhook:
		if s.WebhookURL == "" {
			return nil, errors.New(config.ErrWebhookURLEmpty)
		}
		return NewWebhook(s.WebhookURL, secret), nil
	case config.MessengerSMTP:
		if s.SMTPHost == "" || s.Gateway == "" {
			return nil, errors.New(config.ErrSMTPIncomplete)
		}
		return &SMTP{
			Host:     s.SMTPHost,
			Port:     s.SMTPPort,
			Security: s.SMTPSecurity,
			User:     s.SMTPUser,
			Password: secret,
			From:     s.SMTPFrom,
			Gateway:  s.Gateway,
		}, nil
	case config.MessengerIMessage:
		return &IMessage{Service: s.IMessageService}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
}

// DryRun logs what would be sent and always succeeds.
type DryRun struct{}

// Name implements Messenger.
func (DryRun) Name() string { return config.MessengerDryRun }

// Send implements Messenger.
func (DryRun) Send(ctx context.Context, phone, imagePath, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.Info(config.MsgDryRunSend,
		config.LogKeyComponent, config.CompMessenger,
		config.LogKeyPhone, phone,
		config.LogKeyFile, imagePath,
		config.LogKeyCaption, caption)
	return nil
}

// digits keeps only the ASCII digits of a phone number, for transports that
// address by number ("+33 6-12" -> "33612").
func digits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
