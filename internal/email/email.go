// Package email sends transactional mail for the directory: nomination
// receipts, reviewer alerts and the pending-nomination digest.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lawdir/directory-api/internal/config"
	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"
)

// ErrNoRecipients is returned when a message has no addresses to send to
var ErrNoRecipients = errors.New("email has no recipients")

// Message is a single outgoing email
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	Tags    map[string]string
}

// Sender delivers email messages
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// NewSender picks the provider from configuration
func NewSender(cfg *config.EmailConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogSender(logger), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend api key is required")
		}
		return NewResendSender(cfg.ResendAPIKey, cfg.FromAddress, logger), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

// ResendSender sends mail through the Resend API
type ResendSender struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewResendSender creates a Resend-backed sender. from must be on a verified domain.
func NewResendSender(apiKey, from string, logger *zap.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg *Message) error {
	to := cleanRecipients(msg.To)
	if len(to) == 0 {
		return ErrNoRecipients
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      to,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	for name, value := range msg.Tags {
		params.Tags = append(params.Tags, resend.Tag{Name: name, Value: value})
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email %q: %w", msg.Subject, err)
	}

	s.logger.Info("email sent",
		zap.String("provider", "resend"),
		zap.String("message_id", sent.Id),
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// LogSender writes messages to the log instead of delivering them. Used in
// development and whenever no provider is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	to := cleanRecipients(msg.To)
	if len(to) == 0 {
		return ErrNoRecipients
	}
	s.logger.Info("email (log provider)",
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}

func cleanRecipients(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
