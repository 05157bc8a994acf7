// AngelaMos | 2026
// mailer.go

package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/carterperez-dev/storefront-api/internal/config"
)

func NewMailer(cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "sendgrid":
		return NewSendGridMailer(cfg.APIKey, cfg.FromAddress, cfg.FromName), nil
	case "postmark":
		return NewPostmarkMailer(cfg.APIKey, cfg.FromAddress, cfg.FromName), nil
	case "log":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

type SendGridMailer struct {
	client   *sendgrid.Client
	fromAddr string
	fromName string
}

func NewSendGridMailer(apiKey, fromAddr, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(msg.Name, msg.To)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}

type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, fromAddr, fromName string) *PostmarkMailer {
	from := fromAddr
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromAddr)
	}
	return &PostmarkMailer{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}
}

func (m *PostmarkMailer) Send(_ context.Context, msg Message) error {
	resp, err := m.client.SendEmail(postmark.Email{
		From:       m.from,
		To:         msg.To,
		Subject:    msg.Subject,
		HtmlBody:   msg.HTML,
		TextBody:   msg.Text,
		Tag:        string(msg.Kind),
		TrackOpens: false,
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode != 0 {
		return fmt.Errorf("postmark send: code %d: %s", resp.ErrorCode, resp.Message)
	}

	return nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email",
		"kind", msg.Kind,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
