package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/sunrise-academy/portal-api/pkg/config"
)

// Message is a plain-text notification email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string
}

// Mailer delivers notification messages. Implementations must not block the
// caller on downstream failures; errors are for logging only.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewFromConfig selects a backend from configuration. Anything other than
// "sendgrid" falls back to the console mailer.
func NewFromConfig(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Provider == "sendgrid" && cfg.SendGridKey != "" {
		return &sendgridMailer{
			client: sendgrid.NewSendClient(cfg.SendGridKey),
			from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
			logger: logger,
		}
	}
	return &consoleMailer{logger: logger, fromName: cfg.FromName, fromAddress: cfg.FromAddress}
}

type sendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

func (m *sendgridMailer) Send(_ context.Context, msg Message) error {
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	mail := sgmail.NewSingleEmail(m.from, msg.Subject, to, msg.Body, "")
	resp, err := m.client.Send(mail)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	m.logger.Debug("mail sent", zap.String("to", msg.ToEmail), zap.String("subject", msg.Subject))
	return nil
}

type consoleMailer struct {
	logger      *zap.Logger
	fromName    string
	fromAddress string
}

func (m *consoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("mail (console)",
		zap.String("from", fmt.Sprintf("%s <%s>", m.fromName, m.fromAddress)),
		zap.String("to", fmt.Sprintf("%s <%s>", msg.ToName, msg.ToEmail)),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
