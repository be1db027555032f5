package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/config"
)

// SMTPMailer sends HTML mail through an authenticated SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
	logger *zap.Logger
}

// NewSMTPMailer creates the SMTP client. No connection is made until the first send.
func NewSMTPMailer(cfg *config.MailConfig, logger *zap.Logger) (*SMTPMailer, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("mail: smtp mode requires username and password")
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("mail: create smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{client: client, from: from, logger: logger}, nil
}

// SendEmail wraps body in the office letterhead and sends it.
func (m *SMTPMailer) SendEmail(ctx context.Context, to, subject, body string) Result {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return failed(fmt.Errorf("invalid sender: %w", err))
	}
	if err := msg.To(to); err != nil {
		return failed(fmt.Errorf("invalid recipient: %w", err))
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, Letterhead(subject, body))
	msg.AddAlternativeString(mail.TypeTextPlain, subject+"\n\n"+StripHTML(body))

	id := uuid.NewString()
	msg.SetGenHeader(mail.HeaderXMailer, "DA AgriManage")
	msg.SetGenHeader("X-Notification-ID", id)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Warn("email delivery failed", zap.String("to", to), zap.Error(err))
		return failed(err)
	}

	m.logger.Info("email sent", zap.String("to", to), zap.String("id", id))
	return Result{Success: true, ID: id}
}

// Letterhead renders the municipal agriculture office e-mail frame around an HTML fragment.
func Letterhead(subject, body string) string {
	return `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #2d5016 0%, #4a7c59 100%); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">DA AgriManage</h1>
    <p style="color: rgba(255,255,255,0.9); margin: 5px 0;">Municipal Agriculture Office</p>
  </div>
  <div style="padding: 30px; background: #f9f9f9;">
    <h2 style="color: #2d5016;">` + html.EscapeString(subject) + `</h2>
    <div style="background: white; padding: 20px; border-radius: 8px; margin: 20px 0;">
      ` + body + `
    </div>
    <p style="color: #666; font-size: 12px; margin-top: 20px;">
      This is an automated message from DA AgriManage System.<br>
      Please do not reply to this email.
    </p>
  </div>
</div>`
}
