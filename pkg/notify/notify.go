// Package notify delivers best-effort e-mail and SMS messages.
//
// Delivery failures are reported as a Result value, never as an error: callers tally
// outcomes per recipient and carry on.
package notify

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/config"
)

// Result outcome of one delivery attempt.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func failed(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

// EmailSender sends one e-mail. body is HTML.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) Result
}

// SMSSender sends one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) Result
}

// Gateway both channels.
type Gateway interface {
	EmailSender
	SMSSender
}

// Dispatcher composes independent channel senders into one Gateway.
type Dispatcher struct {
	Email EmailSender
	SMS   SMSSender
}

// SendEmail delegates to the e-mail channel.
func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, body string) Result {
	return d.Email.SendEmail(ctx, to, subject, body)
}

// SendSMS delegates to the SMS channel.
func (d *Dispatcher) SendSMS(ctx context.Context, to, text string) Result {
	return d.SMS.SendSMS(ctx, to, text)
}

// New builds the gateway named by configuration. A "log" mode is an explicit choice, not a fallback.
func New(mailCfg *config.MailConfig, smsCfg *config.SMSConfig, logger *zap.Logger) (*Dispatcher, error) {
	d := &Dispatcher{}

	switch mailCfg.Mode {
	case config.MailModeSMTP:
		mailer, err := NewSMTPMailer(mailCfg, logger)
		if err != nil {
			return nil, err
		}
		d.Email = mailer
	case config.GatewayModeLog:
		d.Email = NewLogMailer(logger)
	default:
		return nil, fmt.Errorf("unsupported mail mode %q", mailCfg.Mode)
	}

	switch smsCfg.Mode {
	case config.SMSModeSemaphore:
		sms, err := NewSemaphoreSMS(smsCfg, nil, logger)
		if err != nil {
			return nil, err
		}
		d.SMS = sms
	case config.GatewayModeLog:
		d.SMS = NewLogSMS(logger)
	default:
		return nil, fmt.Errorf("unsupported sms mode %q", smsCfg.Mode)
	}

	return d, nil
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`[ \t]+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

// StripHTML reduces an HTML body to plain text for SMS.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = spacePattern.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}
