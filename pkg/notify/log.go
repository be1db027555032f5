package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const previewLen = 80

// LogMailer records e-mails in the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mail")}
}

func (m *LogMailer) SendEmail(_ context.Context, to, subject, body string) Result {
	id := "log-" + uuid.NewString()
	m.logger.Info("email logged",
		zap.String("id", id),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("preview", preview(StripHTML(body))),
	)
	return Result{Success: true, ID: id}
}

// LogSMS records text messages in the log instead of sending them.
type LogSMS struct {
	logger *zap.Logger
}

// NewLogSMS creates a LogSMS.
func NewLogSMS(logger *zap.Logger) *LogSMS {
	return &LogSMS{logger: logger.Named("sms")}
}

func (s *LogSMS) SendSMS(_ context.Context, to, text string) Result {
	id := "log-sms-" + uuid.NewString()
	s.logger.Info("sms logged",
		zap.String("id", id),
		zap.String("to", NormalizePhone(to)),
		zap.String("preview", preview(text)),
	)
	return Result{Success: true, ID: id}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen]) + "..."
}
