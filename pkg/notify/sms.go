package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/config"
)

// SemaphoreSMS sends text messages through the Semaphore v4 messages API.
type SemaphoreSMS struct {
	apiURL     string
	apiKey     string
	senderName string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSemaphoreSMS creates the SMS client. httpClient may be nil.
func NewSemaphoreSMS(cfg *config.SMSConfig, httpClient *http.Client, logger *zap.Logger) (*SemaphoreSMS, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sms: semaphore mode requires api_key")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &SemaphoreSMS{
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		senderName: cfg.SenderName,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type semaphoreRequest struct {
	APIKey     string `json:"apikey"`
	Number     string `json:"number"`
	Message    string `json:"message"`
	SenderName string `json:"sendername,omitempty"`
}

type semaphoreMessage struct {
	MessageID int    `json:"message_id"`
	Status    string `json:"status"`
}

// SendSMS posts one message. Non-2xx responses and transport errors are failures.
func (s *SemaphoreSMS) SendSMS(ctx context.Context, to, text string) Result {
	number := NormalizePhone(to)
	if number == "" {
		return Result{Success: false, Error: "empty phone number"}
	}

	payload, err := json.Marshal(semaphoreRequest{
		APIKey:     s.apiKey,
		Number:     number,
		Message:    text,
		SenderName: s.senderName,
	})
	if err != nil {
		return failed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return failed(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("sms delivery failed", zap.String("to", number), zap.Error(err))
		return failed(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("sms rejected by gateway",
			zap.String("to", number),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return Result{Success: false, Error: fmt.Sprintf("gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var messages []semaphoreMessage
	id := ""
	if err := json.Unmarshal(body, &messages); err == nil && len(messages) > 0 {
		id = strconv.Itoa(messages[0].MessageID)
	}

	s.logger.Info("sms sent", zap.String("to", number), zap.String("id", id))
	return Result{Success: true, ID: id}
}

// NormalizePhone keeps digits and '+' only.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
