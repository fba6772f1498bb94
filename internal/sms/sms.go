package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sender delivers a verification code to a phone number.
type Sender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// GatewayClient posts messages to an HTTP SMS gateway.
type GatewayClient struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
}

func NewGatewayClient(baseURL, apiKey, from string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *GatewayClient) SendCode(ctx context.Context, phone, code string) error {
	if c.apiKey == "" {
		return fmt.Errorf("SMS_API_KEY missing")
	}
	body := map[string]string{
		"to":   phone,
		"from": c.from,
		"text": fmt.Sprintf("NetChi verification code: %s", code),
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		bs, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sms gateway error %d: %s", resp.StatusCode, strings.TrimSpace(string(bs)))
	}
	return nil
}

// LogSender records deliveries in the log instead of sending them. Used when
// no gateway key is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendCode(_ context.Context, phone, _ string) error {
	s.log.Info("sms delivery skipped, no gateway configured", zap.String("phone", phone))
	return nil
}

// New picks the gateway client when apiKey is set, the log sender otherwise.
func New(baseURL, apiKey, from string, timeout time.Duration, log *zap.Logger) Sender {
	if apiKey == "" {
		return NewLogSender(log)
	}
	return NewGatewayClient(baseURL, apiKey, from, timeout)
}
