// Package messaging sends outbound messages through the channel gateway.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/platform/config"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// sendTimeout bounds one gateway call.
const sendTimeout = 15 * time.Second

// Client talks to the messaging gateway that owns the WhatsApp, Facebook and
// Instagram channel sessions.
type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	http     *http.Client
	log      *logger.Logger
}

// NewClient creates the gateway client.
func NewClient(cfg config.MessagingConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:  cfg.GetMessagingURL(),
		apiKey:   cfg.GetMessagingKey(),
		deviceID: cfg.GetMessagingDeviceID(),
		http:     &http.Client{Timeout: sendTimeout},
		log:      log,
	}
}

type sendRequest struct {
	Canal     string `json:"canal"`
	To        string `json:"to"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
	DeviceID  string `json:"device_id,omitempty"`
}

// Send delivers one message. A nil error means the gateway accepted it; the
// finalizer persists nothing until then.
func (c *Client) Send(ctx context.Context, params conversation.SendParams) error {
	body, err := json.Marshal(sendRequest{
		Canal:     string(params.Canal),
		To:        params.Contact,
		MessageID: params.MessageID,
		Text:      params.Text,
		DeviceID:  c.deviceID,
	})
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call messaging gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("messaging gateway status %d: %s", resp.StatusCode, detail)
}

// SendSMS delivers a plain operator SMS through the same gateway.
func (c *Client) SendSMS(ctx context.Context, to, text string) error {
	body, err := json.Marshal(map[string]string{"to": to, "text": text})
	if err != nil {
		return fmt.Errorf("encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sms", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("sms gateway status %d: %s", resp.StatusCode, detail)
}
