// Package notify relays error-event summaries to a Telegram chat. It backs
// the Sentry webhook endpoint: incoming error payloads are formatted into a
// short message and posted via the Telegram bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Telegram posts messages to a fixed chat through a bot token.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegram creates a Telegram notifier. Returns a log-only notifier when
// the token is empty, so the webhook endpoint works without credentials.
func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		baseURL: "https://api.telegram.org",
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// WithBaseURL overrides the API origin. Used by tests.
func (t *Telegram) WithBaseURL(url string) *Telegram {
	t.baseURL = url
	return t
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send posts a text message to the configured chat.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if t.token == "" {
		slog.Info("telegram not configured — message logged", "text", text)
		return nil
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("telegram marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// ErrorEvent is the subset of a Sentry webhook payload we relay.
type ErrorEvent struct {
	Project string `json:"project_name"`
	Level   string `json:"level"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// FormatError renders an error event as a short Telegram message.
func FormatError(e ErrorEvent) string {
	level := e.Level
	if level == "" {
		level = "error"
	}
	msg := fmt.Sprintf("[%s] %s: %s", level, e.Project, e.Message)
	if e.URL != "" {
		msg += "\n" + e.URL
	}
	return msg
}
