package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// TelegramNotifier sends cycle summaries to a Telegram chat
type TelegramNotifier struct {
	token  string
	chatID string
	client *http.Client
	logger *logrus.Logger
}

type telegramSendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// NewTelegramNotifier creates a Telegram notifier
func NewTelegramNotifier(token, chatID string, logger *logrus.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send posts one message to the configured chat
func (t *TelegramNotifier) Send(ctx context.Context, message string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("telegram notifier missing token or chat id")
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", url.PathEscape(t.token))
	body, err := json.Marshal(telegramSendMessageRequest{ChatID: t.chatID, Text: message})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram responded with status %d", resp.StatusCode)
	}

	t.logger.WithField("chat_id", t.chatID).Debug("Sent notification")
	return nil
}
