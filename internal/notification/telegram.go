package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TelegramNotifier sends messages to one chat via the Telegram Bot API.
type TelegramNotifier struct {
	botToken       string
	chatID         string
	disablePreview bool
	client         *http.Client
}

// NewTelegramNotifier creates a Telegram notifier for one target chat.
// botToken: Bot API token from @BotFather
// chatID: Target chat/group/channel ID
// disablePreview: suppress link previews (used for signal messages)
func NewTelegramNotifier(botToken, chatID string, disablePreview bool) *TelegramNotifier {
	return &TelegramNotifier{
		botToken:       botToken,
		chatID:         chatID,
		disablePreview: disablePreview,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (t *TelegramNotifier) Name() string { return "telegram:" + t.chatID }

func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	body, _ := json.Marshal(map[string]interface{}{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": t.disablePreview,
	})

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	return nil
}
