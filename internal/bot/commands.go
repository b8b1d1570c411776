// Package bot handles inbound Telegram commands via long polling.
//
// Commands are thin glue: /start and /help print usage, /id echoes the chat
// ID so operators can add it to the delivery target list.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	pollTimeoutSec = 30
	errorBackoff   = 3 * time.Second
)

const welcomeText = "👋 Hi! I'm FinIntelBot.\n\n" +
	"• Use /id in any chat to get its ID and add it to TELEGRAM_TARGETS.\n" +
	"• I broadcast RSS news and technical trade signals."

const helpText = "Commands:\n" +
	"/start - Welcome message\n" +
	"/help  - This help\n" +
	"/id    - Return the current chat's ID"

// CommandLoop long-polls getUpdates and answers the supported commands.
type CommandLoop struct {
	botToken string
	baseURL  string
	client   *http.Client
	offset   int64
}

// NewCommandLoop creates a command loop for the given bot token.
func NewCommandLoop(botToken string) *CommandLoop {
	return &CommandLoop{
		botToken: botToken,
		baseURL:  "https://api.telegram.org",
		// Timeout must exceed the long-poll window
		client: &http.Client{Timeout: (pollTimeoutSec + 10) * time.Second},
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// Run polls for updates until ctx is cancelled.
func (l *CommandLoop) Run(ctx context.Context) {
	log.Println("[bot] command loop polling...")
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := l.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[bot] getUpdates failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= l.offset {
				l.offset = u.UpdateID + 1
			}
			l.handle(ctx, u)
		}
	}
}

func (l *CommandLoop) getUpdates(ctx context.Context) ([]update, error) {
	u := fmt.Sprintf("%s/bot%s/getUpdates?timeout=%d&offset=%d",
		l.baseURL, l.botToken, pollTimeoutSec, l.offset)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("bot: create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bot: poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bot: unexpected status %d", resp.StatusCode)
	}

	var payload updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("bot: decode: %w", err)
	}
	if !payload.OK {
		return nil, fmt.Errorf("bot: getUpdates not ok")
	}
	return payload.Result, nil
}

func (l *CommandLoop) handle(ctx context.Context, u update) {
	if u.Message == nil {
		return
	}
	cmd := strings.SplitN(u.Message.Text, " ", 2)[0]
	// "/cmd@BotName" also counts
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	var reply string
	switch cmd {
	case "/start":
		reply = welcomeText
	case "/help":
		reply = helpText
	case "/id":
		reply = fmt.Sprintf("This chat's ID is: <code>%d</code>", u.Message.Chat.ID)
	default:
		return
	}

	if err := l.sendMessage(ctx, u.Message.Chat.ID, reply); err != nil {
		log.Printf("[bot] reply to %d failed: %v", u.Message.Chat.ID, err)
	}
}

func (l *CommandLoop) sendMessage(ctx context.Context, chatID int64, text string) error {
	body, _ := json.Marshal(map[string]interface{}{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"text":       text,
		"parse_mode": "HTML",
	})

	u := fmt.Sprintf("%s/bot%s/sendMessage", l.baseURL, l.botToken)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bot: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("bot: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bot: unexpected status %d", resp.StatusCode)
	}
	return nil
}
