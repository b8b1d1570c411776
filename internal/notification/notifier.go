// Package notification provides message delivery to external channels
// (Telegram chats, webhooks) for broadcast cycles.
package notification

import (
	"context"
	"log"
)

// Notifier is the interface for one delivery target. Targets are
// independent: a failure on one never affects delivery to the others.
type Notifier interface {
	// Name identifies the target for logging and metrics.
	Name() string

	// Send delivers an HTML-formatted message. Returns error if delivery fails.
	Send(ctx context.Context, text string) error
}

// LogNotifier is a simple notifier that logs messages (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Send(ctx context.Context, text string) error {
	log.Printf("[notify] %s", text)
	return nil
}
