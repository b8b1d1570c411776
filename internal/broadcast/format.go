package broadcast

import (
	"fmt"
	"html"
	"strings"

	"finintelbot/internal/model"
)

// FormatNews renders one news item as a Telegram HTML message.
func FormatNews(item model.NewsItem) string {
	return fmt.Sprintf("<b>%s</b>\n<i>%s</i>\n%s",
		html.EscapeString(item.Title),
		html.EscapeString(item.Source),
		item.Link)
}

// FormatSignal renders a trade signal as a Telegram HTML message.
func FormatSignal(sig model.Signal) string {
	direction := "Buy"
	if sig.Side == model.SideSell {
		direction = "Sell"
	}
	lines := []string{
		fmt.Sprintf("📊 <b>%s</b> — technical signal", html.EscapeString(sig.Symbol)),
		fmt.Sprintf("Direction: <b>%s</b>", direction),
		fmt.Sprintf("Entry: <code>%.2f</code>  |  SL: <code>%.2f</code>  |  TP: <code>%.2f</code>  |  R:R ~ <b>%.1f</b>",
			sig.Entry, sig.Stop, sig.TakeProfit, sig.RiskReward),
		fmt.Sprintf("Reason: %s", html.EscapeString(sig.Reason)),
		"—",
		"<i>Note: informational only, not financial advice. Manage your risk (≤1% per trade).</i>",
	}
	return strings.Join(lines, "\n")
}
