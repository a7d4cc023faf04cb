package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"slotguard/internal/monitor"
)

// Notification carries the context of one health transition.
type Notification struct {
	At       time.Time
	Previous monitor.NetworkHealth
	Current  monitor.NetworkHealth
	Slot     uint64
	Sources  int
	Network  string
}

// Notifier delivers health transition alerts.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram alerter.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify sends the rendered transition through the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram responded with status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().
		Str("previous", note.Previous.String()).
		Str("current", note.Current.String()).
		Uint64("slot", note.Slot).
		Msg("health alert sent (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[SlotGuard Health Alert]\n")
	builder.WriteString(fmt.Sprintf("Time: %s UTC\n", note.At.UTC().Format(time.RFC3339)))
	if note.Network != "" {
		builder.WriteString(fmt.Sprintf("Network: %s\n", note.Network))
	}
	builder.WriteString(fmt.Sprintf("Health: %s -> %s\n", note.Previous, note.Current))
	builder.WriteString(fmt.Sprintf("Slot: %d\n", note.Slot))
	if note.Sources > 0 {
		builder.WriteString(fmt.Sprintf("Sources: %d\n", note.Sources))
	}
	switch note.Current {
	case monitor.Halted:
		builder.WriteString("Verification requests are being rejected until the network recovers.\n")
	case monitor.Forked:
		builder.WriteString("Sources disagree on the chain head; risk scores are elevated.\n")
	case monitor.Healthy:
		builder.WriteString("Network recovered; normal verification resumed.\n")
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
