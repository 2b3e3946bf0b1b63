// internal/notify/telegram.go
package notify

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/instadm-io/instadm-backend/internal/repository"
)

// Settings keys for Telegram delivery. Env values act as fallbacks so a
// fresh deployment can notify before anyone touches the settings screen.
const (
	SettingTelegramBotToken = "telegram_bot_token"
	SettingTelegramChatID   = "telegram_chat_id"
)

// TelegramNotifier pushes short operational summaries to a Telegram chat.
// All sends are best-effort: an unreachable bot never affects event
// processing, and an unconfigured notifier silently does nothing.
type TelegramNotifier struct {
	SettingsRepo repository.SettingsRepositoryInterface
	HTTP         *http.Client

	// Fallbacks when the settings table has no values.
	TokenFallback  string
	ChatIDFallback string
}

func NewTelegramNotifier(settingsRepo repository.SettingsRepositoryInterface, token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		SettingsRepo:   settingsRepo,
		HTTP:           &http.Client{Timeout: 10 * time.Second},
		TokenFallback:  token,
		ChatIDFallback: chatID,
	}
}

func (n *TelegramNotifier) credentials() (token, chatID string) {
	if n.SettingsRepo != nil {
		token, _ = n.SettingsRepo.Get(SettingTelegramBotToken)
		chatID, _ = n.SettingsRepo.Get(SettingTelegramChatID)
	}
	if token == "" {
		token = n.TokenFallback
	}
	if chatID == "" {
		chatID = n.ChatIDFallback
	}
	return token, chatID
}

// Send delivers one HTML-formatted message. Returns quietly when the bot
// is not configured.
func (n *TelegramNotifier) Send(text string) {
	token, chatID := n.credentials()
	if token == "" || chatID == "" {
		return
	}

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", token)
	resp, err := n.HTTP.PostForm(endpoint, form)
	if err != nil {
		logrus.WithError(err).Warn("telegram notification failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Warn("telegram notification rejected")
	}
}

// NotifyCommentEvent summarizes an incoming comment webhook.
func (n *TelegramNotifier) NotifyCommentEvent(username, commentText, mediaID string) {
	var b strings.Builder
	b.WriteString("💬 <b>New comment event</b>\n")
	fmt.Fprintf(&b, "From: @%s\n", html.EscapeString(username))
	fmt.Fprintf(&b, "Media: %s\n", html.EscapeString(mediaID))
	fmt.Fprintf(&b, "Text: %s", html.EscapeString(truncate(commentText, 200)))
	n.Send(b.String())
}

// NotifyDmResult summarizes the outcome of one automated DM.
func (n *TelegramNotifier) NotifyDmResult(campaignName, username, status, errMsg string) {
	icon := "✅"
	if status != "sent" {
		icon = "⚠️"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>DM %s</b>\n", icon, html.EscapeString(status))
	fmt.Fprintf(&b, "Campaign: %s\n", html.EscapeString(campaignName))
	fmt.Fprintf(&b, "To: @%s", html.EscapeString(username))
	if errMsg != "" {
		fmt.Fprintf(&b, "\nError: %s", html.EscapeString(truncate(errMsg, 200)))
	}
	n.Send(b.String())
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
