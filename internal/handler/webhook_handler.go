// internal/handler/webhook_handler.go
package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/notify"
	"github.com/instadm-io/instadm-backend/internal/repository"
	"github.com/instadm-io/instadm-backend/internal/service"
)

// SettingWebhookVerifyToken can override the env verify token at runtime.
const SettingWebhookVerifyToken = "webhook_verify_token"

const maxWebhookBody = 1 << 20

// EventEngine is the slice of the processing engine the handler fans
// events into.
type EventEngine interface {
	HandleCommentEvent(event model.CommentEvent) (*service.EventResult, error)
	HandleMessagingEvent(event model.MessagingEvent) (*service.EventResult, error)
}

// WebhookHandler terminates Meta's webhook callbacks: the GET verification
// handshake and the POST event deliveries.
type WebhookHandler struct {
	Engine         EventEngine
	SettingsRepo   repository.SettingsRepositoryInterface
	WebhookLogRepo repository.WebhookLogRepositoryInterface
	Telegram       *notify.TelegramNotifier
	Publisher      *notify.EventPublisher

	// Fallback when the settings table has no verify token.
	VerifyTokenFallback string
}

func (h *WebhookHandler) verifyToken() string {
	if h.SettingsRepo != nil {
		if token, err := h.SettingsRepo.Get(SettingWebhookVerifyToken); err == nil && token != "" {
			return token
		}
	}
	return h.VerifyTokenFallback
}

// Verify answers Meta's subscription handshake: echo hub.challenge when
// hub.mode is "subscribe" and the token matches, 403 otherwise.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken() {
		logrus.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	logrus.WithField("mode", mode).Warn("webhook verification rejected")
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// Receive handles one event delivery. It always answers 200 once the
// payload has been read: Meta treats non-200s as delivery failures and
// retries, and a poison event must not wedge the subscription.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	var payload model.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logrus.WithError(err).Warn("webhook payload is not valid JSON")
		h.logEvent("invalid", string(body), false, "unparseable payload")
		h.ack(w)
		return
	}

	processed := true
	summary := ""

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "comments" {
				continue
			}
			event := change.Value
			if h.Telegram != nil {
				go h.Telegram.NotifyCommentEvent(event.From.Username, event.Text, event.Media.ID)
			}
			result, err := h.Engine.HandleCommentEvent(event)
			if err != nil {
				logrus.WithError(err).Error("comment event processing failed")
				processed = false
				summary = err.Error()
				continue
			}
			if result != nil && result.Reason != "" {
				summary = result.Reason
			}
			h.notifyOutcomes(result)
		}

		for _, msg := range entry.Messaging {
			result, err := h.Engine.HandleMessagingEvent(msg)
			if err != nil {
				logrus.WithError(err).Error("messaging event processing failed")
				processed = false
				summary = err.Error()
				continue
			}
			if result != nil && result.Reason != "" {
				summary = result.Reason
			}
		}
	}

	h.logEvent(eventTypeOf(payload), string(body), processed, summary)
	if h.Publisher.Enabled() {
		go h.Publisher.Publish(eventTypeOf(payload), body)
	}

	h.ack(w)
}

func (h *WebhookHandler) notifyOutcomes(result *service.EventResult) {
	if h.Telegram == nil || result == nil {
		return
	}
	for _, o := range result.Outcomes {
		if o.Status != service.OutcomeSent && o.Status != service.OutcomeFailed {
			continue
		}
		campaign := o.CampaignName
		if campaign == "" {
			campaign = fmt.Sprintf("#%d", o.CampaignID)
		}
		go h.Telegram.NotifyDmResult(campaign, o.Recipient, o.Status, o.Reason)
	}
}

func (h *WebhookHandler) ack(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("EVENT_RECEIVED"))
}

func (h *WebhookHandler) logEvent(eventType, payload string, processed bool, result string) {
	if h.WebhookLogRepo == nil {
		return
	}
	if err := h.WebhookLogRepo.Append(eventType, payload, processed, result); err != nil {
		logrus.WithError(err).Warn("webhook log append failed")
	}
}

func eventTypeOf(payload model.WebhookPayload) string {
	hasComments := false
	hasMessaging := false
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field == "comments" {
				hasComments = true
			}
		}
		if len(entry.Messaging) > 0 {
			hasMessaging = true
		}
	}
	switch {
	case hasComments && hasMessaging:
		return "mixed"
	case hasComments:
		return "comments"
	case hasMessaging:
		return "messaging"
	default:
		return payload.Object
	}
}
