// internal/model/webhook.go
package model

import "time"

// WebhookPayload is the envelope Meta posts to the webhook endpoint. One
// delivery carries zero or more entries; each entry may hold comment
// changes and/or messaging events.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Changes   []WebhookChange  `json:"changes,omitempty"`
	Messaging []MessagingEvent `json:"messaging,omitempty"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value CommentEvent `json:"value"`
}

// CommentEvent is the value of a field="comments" change.
type CommentEvent struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	From     WebhookUser  `json:"from"`
	Media    WebhookMedia `json:"media"`
	ParentID string       `json:"parent_id,omitempty"`
}

type WebhookUser struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type WebhookMedia struct {
	ID               string `json:"id"`
	MediaProductType string `json:"media_product_type,omitempty"`
}

// MessagingEvent is one inbound DM, quick-reply or postback item.
type MessagingEvent struct {
	Sender    WebhookUser     `json:"sender"`
	Recipient WebhookUser     `json:"recipient"`
	Timestamp int64           `json:"timestamp"`
	Message   *InboundMessage `json:"message,omitempty"`
	Postback  *Postback       `json:"postback,omitempty"`
}

type InboundMessage struct {
	MID        string      `json:"mid,omitempty"`
	Text       string      `json:"text,omitempty"`
	QuickReply *QuickReply `json:"quick_reply,omitempty"`
	IsEcho     bool        `json:"is_echo,omitempty"`
}

type QuickReply struct {
	Payload string `json:"payload"`
}

type Postback struct {
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload"`
}

// TriggerPayload returns the opaque token carried by a quick reply or
// postback, or "" when the event is a plain message.
func (e *MessagingEvent) TriggerPayload() string {
	if e.Message != nil && e.Message.QuickReply != nil {
		return e.Message.QuickReply.Payload
	}
	if e.Postback != nil {
		return e.Postback.Payload
	}
	return ""
}

// Text returns the plain message text, if any.
func (e *MessagingEvent) Text() string {
	if e.Message != nil {
		return e.Message.Text
	}
	return ""
}

// WebhookLog is a raw-event audit record. Never consulted by business logic.
type WebhookLog struct {
	ID        int       `db:"id" json:"id"`
	EventType string    `db:"event_type" json:"event_type"`
	Payload   string    `db:"payload" json:"payload"`
	Processed bool      `db:"processed" json:"processed"`
	Result    string    `db:"result" json:"result"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
