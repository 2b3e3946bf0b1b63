// internal/service/engine.go
package service

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	appErrors "github.com/instadm-io/instadm-backend/internal/errors"
	"github.com/instadm-io/instadm-backend/internal/instagram"
	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/repository"
)

// Settings keys the engine reads.
const (
	SettingAccessToken        = "instagram_access_token"
	SettingCommentReplyPool   = "comment_reply_templates"
	SettingCommentReplyCursor = "comment_reply_index"
)

// Single-account deployment, like the original console. Campaign rows carry
// an account_id so multi-account stays a schema-compatible change.
const defaultAccountID = 1

var webURLPattern = regexp.MustCompile(`(?i)^https?://`)

func isWebURL(s string) bool {
	return webURLPattern.MatchString(strings.TrimSpace(s))
}

// Meta caps generic template titles at 80 characters.
const templateTitleLimit = 80

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

// FollowStatusResolver lets tests stub out the resolver.
type FollowStatusResolver interface {
	Resolve(accessToken string, accountID int, userID, username, sourceTag string) (model.FollowStatus, *instagram.Profile)
	ResolveLive(accessToken string, accountID int, userID, username, sourceTag string) (model.FollowStatus, *instagram.Profile)
}

// Outcome statuses for one (campaign, event) pair.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
	OutcomeRemoved = "removed_inactive_or_invalid"
)

type Outcome struct {
	CampaignID   int    `json:"campaign_id"`
	CampaignName string `json:"campaign_name,omitempty"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	Recipient    string `json:"recipient,omitempty"`
	DmContent    string `json:"dm_content,omitempty"`
	IsFollower   *bool  `json:"is_follower,omitempty"`
}

type EventResult struct {
	Processed bool      `json:"processed"`
	Reason    string    `json:"reason,omitempty"`
	Outcomes  []Outcome `json:"outcomes,omitempty"`
}

// Engine orchestrates campaign matching, follower resolution, message
// composition and the pending-recheck queue for both event kinds.
type Engine struct {
	CampaignRepo repository.CampaignRepositoryInterface
	DmLogRepo    repository.DmLogRepositoryInterface
	FollowRepo   repository.FollowRepositoryInterface
	SettingsRepo repository.SettingsRepositoryInterface
	Resolver     FollowStatusResolver
	Graph        GraphClient

	// Fallback token when the settings table has none (env bootstrap).
	TokenFallback string
}

// AccessToken returns the Instagram token from settings, falling back to
// the configured env value. "" means not configured.
func (e *Engine) AccessToken() string {
	token, err := e.SettingsRepo.Get(SettingAccessToken)
	if err != nil {
		logrus.WithError(err).Warn("settings read for access token failed")
	}
	if token != "" {
		return token
	}
	return e.TokenFallback
}

// HandleCommentEvent processes one incoming comment against every active
// webhook campaign. A missing access token aborts before the campaign loop;
// everything else is isolated per campaign.
func (e *Engine) HandleCommentEvent(event model.CommentEvent) (*EventResult, error) {
	if event.ID == "" || event.Text == "" || event.From.ID == "" {
		return &EventResult{Processed: false, Reason: "missing_comment_data"}, nil
	}

	log := logrus.WithFields(logrus.Fields{
		"comment_id": event.ID,
		"ig_user_id": event.From.ID,
		"media_id":   event.Media.ID,
	})

	// Idempotency: a marker means this comment was already handled by the
	// webhook or polling path.
	if status, err := e.SettingsRepo.ProcessedCommentStatus(event.ID); err != nil {
		log.WithError(err).Warn("idempotency marker read failed")
	} else if status != "" {
		log.WithField("marker", status).Info("comment already processed, skipping")
		return &EventResult{Processed: true, Reason: "already_processed"}, nil
	}

	token := e.AccessToken()
	if token == "" {
		return nil, appErrors.ErrNoAccessToken
	}

	campaigns, err := e.CampaignRepo.ListByMode(model.ExecutionModeWebhook, true)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		log.Info("no active webhook campaigns")
		return &EventResult{Processed: true, Reason: "no_active_campaigns"}, nil
	}

	result := &EventResult{Processed: true}
	markerSet := false

	for _, campaign := range campaigns {
		if !MatchesMedia(campaign, event.Media.ID) {
			result.Outcomes = append(result.Outcomes, Outcome{
				CampaignID: campaign.ID, Status: OutcomeSkipped, Reason: "media_mismatch",
			})
			continue
		}
		if !MatchesTrigger(campaign, event.Text) {
			result.Outcomes = append(result.Outcomes, Outcome{
				CampaignID: campaign.ID, Status: OutcomeSkipped, Reason: "keyword_mismatch",
			})
			continue
		}

		outcome, err := e.processMatchedComment(token, campaign, event, true)
		if err != nil {
			// Only the malformed-payload class propagates: it flags a
			// local construction bug, not an upstream fault.
			return nil, err
		}
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Status == OutcomeSent && !markerSet {
			if err := e.SettingsRepo.MarkCommentProcessed(event.ID, "sent_via_webhook"); err != nil {
				log.WithError(err).Warn("idempotency marker write failed")
			} else {
				markerSet = true
			}
		}
	}

	return result, nil
}

// processMatchedComment runs matched → follower-resolved → message-composed
// → sent|failed|skipped for one campaign. The returned error is non-nil
// only for malformed template payloads.
func (e *Engine) processMatchedComment(token string, campaign *model.Campaign, event model.CommentEvent, allowCta bool) (Outcome, error) {
	username := event.From.Username
	if username == "" {
		username = "unknown"
	}
	accountID := campaign.AccountID
	if accountID == 0 {
		accountID = defaultAccountID
	}

	log := logrus.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"comment_id":  event.ID,
		"ig_username": username,
	})

	status := model.FollowStatusUnknown
	var dmText string

	if campaign.CheckFollower {
		status, _ = e.Resolver.Resolve(token, accountID, event.From.ID, username, model.FollowSourceCommentCheck)
		switch status {
		case model.FollowStatusFollower:
			dmText = campaign.DmFollower
		case model.FollowStatusNonFollower:
			dmText = campaign.DmNonFollower
		default:
			// Unknown: prefer the default template, then non-follower.
			dmText = campaign.DmDefault
			if dmText == "" {
				dmText = campaign.DmNonFollower
			}
		}
	} else {
		dmText = campaign.DmDefault
	}

	followerFlag := followerFlagForLog(campaign, status)

	rendered := RenderTemplate(dmText, TemplateVars{Username: username, Comment: event.Text})
	if rendered == "" {
		log.Info("no DM text configured for branch, skipping")
		return Outcome{CampaignID: campaign.ID, Status: OutcomeSkipped, Reason: "no_dm_text", IsFollower: followerFlag}, nil
	}

	var sendErr error
	cta := campaign.CtaFor(status)
	attachCta := allowCta && campaign.CheckFollower && cta.Enabled

	if attachCta {
		sendErr = e.sendWithCta(token, accountID, campaign, cta, event, username, rendered)
		var malformed *instagram.MalformedPayloadError
		if errors.As(sendErr, &malformed) {
			return Outcome{}, sendErr
		}
	} else {
		sendErr = e.Graph.SendPrivateReply(token, event.ID, rendered)
	}

	entry := &model.DmLog{
		CampaignID:  &campaign.ID,
		IgUserID:    event.From.ID,
		IgUsername:  username,
		CommentID:   event.ID,
		CommentText: event.Text,
		IsFollower:  followerFlag,
		DmSent:      rendered,
	}

	if sendErr != nil {
		entry.Status = model.DmStatusFailed
		entry.ErrorMessage = sendErr.Error()
		if err := e.DmLogRepo.Create(entry); err != nil {
			log.WithError(err).Error("dm log write failed")
		}
		log.WithError(sendErr).Error("DM send failed")
		return Outcome{
			CampaignID: campaign.ID, CampaignName: campaign.Name, Status: OutcomeFailed,
			Reason: sendErr.Error(), Recipient: username, IsFollower: followerFlag,
		}, nil
	}

	entry.Status = model.DmStatusSent
	if err := e.DmLogRepo.Create(entry); err != nil {
		log.WithError(err).Error("dm log write failed")
	}
	log.Info("DM sent")

	if allowCta {
		// Webhook-sourced comments may additionally get a public reply
		// under the comment. Failures never affect the DM outcome.
		e.autoReplyToComment(token, event, username)
	}

	return Outcome{
		CampaignID: campaign.ID, CampaignName: campaign.Name, Status: OutcomeSent,
		Recipient: username, DmContent: rendered, IsFollower: followerFlag,
	}, nil
}

// followerFlagForLog maps the resolution onto the nullable dm_logs column:
// campaigns that never checked stay null, like an unknown result.
func followerFlagForLog(campaign *model.Campaign, status model.FollowStatus) *bool {
	if !campaign.CheckFollower {
		return nil
	}
	return status.Bool()
}

// sendWithCta folds the DM body and the CTA into a single generic template
// message: card title carries the body, subtitle the prompt, plus exactly
// one button. A URL-shaped payload becomes a web_url button with no recheck
// ticket (there is no inbound event to correlate); anything else becomes a
// postback button backed by a pending-recheck ticket.
func (e *Engine) sendWithCta(token string, accountID int, campaign *model.Campaign, cta model.CtaConfig, event model.CommentEvent, username, rendered string) error {
	var button instagram.TemplateButton

	if isWebURL(cta.Payload) {
		button = instagram.TemplateButton{
			Type:  instagram.ButtonTypeWebURL,
			Title: cta.ButtonText,
			URL:   strings.TrimSpace(cta.Payload),
		}
	} else {
		button = instagram.TemplateButton{
			Type:    instagram.ButtonTypePostback,
			Title:   cta.ButtonText,
			Payload: cta.Payload,
		}

		ticket := &model.PendingFollowRecheck{
			AccountID:     accountID,
			IgUserID:      event.From.ID,
			IgUsername:    username,
			CampaignID:    campaign.ID,
			CommentID:     event.ID,
			CommentText:   event.Text,
			CtaButtonText: cta.ButtonText,
			CtaPayload:    cta.Payload,
		}
		if err := e.FollowRepo.UpsertPendingRecheck(ticket); err != nil {
			logrus.WithError(err).WithField("campaign_id", campaign.ID).Error("pending recheck upsert failed")
		}
	}

	payload := instagram.TemplatePayload{
		TemplateType: "generic",
		Elements: []instagram.TemplateElement{{
			Title:    truncateRunes(rendered, templateTitleLimit),
			Subtitle: cta.Prompt,
			Buttons:  []instagram.TemplateButton{button},
		}},
	}

	return e.Graph.SendTemplateMessage(token, event.From.ID, payload)
}

// autoReplyToComment posts a public reply under the triggering comment,
// rotating round-robin through the configured template pool. Best-effort.
func (e *Engine) autoReplyToComment(token string, event model.CommentEvent, username string) {
	raw, err := e.SettingsRepo.Get(SettingCommentReplyPool)
	if err != nil || raw == "" {
		return
	}

	var templates []string
	if err := json.Unmarshal([]byte(raw), &templates); err != nil {
		logrus.WithError(err).Warn("comment reply template pool is not valid JSON")
		return
	}
	active := templates[:0]
	for _, t := range templates {
		if strings.TrimSpace(t) != "" {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return
	}

	cursorRaw, _ := e.SettingsRepo.Get(SettingCommentReplyCursor)
	cursor, _ := strconv.Atoi(cursorRaw)
	cursor = ((cursor % len(active)) + len(active)) % len(active)

	reply := RenderTemplate(active[cursor], TemplateVars{Username: username, Comment: event.Text})
	if err := e.Graph.ReplyToComment(token, event.ID, reply); err != nil {
		logrus.WithError(err).WithField("comment_id", event.ID).Warn("public auto-reply failed")
		return
	}

	next := (cursor + 1) % len(active)
	if err := e.SettingsRepo.Set(SettingCommentReplyCursor, strconv.Itoa(next)); err != nil {
		logrus.WithError(err).Warn("comment reply cursor write failed")
	}
}

// HandleMessagingEvent processes one inbound DM or postback. It only acts
// when the sender has pending follow-recheck tickets and the message looks
// like a CTA response; unrelated messages are ignored.
func (e *Engine) HandleMessagingEvent(event model.MessagingEvent) (*EventResult, error) {
	senderID := event.Sender.ID
	if senderID == "" {
		return &EventResult{Processed: false, Reason: "missing_sender_id"}, nil
	}
	if event.Message != nil && event.Message.IsEcho {
		return &EventResult{Processed: true, Reason: "echo_ignored"}, nil
	}

	log := logrus.WithField("ig_user_id", senderID)

	token := e.AccessToken()
	if token == "" {
		return &EventResult{Processed: false, Reason: "missing_access_token"}, nil
	}

	pending, err := e.FollowRepo.ListPendingRechecks(defaultAccountID, senderID, 5)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return &EventResult{Processed: true, Reason: "no_pending_follow_recheck"}, nil
	}

	if !matchesRecheckTrigger(pending, event) {
		return &EventResult{Processed: true, Reason: "message_without_recheck_trigger"}, nil
	}

	knownUsername := ""
	for _, t := range pending {
		if t.IgUsername != "" {
			knownUsername = t.IgUsername
			break
		}
	}

	status, profile := e.Resolver.ResolveLive(token, defaultAccountID, senderID, knownUsername, model.FollowSourceDmEventCheck)
	if !status.Known() {
		log.Info("follow status still unknown, leaving tickets in place")
		return &EventResult{Processed: true, Reason: "follow_status_unknown"}, nil
	}

	username := knownUsername
	if profile != nil && profile.Username != "" {
		username = profile.Username
	}
	if username == "" {
		username = "user"
	}

	result := &EventResult{Processed: true}

	for _, ticket := range pending {
		campaign := ticket.Campaign
		if campaign == nil || !campaign.IsActive || !campaign.CheckFollower {
			if err := e.FollowRepo.DeletePendingRecheck(ticket.ID); err != nil {
				log.WithError(err).Warn("stale recheck ticket delete failed")
			}
			result.Outcomes = append(result.Outcomes, Outcome{
				CampaignID: ticket.CampaignID, Status: OutcomeRemoved,
			})
			continue
		}

		var raw string
		if status == model.FollowStatusFollower {
			raw = campaign.DmFollower
		} else {
			raw = campaign.DmNonFollower
			if raw == "" {
				raw = campaign.DmDefault
			}
		}
		if raw == "" {
			result.Outcomes = append(result.Outcomes, Outcome{
				CampaignID: campaign.ID, Status: OutcomeSkipped, Reason: "no_dm_text",
			})
			continue
		}

		rendered := RenderTemplate(raw, TemplateVars{Username: username, Comment: ticket.CommentText})

		var sendErr error
		cta := campaign.CtaFor(status)
		if cta.Enabled {
			sendErr = e.sendWithCta(token, defaultAccountID, campaign, cta, model.CommentEvent{
				ID:   ticket.CommentID,
				Text: ticket.CommentText,
				From: model.WebhookUser{ID: senderID, Username: username},
			}, username, rendered)
			var malformed *instagram.MalformedPayloadError
			if errors.As(sendErr, &malformed) {
				return nil, sendErr
			}
		} else {
			sendErr = e.Graph.SendDirectMessage(token, senderID, rendered)
		}

		entry := &model.DmLog{
			CampaignID:  &campaign.ID,
			IgUserID:    senderID,
			IgUsername:  username,
			CommentID:   ticket.CommentID,
			CommentText: ticket.CommentText,
			IsFollower:  status.Bool(),
			DmSent:      rendered,
		}

		if sendErr != nil {
			entry.Status = model.DmStatusFailed
			entry.ErrorMessage = sendErr.Error()
			if err := e.DmLogRepo.Create(entry); err != nil {
				log.WithError(err).Error("dm log write failed")
			}
			result.Outcomes = append(result.Outcomes, Outcome{
				CampaignID: campaign.ID, CampaignName: campaign.Name, Status: OutcomeFailed, Reason: sendErr.Error(),
			})
			continue
		}

		entry.Status = model.DmStatusSent
		if err := e.DmLogRepo.Create(entry); err != nil {
			log.WithError(err).Error("dm log write failed")
		}

		if status == model.FollowStatusFollower {
			if err := e.FollowRepo.DeletePendingRecheck(ticket.ID); err != nil {
				log.WithError(err).Warn("recheck ticket delete failed")
			}
		}

		result.Outcomes = append(result.Outcomes, Outcome{
			CampaignID: campaign.ID, CampaignName: campaign.Name, Status: OutcomeSent,
			Recipient: username, DmContent: rendered, IsFollower: status.Bool(),
		})
	}

	return result, nil
}

// matchesRecheckTrigger decides whether an inbound message corresponds to
// one of the sender's pending CTAs: exact payload match, exact button label
// match, or a follow-related keyword as last resort.
func matchesRecheckTrigger(pending []*model.PendingFollowRecheck, event model.MessagingEvent) bool {
	payload := strings.TrimSpace(event.TriggerPayload())
	text := strings.TrimSpace(event.Text())

	for _, t := range pending {
		ticketPayload := strings.TrimSpace(t.CtaPayload)
		if ticketPayload == "" {
			ticketPayload = model.DefaultNonFollowerCtaPayload
		}
		ticketTitle := strings.TrimSpace(t.CtaButtonText)
		if ticketTitle == "" {
			ticketTitle = model.DefaultNonFollowerCtaTitle
		}

		if payload != "" && payload == ticketPayload {
			return true
		}
		if text != "" && text == ticketTitle {
			return true
		}
	}

	return strings.Contains(text, "팔로우")
}
