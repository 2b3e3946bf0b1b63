// internal/model/campaign.go
package model

import (
	"strings"
	"time"
)

// Execution modes decide which ingestion path evaluates a campaign.
const (
	ExecutionModePolling = "polling"
	ExecutionModeWebhook = "webhook"
)

// Trigger types
const (
	TriggerAll     = "all"
	TriggerKeyword = "keyword"
)

// Fallbacks applied when a CTA branch has no explicit configuration.
const (
	DefaultFollowerCtaTitle      = "팔로워 확인했어요"
	DefaultFollowerCtaPayload    = "FOLLOWER_RECHECK"
	DefaultNonFollowerCtaTitle   = "팔로우 했어요"
	DefaultNonFollowerCtaPayload = "FOLLOW_RECHECK"
	DefaultPostbackCtaPrompt     = "아래 버튼을 눌러 팔로우 상태를 다시 확인해주세요."
	DefaultWebURLCtaPrompt       = "아래 버튼을 눌러 상세 페이지로 이동해주세요."
)

// CtaConfig is the call-to-action attached to one follower branch of a
// campaign DM. Payload is either an opaque postback token or an absolute
// HTTP(S) URL; the engine decides the button type from its shape.
type CtaConfig struct {
	Enabled    bool   `json:"enabled"`
	ButtonText string `json:"button_text"`
	Payload    string `json:"payload"`
	Prompt     string `json:"prompt"`
}

type Campaign struct {
	ID             int        `db:"id" json:"id"`
	AccountID      int        `db:"account_id" json:"account_id"`
	Name           string     `db:"name" json:"name"`
	IgMediaID      *string    `db:"ig_media_id" json:"ig_media_id"`
	IgMediaURL     *string    `db:"ig_media_url" json:"ig_media_url,omitempty"`
	IgMediaCaption *string    `db:"ig_media_caption" json:"ig_media_caption,omitempty"`
	TriggerType    string     `db:"trigger_type" json:"trigger_type"`
	Keywords       []string   `db:"keywords" json:"keywords"`
	CheckFollower  bool       `db:"check_follower" json:"check_follower"`
	DmDefault      string     `db:"dm_default" json:"dm_default"`
	DmFollower     string     `db:"dm_follower" json:"dm_follower"`
	DmNonFollower  string     `db:"dm_non_follower" json:"dm_non_follower"`
	CtaFollower    CtaConfig  `json:"cta_follower"`
	CtaNonFollower CtaConfig  `json:"cta_non_follower"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	ExecutionMode  string     `db:"execution_mode" json:"execution_mode"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	// Derived DM counters, populated by list/get queries.
	TotalDms  int `json:"total_dms"`
	SentDms   int `json:"sent_dms"`
	FailedDms int `json:"failed_dms"`
}

// CtaFor returns the CTA configuration for the given follower branch with
// defaults filled in for blank fields. Unknown follower status uses the
// non-follower branch: that is the branch whose CTA exists to convert.
func (c *Campaign) CtaFor(status FollowStatus) CtaConfig {
	if status == FollowStatusFollower {
		cta := c.CtaFollower
		if strings.TrimSpace(cta.ButtonText) == "" {
			cta.ButtonText = DefaultFollowerCtaTitle
		}
		if strings.TrimSpace(cta.Payload) == "" {
			cta.Payload = DefaultFollowerCtaPayload
		}
		fillPrompt(&cta)
		return cta
	}

	cta := c.CtaNonFollower
	if strings.TrimSpace(cta.ButtonText) == "" {
		cta.ButtonText = DefaultNonFollowerCtaTitle
	}
	if strings.TrimSpace(cta.Payload) == "" {
		cta.Payload = DefaultNonFollowerCtaPayload
	}
	fillPrompt(&cta)
	return cta
}

func fillPrompt(cta *CtaConfig) {
	if strings.TrimSpace(cta.Prompt) != "" {
		return
	}
	lower := strings.ToLower(strings.TrimSpace(cta.Payload))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		cta.Prompt = DefaultWebURLCtaPrompt
		return
	}
	cta.Prompt = DefaultPostbackCtaPrompt
}
