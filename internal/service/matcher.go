// internal/service/matcher.go
package service

import (
	"strings"

	"github.com/instadm-io/instadm-backend/internal/model"
)

// MatchCampaigns selects the campaigns applicable to a comment. A campaign
// matches when its target media is unset or equals the comment's media, and
// its trigger fires on the comment text. Campaigns match independently: one
// comment may fire several.
func MatchCampaigns(campaigns []*model.Campaign, mediaID, commentText string) []*model.Campaign {
	matched := []*model.Campaign{}
	for _, c := range campaigns {
		if !MatchesMedia(c, mediaID) {
			continue
		}
		if !MatchesTrigger(c, commentText) {
			continue
		}
		matched = append(matched, c)
	}
	return matched
}

// MatchesMedia reports whether the campaign targets the given media. A nil
// target means "all posts".
func MatchesMedia(c *model.Campaign, mediaID string) bool {
	return c.IgMediaID == nil || *c.IgMediaID == "" || *c.IgMediaID == mediaID
}

// MatchesTrigger reports whether the comment text fires the campaign's
// trigger. Keyword matching is a case-insensitive substring check with OR
// semantics across keywords.
func MatchesTrigger(c *model.Campaign, commentText string) bool {
	if c.TriggerType != model.TriggerKeyword {
		return true
	}

	text := strings.ToLower(commentText)
	for _, kw := range c.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
