// internal/model/follow.go
package model

import "time"

// FollowStatus is the tri-state answer to "does this user follow the
// account". Unknown is a first-class outcome and must never be collapsed
// into NonFollower.
type FollowStatus int

const (
	FollowStatusUnknown FollowStatus = iota
	FollowStatusFollower
	FollowStatusNonFollower
)

func (s FollowStatus) Known() bool {
	return s != FollowStatusUnknown
}

// Bool maps the status onto the nullable column shape used by dm_logs.
func (s FollowStatus) Bool() *bool {
	switch s {
	case FollowStatusFollower:
		v := true
		return &v
	case FollowStatusNonFollower:
		v := false
		return &v
	default:
		return nil
	}
}

func (s FollowStatus) String() string {
	switch s {
	case FollowStatusFollower:
		return "follower"
	case FollowStatusNonFollower:
		return "non_follower"
	default:
		return "unknown"
	}
}

// FollowStatusFromBool lifts a tri-state *bool (nil = indeterminate) into a
// FollowStatus.
func FollowStatusFromBool(v *bool) FollowStatus {
	if v == nil {
		return FollowStatusUnknown
	}
	if *v {
		return FollowStatusFollower
	}
	return FollowStatusNonFollower
}

// Source tags recorded with each cached follow-status answer.
const (
	FollowSourceProfileAPI   = "profile_api"
	FollowSourceCommentCheck = "comment_profile_check"
	FollowSourceDmEventCheck = "dm_event_profile_check"
)

// FollowStatusEntry is one memoized follow-status answer, keyed by
// (account_id, ig_user_id).
type FollowStatusEntry struct {
	AccountID  int       `db:"account_id" json:"account_id"`
	IgUserID   string    `db:"ig_user_id" json:"ig_user_id"`
	IgUsername string    `db:"ig_username" json:"ig_username"`
	IsFollower bool      `db:"is_follower" json:"is_follower"`
	Source     string    `db:"source" json:"source"`
	CheckedAt  time.Time `db:"checked_at" json:"checked_at"`
}

// Follower is a roster row mirrored for admin display. Best-effort only.
type Follower struct {
	AccountID  int       `db:"account_id" json:"account_id"`
	IgUserID   string    `db:"ig_user_id" json:"ig_user_id"`
	IgUsername string    `db:"ig_username" json:"ig_username"`
	CachedAt   time.Time `db:"cached_at" json:"cached_at"`
}

// PendingFollowRecheck is a parked "ask again later" ticket created when a
// non-follower was sent a postback CTA. Keyed by (account, user, campaign)
// so re-triggering the same campaign updates instead of duplicating.
type PendingFollowRecheck struct {
	ID            int       `db:"id" json:"id"`
	AccountID     int       `db:"account_id" json:"account_id"`
	IgUserID      string    `db:"ig_user_id" json:"ig_user_id"`
	IgUsername    string    `db:"ig_username" json:"ig_username"`
	CampaignID    int       `db:"campaign_id" json:"campaign_id"`
	CommentID     string    `db:"comment_id" json:"comment_id"`
	CommentText   string    `db:"comment_text" json:"comment_text"`
	CtaButtonText string    `db:"cta_button_text" json:"cta_button_text"`
	CtaPayload    string    `db:"cta_payload" json:"cta_payload"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// Owning campaign, joined on read. Nil when the campaign was deleted.
	Campaign *Campaign `json:"campaign,omitempty"`
}
