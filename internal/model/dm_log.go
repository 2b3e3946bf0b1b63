// internal/model/dm_log.go
package model

import "time"

// DM log statuses
const (
	DmStatusSent    = "sent"
	DmStatusFailed  = "failed"
	DmStatusPending = "pending"
)

// DmLog is one send attempt. Rows are append-only: created exactly once per
// processed (campaign, event) pair and never mutated afterwards.
type DmLog struct {
	ID           int       `db:"id" json:"id"`
	CampaignID   *int      `db:"campaign_id" json:"campaign_id"`
	CampaignName string    `json:"campaign_name,omitempty"`
	IgUserID     string    `db:"ig_user_id" json:"ig_user_id"`
	IgUsername   string    `db:"ig_username" json:"ig_username"`
	CommentID    string    `db:"comment_id" json:"comment_id"`
	CommentText  string    `db:"comment_text" json:"comment_text"`
	IsFollower   *bool     `db:"is_follower" json:"is_follower"` // nil = unknown
	DmSent       string    `db:"dm_sent" json:"dm_sent"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DashboardStats is the aggregate view shown on the admin landing page.
type DashboardStats struct {
	TodayDms        int     `json:"todayDms"`
	ActiveCampaigns int     `json:"activeCampaigns"`
	TotalCampaigns  int     `json:"totalCampaigns"`
	SuccessRate     float64 `json:"successRate"`
}
