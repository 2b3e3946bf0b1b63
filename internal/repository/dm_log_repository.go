package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/instadm-io/instadm-backend/internal/model"
)

type DmLogRepositoryInterface interface {
	Create(entry *model.DmLog) error
	List(limit, offset int, status string, campaignID int) ([]model.DmLog, error)
	DashboardStats() (*model.DashboardStats, error)
}

// DmLogRepository appends and reads the immutable DM audit trail.
type DmLogRepository struct {
	DB *sql.DB
}

func (r *DmLogRepository) Create(entry *model.DmLog) error {
	entry.CreatedAt = time.Now()
	if entry.Status == "" {
		entry.Status = model.DmStatusSent
	}

	query := `
		INSERT INTO dm_logs (campaign_id, ig_user_id, ig_username, comment_id, comment_text, is_follower, dm_sent, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRow(query,
		entry.CampaignID, entry.IgUserID, entry.IgUsername,
		entry.CommentID, entry.CommentText, entry.IsFollower,
		entry.DmSent, entry.Status, nullIfEmpty(entry.ErrorMessage), entry.CreatedAt,
	).Scan(&entry.ID)
}

// List returns newest-first logs, optionally filtered by status and/or
// campaign, joined with the owning campaign's name.
func (r *DmLogRepository) List(limit, offset int, status string, campaignID int) ([]model.DmLog, error) {
	query := `
		SELECT dl.id, dl.campaign_id, COALESCE(c.name, ''), dl.ig_user_id, dl.ig_username,
			dl.comment_id, dl.comment_text, dl.is_follower, dl.dm_sent, dl.status,
			COALESCE(dl.error_message, ''), dl.created_at
		FROM dm_logs dl
		LEFT JOIN campaigns c ON dl.campaign_id = c.id
		WHERE 1=1
	`
	args := []any{}

	if status != "" {
		query += fmt.Sprintf(" AND dl.status=$%d", len(args)+1)
		args = append(args, status)
	}
	if campaignID > 0 {
		query += fmt.Sprintf(" AND dl.campaign_id=$%d", len(args)+1)
		args = append(args, campaignID)
	}

	query += fmt.Sprintf(" ORDER BY dl.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.DmLog{}
	for rows.Next() {
		var l model.DmLog
		if err := rows.Scan(
			&l.ID, &l.CampaignID, &l.CampaignName, &l.IgUserID, &l.IgUsername,
			&l.CommentID, &l.CommentText, &l.IsFollower, &l.DmSent, &l.Status,
			&l.ErrorMessage, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *DmLogRepository) DashboardStats() (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}

	if err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM dm_logs WHERE created_at::date = CURRENT_DATE`,
	).Scan(&stats.TodayDms); err != nil {
		return nil, err
	}
	if err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM campaigns WHERE is_active`,
	).Scan(&stats.ActiveCampaigns); err != nil {
		return nil, err
	}
	if err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM campaigns`,
	).Scan(&stats.TotalCampaigns); err != nil {
		return nil, err
	}
	if err := r.DB.QueryRow(`
		SELECT CASE WHEN COUNT(*) > 0
			THEN ROUND(CAST(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END) AS NUMERIC) / COUNT(*) * 100, 1)
			ELSE 0
		END FROM dm_logs
	`).Scan(&stats.SuccessRate); err != nil {
		return nil, err
	}
	return stats, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ DmLogRepositoryInterface = (*DmLogRepository)(nil)
