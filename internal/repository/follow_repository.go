package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/instadm-io/instadm-backend/internal/model"
)

type FollowRepositoryInterface interface {
	GetCachedStatus(accountID int, igUserID string, maxAge time.Duration) (*model.FollowStatusEntry, error)
	SetCachedStatus(entry *model.FollowStatusEntry) error
	UpsertFollower(accountID int, igUserID, igUsername string) error
	ListFollowers(accountID, limit int) ([]model.Follower, error)
	UpsertPendingRecheck(ticket *model.PendingFollowRecheck) error
	ListPendingRechecks(accountID int, igUserID string, limit int) ([]*model.PendingFollowRecheck, error)
	DeletePendingRecheck(id int) error
}

// FollowRepository owns follow-status cache rows, the follower roster
// mirror and the pending-recheck queue.
type FollowRepository struct {
	DB *sql.DB
}

// GetCachedStatus returns the cached answer for (account, user), or nil on
// a miss. maxAge bounds how old an entry may be; 0 disables the bound and
// returns any previously confirmed value.
func (r *FollowRepository) GetCachedStatus(accountID int, igUserID string, maxAge time.Duration) (*model.FollowStatusEntry, error) {
	query := `
		SELECT account_id, ig_user_id, COALESCE(ig_username, ''), is_follower, source, checked_at
		FROM follow_status_cache
		WHERE account_id=$1 AND ig_user_id=$2
	`
	args := []any{accountID, igUserID}
	if maxAge > 0 {
		query += ` AND checked_at > $3`
		args = append(args, time.Now().Add(-maxAge))
	}

	var e model.FollowStatusEntry
	err := r.DB.QueryRow(query, args...).Scan(
		&e.AccountID, &e.IgUserID, &e.IgUsername, &e.IsFollower, &e.Source, &e.CheckedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *FollowRepository) SetCachedStatus(entry *model.FollowStatusEntry) error {
	_, err := r.DB.Exec(`
		INSERT INTO follow_status_cache (account_id, ig_user_id, ig_username, is_follower, source, checked_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		ON CONFLICT (account_id, ig_user_id)
		DO UPDATE SET ig_username = EXCLUDED.ig_username, is_follower = EXCLUDED.is_follower,
			source = EXCLUDED.source, checked_at = CURRENT_TIMESTAMP
	`, entry.AccountID, entry.IgUserID, entry.IgUsername, entry.IsFollower, entry.Source)
	return err
}

// UpsertFollower mirrors a confirmed follower into the roster shown in the
// admin UI.
func (r *FollowRepository) UpsertFollower(accountID int, igUserID, igUsername string) error {
	_, err := r.DB.Exec(`
		INSERT INTO followers_cache (account_id, ig_user_id, ig_username, cached_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (account_id, ig_user_id)
		DO UPDATE SET ig_username = EXCLUDED.ig_username, cached_at = CURRENT_TIMESTAMP
	`, accountID, igUserID, igUsername)
	return err
}

func (r *FollowRepository) ListFollowers(accountID, limit int) ([]model.Follower, error) {
	rows, err := r.DB.Query(`
		SELECT account_id, ig_user_id, COALESCE(ig_username, ''), cached_at
		FROM followers_cache
		WHERE account_id=$1
		ORDER BY cached_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	followers := []model.Follower{}
	for rows.Next() {
		var f model.Follower
		if err := rows.Scan(&f.AccountID, &f.IgUserID, &f.IgUsername, &f.CachedAt); err != nil {
			return nil, err
		}
		followers = append(followers, f)
	}
	return followers, rows.Err()
}

// UpsertPendingRecheck inserts or refreshes a ticket keyed by
// (account, user, campaign). Context fields are last-write-wins.
func (r *FollowRepository) UpsertPendingRecheck(ticket *model.PendingFollowRecheck) error {
	return r.DB.QueryRow(`
		INSERT INTO follow_recheck_pending
			(account_id, ig_user_id, ig_username, campaign_id, comment_id, comment_text, cta_button_text, cta_payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (account_id, ig_user_id, campaign_id)
		DO UPDATE SET ig_username = EXCLUDED.ig_username, comment_id = EXCLUDED.comment_id,
			comment_text = EXCLUDED.comment_text, cta_button_text = EXCLUDED.cta_button_text,
			cta_payload = EXCLUDED.cta_payload, updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, ticket.AccountID, ticket.IgUserID, ticket.IgUsername, ticket.CampaignID,
		ticket.CommentID, ticket.CommentText, ticket.CtaButtonText, ticket.CtaPayload,
	).Scan(&ticket.ID)
}

// ListPendingRechecks returns the oldest tickets for (account, user) joined
// with their owning campaign. Campaign is nil when the campaign row is gone.
func (r *FollowRepository) ListPendingRechecks(accountID int, igUserID string, limit int) ([]*model.PendingFollowRecheck, error) {
	rows, err := r.DB.Query(`
		SELECT p.id, p.account_id, p.ig_user_id, COALESCE(p.ig_username, ''), p.campaign_id,
			COALESCE(p.comment_id, ''), COALESCE(p.comment_text, ''),
			COALESCE(p.cta_button_text, ''), COALESCE(p.cta_payload, ''),
			p.created_at, p.updated_at,
			c.id, c.name, c.check_follower, c.is_active,
			c.dm_default, c.dm_follower, c.dm_non_follower,
			c.cta_follower_enabled, c.cta_follower_button_text, c.cta_follower_payload, c.cta_follower_prompt,
			c.cta_non_follower_enabled, c.cta_non_follower_button_text, c.cta_non_follower_payload, c.cta_non_follower_prompt,
			c.keywords
		FROM follow_recheck_pending p
		LEFT JOIN campaigns c ON p.campaign_id = c.id
		WHERE p.account_id=$1 AND p.ig_user_id=$2
		ORDER BY p.created_at ASC
		LIMIT $3
	`, accountID, igUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []*model.PendingFollowRecheck{}
	for rows.Next() {
		var t model.PendingFollowRecheck
		var (
			campaignID    sql.NullInt64
			name          sql.NullString
			checkFollower sql.NullBool
			isActive      sql.NullBool
			dmDefault     sql.NullString
			dmFollower    sql.NullString
			dmNonFollower sql.NullString
			fEnabled      sql.NullBool
			fButton       sql.NullString
			fPayload      sql.NullString
			fPrompt       sql.NullString
			nEnabled      sql.NullBool
			nButton       sql.NullString
			nPayload      sql.NullString
			nPrompt       sql.NullString
			keywords      sql.NullString
		)

		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.IgUserID, &t.IgUsername, &t.CampaignID,
			&t.CommentID, &t.CommentText, &t.CtaButtonText, &t.CtaPayload,
			&t.CreatedAt, &t.UpdatedAt,
			&campaignID, &name, &checkFollower, &isActive,
			&dmDefault, &dmFollower, &dmNonFollower,
			&fEnabled, &fButton, &fPayload, &fPrompt,
			&nEnabled, &nButton, &nPayload, &nPrompt,
			&keywords,
		); err != nil {
			return nil, err
		}

		if campaignID.Valid {
			c := &model.Campaign{
				ID:            int(campaignID.Int64),
				AccountID:     t.AccountID,
				Name:          name.String,
				CheckFollower: checkFollower.Bool,
				IsActive:      isActive.Bool,
				DmDefault:     dmDefault.String,
				DmFollower:    dmFollower.String,
				DmNonFollower: dmNonFollower.String,
				CtaFollower: model.CtaConfig{
					Enabled: fEnabled.Bool, ButtonText: fButton.String,
					Payload: fPayload.String, Prompt: fPrompt.String,
				},
				CtaNonFollower: model.CtaConfig{
					Enabled: nEnabled.Bool, ButtonText: nButton.String,
					Payload: nPayload.String, Prompt: nPrompt.String,
				},
			}
			if keywords.Valid {
				_ = json.Unmarshal([]byte(keywords.String), &c.Keywords)
			}
			t.Campaign = c
		}
		tickets = append(tickets, &t)
	}
	return tickets, rows.Err()
}

func (r *FollowRepository) DeletePendingRecheck(id int) error {
	res, err := r.DB.Exec(`DELETE FROM follow_recheck_pending WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pending recheck %d not found", id)
	}
	return nil
}

var _ FollowRepositoryInterface = (*FollowRepository)(nil)
