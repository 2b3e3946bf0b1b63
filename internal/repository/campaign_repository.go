package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	appErrors "github.com/instadm-io/instadm-backend/internal/errors"
	"github.com/instadm-io/instadm-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	List() ([]*model.Campaign, error)
	ListByMode(executionMode string, activeOnly bool) ([]*model.Campaign, error)
	GetByID(id int) (*model.Campaign, error)
	Create(c *model.Campaign) error
	Update(c *model.Campaign) error
	Delete(id int) error
	SetActive(id int, active bool) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `
	c.id, c.account_id, c.name, c.ig_media_id, c.ig_media_url, c.ig_media_caption,
	c.trigger_type, c.keywords, c.check_follower,
	c.dm_default, c.dm_follower, c.dm_non_follower,
	c.cta_follower_enabled, c.cta_follower_button_text, c.cta_follower_payload, c.cta_follower_prompt,
	c.cta_non_follower_enabled, c.cta_non_follower_button_text, c.cta_non_follower_payload, c.cta_non_follower_prompt,
	c.is_active, c.execution_mode, c.created_at, c.updated_at`

const campaignCounters = `
	(SELECT COUNT(*) FROM dm_logs WHERE campaign_id = c.id) AS total_dms,
	(SELECT COUNT(*) FROM dm_logs WHERE campaign_id = c.id AND status = 'sent') AS sent_dms,
	(SELECT COUNT(*) FROM dm_logs WHERE campaign_id = c.id AND status = 'failed') AS failed_dms`

func scanCampaign(row interface{ Scan(...any) error }, withCounters bool) (*model.Campaign, error) {
	var c model.Campaign
	var keywords string

	dest := []any{
		&c.ID, &c.AccountID, &c.Name, &c.IgMediaID, &c.IgMediaURL, &c.IgMediaCaption,
		&c.TriggerType, &keywords, &c.CheckFollower,
		&c.DmDefault, &c.DmFollower, &c.DmNonFollower,
		&c.CtaFollower.Enabled, &c.CtaFollower.ButtonText, &c.CtaFollower.Payload, &c.CtaFollower.Prompt,
		&c.CtaNonFollower.Enabled, &c.CtaNonFollower.ButtonText, &c.CtaNonFollower.Payload, &c.CtaNonFollower.Prompt,
		&c.IsActive, &c.ExecutionMode, &c.CreatedAt, &c.UpdatedAt,
	}
	if withCounters {
		dest = append(dest, &c.TotalDms, &c.SentDms, &c.FailedDms)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(keywords), &c.Keywords); err != nil {
		// Tolerate legacy rows holding malformed keyword JSON.
		c.Keywords = nil
	}
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	return &c, nil
}

// List returns every campaign with derived DM counters, newest first.
func (r *CampaignRepository) List() ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + `,` + campaignCounters + `
		FROM campaigns c
		ORDER BY c.created_at DESC`

	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows, true)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// ListByMode returns campaigns for one execution mode, optionally only
// active ones. The event engine reads its working set through this.
func (r *CampaignRepository) ListByMode(executionMode string, activeOnly bool) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns c WHERE c.execution_mode = $1`
	if activeOnly {
		query += ` AND c.is_active`
	}
	query += ` ORDER BY c.id`

	rows, err := r.DB.Query(query, executionMode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows, false)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + `,` + campaignCounters + `
		FROM campaigns c WHERE c.id = $1`

	c, err := scanCampaign(r.DB.QueryRow(query, id), true)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.AccountID == 0 {
		c.AccountID = 1
	}
	if c.TriggerType == "" {
		c.TriggerType = model.TriggerAll
	}
	if c.ExecutionMode == "" {
		c.ExecutionMode = model.ExecutionModePolling
	}
	keywords, _ := json.Marshal(c.Keywords)

	query := `
		INSERT INTO campaigns (
			account_id, name, ig_media_id, ig_media_url, ig_media_caption,
			trigger_type, keywords, check_follower,
			dm_default, dm_follower, dm_non_follower,
			cta_follower_enabled, cta_follower_button_text, cta_follower_payload, cta_follower_prompt,
			cta_non_follower_enabled, cta_non_follower_button_text, cta_non_follower_payload, cta_non_follower_prompt,
			is_active, execution_mode, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING id
	`
	return r.DB.QueryRow(query,
		c.AccountID, c.Name, c.IgMediaID, c.IgMediaURL, c.IgMediaCaption,
		c.TriggerType, string(keywords), c.CheckFollower,
		c.DmDefault, c.DmFollower, c.DmNonFollower,
		c.CtaFollower.Enabled, c.CtaFollower.ButtonText, c.CtaFollower.Payload, c.CtaFollower.Prompt,
		c.CtaNonFollower.Enabled, c.CtaNonFollower.ButtonText, c.CtaNonFollower.Payload, c.CtaNonFollower.Prompt,
		c.IsActive, c.ExecutionMode, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	keywords, _ := json.Marshal(c.Keywords)

	query := `
		UPDATE campaigns SET
			name=$1, ig_media_id=$2, ig_media_url=$3, ig_media_caption=$4,
			trigger_type=$5, keywords=$6, check_follower=$7,
			dm_default=$8, dm_follower=$9, dm_non_follower=$10,
			cta_follower_enabled=$11, cta_follower_button_text=$12, cta_follower_payload=$13, cta_follower_prompt=$14,
			cta_non_follower_enabled=$15, cta_non_follower_button_text=$16, cta_non_follower_payload=$17, cta_non_follower_prompt=$18,
			is_active=$19, execution_mode=$20, updated_at=NOW()
		WHERE id=$21
	`
	res, err := r.DB.Exec(query,
		c.Name, c.IgMediaID, c.IgMediaURL, c.IgMediaCaption,
		c.TriggerType, string(keywords), c.CheckFollower,
		c.DmDefault, c.DmFollower, c.DmNonFollower,
		c.CtaFollower.Enabled, c.CtaFollower.ButtonText, c.CtaFollower.Payload, c.CtaFollower.Prompt,
		c.CtaNonFollower.Enabled, c.CtaNonFollower.ButtonText, c.CtaNonFollower.Payload, c.CtaNonFollower.Prompt,
		c.IsActive, c.ExecutionMode, c.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	return nil
}

func (r *CampaignRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	return err
}

func (r *CampaignRepository) SetActive(id int, active bool) error {
	res, err := r.DB.Exec(`UPDATE campaigns SET is_active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
