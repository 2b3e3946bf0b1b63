// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/instadm-io/instadm-backend/internal/errors"
	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/repository"
)

// CampaignController serves the campaign CRUD surface of the admin API.
type CampaignController struct {
	Repo repository.CampaignRepositoryInterface
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := c.Repo.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if campaigns == nil {
		campaigns = []*model.Campaign{}
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	campaign, err := c.Repo.GetByID(id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// campaignPayload is the create/update request body. Pointer fields
// distinguish "absent" from zero values on update.
type campaignPayload struct {
	Name           string           `json:"name"`
	IgMediaID      *string          `json:"ig_media_id"`
	IgMediaURL     *string          `json:"ig_media_url"`
	IgMediaCaption *string          `json:"ig_media_caption"`
	TriggerType    string           `json:"trigger_type"`
	Keywords       []string         `json:"keywords"`
	CheckFollower  bool             `json:"check_follower"`
	DmDefault      string           `json:"dm_default"`
	DmFollower     string           `json:"dm_follower"`
	DmNonFollower  string           `json:"dm_non_follower"`
	CtaFollower    *model.CtaConfig `json:"cta_follower"`
	CtaNonFollower *model.CtaConfig `json:"cta_non_follower"`
	IsActive       *bool            `json:"is_active"`
	ExecutionMode  string           `json:"execution_mode"`
}

func (p *campaignPayload) validate() string {
	if p.Name == "" {
		return "name is required"
	}
	switch p.TriggerType {
	case "", model.TriggerAll, model.TriggerKeyword:
	default:
		return "trigger_type must be 'all' or 'keyword'"
	}
	if p.TriggerType == model.TriggerKeyword && len(p.Keywords) == 0 {
		return "keyword campaigns need at least one keyword"
	}
	switch p.ExecutionMode {
	case "", model.ExecutionModeWebhook, model.ExecutionModePolling:
	default:
		return "execution_mode must be 'webhook' or 'polling'"
	}
	return ""
}

func (p *campaignPayload) apply(campaign *model.Campaign) {
	campaign.Name = p.Name
	campaign.IgMediaID = p.IgMediaID
	campaign.IgMediaURL = p.IgMediaURL
	campaign.IgMediaCaption = p.IgMediaCaption
	campaign.TriggerType = p.TriggerType
	if campaign.TriggerType == "" {
		campaign.TriggerType = model.TriggerAll
	}
	campaign.Keywords = p.Keywords
	if campaign.Keywords == nil {
		campaign.Keywords = []string{}
	}
	campaign.CheckFollower = p.CheckFollower
	campaign.DmDefault = p.DmDefault
	campaign.DmFollower = p.DmFollower
	campaign.DmNonFollower = p.DmNonFollower
	if p.CtaFollower != nil {
		campaign.CtaFollower = *p.CtaFollower
	}
	if p.CtaNonFollower != nil {
		campaign.CtaNonFollower = *p.CtaNonFollower
	}
	if p.IsActive != nil {
		campaign.IsActive = *p.IsActive
	}
	campaign.ExecutionMode = p.ExecutionMode
	if campaign.ExecutionMode == "" {
		campaign.ExecutionMode = model.ExecutionModeWebhook
	}
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body campaignPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := body.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	campaign := &model.Campaign{AccountID: 1, IsActive: true}
	body.apply(campaign)

	if err := c.Repo.Create(campaign); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	campaign, err := c.Repo.GetByID(id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var body campaignPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := body.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	body.apply(campaign)
	if err := c.Repo.Update(campaign); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}
	if err := c.Repo.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ToggleCampaign flips or sets the active flag. An empty body toggles;
// {"is_active": bool} sets explicitly.
func (c *CampaignController) ToggleCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	campaign, err := c.Repo.GetByID(id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	target := !campaign.IsActive
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.IsActive != nil {
		target = *body.IsActive
	}

	if err := c.Repo.SetActive(id, target); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_active": target})
}
