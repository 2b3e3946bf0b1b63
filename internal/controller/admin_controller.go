// internal/controller/admin_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/repository"
	"github.com/instadm-io/instadm-backend/internal/service"
)

// AdminController serves the read-mostly data surface of the admin API:
// DM logs, dashboard stats, settings, followers and webhook logs.
type AdminController struct {
	DmLogRepo      repository.DmLogRepositoryInterface
	SettingsRepo   repository.SettingsRepositoryInterface
	FollowRepo     repository.FollowRepositoryInterface
	WebhookLogRepo repository.WebhookLogRepositoryInterface
	Resolver       service.FollowStatusResolver
	Engine         *service.Engine
}

func (c *AdminController) ListDmLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	campaignID, _ := strconv.Atoi(q.Get("campaign_id"))

	logs, err := c.DmLogRepo.List(limit, offset, q.Get("status"), campaignID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if logs == nil {
		logs = []model.DmLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   logs,
		"limit":  limit,
		"offset": offset,
	})
}

func (c *AdminController) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.DmLogRepo.DashboardStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

const maskedValue = "••••••••"

// settingsKeys is the full editable surface. Secrets are masked on read
// and a masked value arriving on write means "keep what is stored".
var settingsKeys = []struct {
	Key    string
	Secret bool
}{
	{"instagram_access_token", true},
	{"webhook_verify_token", true},
	{"telegram_bot_token", true},
	{"telegram_chat_id", false},
	{"instagram_business_id", false},
	{"comment_reply_templates", false},
	{"comment_reply_index", false},
}

func (c *AdminController) GetSettings(w http.ResponseWriter, r *http.Request) {
	out := map[string]string{}
	for _, k := range settingsKeys {
		value, err := c.SettingsRepo.Get(k.Key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if k.Secret && value != "" {
			value = maskedValue
		}
		out[k.Key] = value
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *AdminController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated := 0
	for _, k := range settingsKeys {
		value, ok := body[k.Key]
		if !ok || value == maskedValue {
			continue
		}
		if err := c.SettingsRepo.Set(k.Key, value); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		updated++
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (c *AdminController) ListFollowers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	followers, err := c.FollowRepo.ListFollowers(1, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if followers == nil {
		followers = []model.Follower{}
	}
	writeJSON(w, http.StatusOK, followers)
}

func (c *AdminController) ListWebhookLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	logs, err := c.WebhookLogRepo.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if logs == nil {
		logs = []model.WebhookLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// DebugFollowCheck runs the resolver for an arbitrary user id so an
// operator can inspect what the automation would decide.
func (c *AdminController) DebugFollowCheck(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	token := c.Engine.AccessToken()
	if token == "" {
		writeError(w, http.StatusConflict, "no instagram access token configured")
		return
	}

	status, profile := c.Resolver.ResolveLive(token, 1, userID, r.URL.Query().Get("username"), model.FollowSourceProfileAPI)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":     userID,
		"status":      status.String(),
		"is_follower": status.Bool(),
		"profile":     profile,
	})
}

func (c *AdminController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
