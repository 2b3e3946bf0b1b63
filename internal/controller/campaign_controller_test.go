package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instadm-io/instadm-backend/internal/controller"
	appErrors "github.com/instadm-io/instadm-backend/internal/errors"
	"github.com/instadm-io/instadm-backend/internal/model"
)

type mockCampaignRepo struct {
	campaigns map[int]*model.Campaign
	nextID    int
	active    map[int]bool
}

func newMockCampaignRepo(campaigns ...*model.Campaign) *mockCampaignRepo {
	repo := &mockCampaignRepo{campaigns: map[int]*model.Campaign{}, nextID: 1, active: map[int]bool{}}
	for _, c := range campaigns {
		repo.campaigns[c.ID] = c
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
	}
	return repo
}

func (m *mockCampaignRepo) List() ([]*model.Campaign, error) {
	var out []*model.Campaign
	for _, c := range m.campaigns {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCampaignRepo) ListByMode(mode string, activeOnly bool) ([]*model.Campaign, error) {
	return nil, nil
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	if c, ok := m.campaigns[id]; ok {
		return c, nil
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	c.ID = m.nextID
	m.nextID++
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) Update(c *model.Campaign) error {
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) Delete(id int) error {
	delete(m.campaigns, id)
	return nil
}

func (m *mockCampaignRepo) SetActive(id int, active bool) error {
	m.active[id] = active
	return nil
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateCampaign(t *testing.T) {
	repo := newMockCampaignRepo()
	c := &controller.CampaignController{Repo: repo}

	body := `{
		"name": "가격 문의",
		"trigger_type": "keyword",
		"keywords": ["가격", "할인"],
		"check_follower": true,
		"dm_follower": "팔로워 혜택!",
		"dm_non_follower": "팔로우 해주세요"
	}`
	req := httptest.NewRequest("POST", "/api/campaigns", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	c.CreateCampaign(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, model.TriggerKeyword, created.TriggerType)
	assert.Equal(t, []string{"가격", "할인"}, created.Keywords)
	assert.True(t, created.IsActive)
	assert.Equal(t, model.ExecutionModeWebhook, created.ExecutionMode)
}

func TestCreateCampaignValidation(t *testing.T) {
	c := &controller.CampaignController{Repo: newMockCampaignRepo()}

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"trigger_type": "all"}`},
		{"keyword without keywords", `{"name": "x", "trigger_type": "keyword"}`},
		{"bad trigger type", `{"name": "x", "trigger_type": "hashtag"}`},
		{"bad execution mode", `{"name": "x", "execution_mode": "cron"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/campaigns", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			c.CreateCampaign(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	c := &controller.CampaignController{Repo: newMockCampaignRepo()}

	req := withURLParam(httptest.NewRequest("GET", "/api/campaigns/42", nil), "id", "42")
	rec := httptest.NewRecorder()
	c.GetCampaign(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleCampaignFlips(t *testing.T) {
	repo := newMockCampaignRepo(&model.Campaign{ID: 1, Name: "x", IsActive: true})
	c := &controller.CampaignController{Repo: repo}

	req := withURLParam(httptest.NewRequest("PATCH", "/api/campaigns/1/toggle", bytes.NewBufferString(`{}`)), "id", "1")
	rec := httptest.NewRecorder()
	c.ToggleCampaign(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.active[1])
}

func TestToggleCampaignExplicit(t *testing.T) {
	repo := newMockCampaignRepo(&model.Campaign{ID: 1, Name: "x", IsActive: false})
	c := &controller.CampaignController{Repo: repo}

	req := withURLParam(httptest.NewRequest("PATCH", "/api/campaigns/1/toggle", bytes.NewBufferString(`{"is_active": false}`)), "id", "1")
	rec := httptest.NewRecorder()
	c.ToggleCampaign(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.active[1])
}

func TestDeleteCampaign(t *testing.T) {
	repo := newMockCampaignRepo(&model.Campaign{ID: 1, Name: "x"})
	c := &controller.CampaignController{Repo: repo}

	req := withURLParam(httptest.NewRequest("DELETE", "/api/campaigns/1", nil), "id", "1")
	rec := httptest.NewRecorder()
	c.DeleteCampaign(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.campaigns)
}
