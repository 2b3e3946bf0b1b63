package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/service"
)

func strPtr(s string) *string { return &s }

func TestMatchesTriggerKeyword(t *testing.T) {
	campaign := &model.Campaign{
		TriggerType: model.TriggerKeyword,
		Keywords:    []string{"가격", "할인"},
	}

	assert.True(t, service.MatchesTrigger(campaign, "가격 알려주세요"))
	assert.True(t, service.MatchesTrigger(campaign, "혹시 할인 되나요?"))
	assert.False(t, service.MatchesTrigger(campaign, "예쁘네요"))
}

func TestMatchesTriggerKeywordCaseInsensitive(t *testing.T) {
	campaign := &model.Campaign{
		TriggerType: model.TriggerKeyword,
		Keywords:    []string{"Price"},
	}

	assert.True(t, service.MatchesTrigger(campaign, "what's the PRICE?"))
}

func TestMatchesTriggerAll(t *testing.T) {
	campaign := &model.Campaign{TriggerType: model.TriggerAll}

	assert.True(t, service.MatchesTrigger(campaign, "아무 댓글"))
	assert.True(t, service.MatchesTrigger(campaign, ""))
}

func TestMatchesTriggerBlankKeywordsNeverMatch(t *testing.T) {
	campaign := &model.Campaign{
		TriggerType: model.TriggerKeyword,
		Keywords:    []string{"", "  "},
	}

	assert.False(t, service.MatchesTrigger(campaign, "가격"))
}

func TestMatchesMedia(t *testing.T) {
	all := &model.Campaign{}
	assert.True(t, service.MatchesMedia(all, "media-1"))

	targeted := &model.Campaign{IgMediaID: strPtr("media-1")}
	assert.True(t, service.MatchesMedia(targeted, "media-1"))
	assert.False(t, service.MatchesMedia(targeted, "media-2"))

	blank := &model.Campaign{IgMediaID: strPtr("")}
	assert.True(t, service.MatchesMedia(blank, "media-9"))
}

func TestMatchCampaignsIndependent(t *testing.T) {
	campaigns := []*model.Campaign{
		{ID: 1, TriggerType: model.TriggerKeyword, Keywords: []string{"가격"}},
		{ID: 2, TriggerType: model.TriggerAll},
		{ID: 3, TriggerType: model.TriggerKeyword, Keywords: []string{"이벤트"}, IgMediaID: strPtr("media-2")},
	}

	matched := service.MatchCampaigns(campaigns, "media-1", "가격 문의합니다")

	ids := []int{}
	for _, c := range matched {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int{1, 2}, ids)
}
