// cmd/seeder/main.go
package main

import (
	"github.com/sirupsen/logrus"

	"github.com/instadm-io/instadm-backend/internal/config"
	"github.com/instadm-io/instadm-backend/internal/db"
	"github.com/instadm-io/instadm-backend/internal/logger"
	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/repository"
)

// Seeds a demo campaign pair and baseline settings into an empty database.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("configuration error: ", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatal("database connection failed: ", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(); err != nil {
		logrus.Fatal("schema setup failed: ", err)
	}

	campaignRepo := &repository.CampaignRepository{DB: database.DB}
	settingsRepo := &repository.SettingsRepository{DB: database.DB}

	campaigns := []*model.Campaign{
		{
			AccountID:     1,
			Name:          "가격 문의 자동 응답",
			TriggerType:   model.TriggerKeyword,
			Keywords:      []string{"가격", "할인", "얼마"},
			CheckFollower: true,
			DmDefault:     "안녕하세요 {username}님! 관심 가져주셔서 감사해요 🙂",
			DmFollower:    "안녕하세요 {username}님! 팔로워분들께는 10% 할인 쿠폰을 드려요. 쿠폰 코드: FOLLOW10",
			DmNonFollower: "안녕하세요 {username}님! 팔로우하시면 할인 쿠폰을 보내드릴게요.",
			CtaNonFollower: model.CtaConfig{
				Enabled: true,
			},
			IsActive:      true,
			ExecutionMode: model.ExecutionModeWebhook,
		},
		{
			AccountID:     1,
			Name:          "전체 댓글 환영 DM",
			TriggerType:   model.TriggerAll,
			Keywords:      []string{},
			CheckFollower: false,
			DmDefault:     "{username}님, 댓글 남겨주셔서 감사합니다! 자세한 내용은 프로필 링크를 확인해주세요.",
			IsActive:      false,
			ExecutionMode: model.ExecutionModePolling,
		},
	}

	for _, c := range campaigns {
		if err := campaignRepo.Create(c); err != nil {
			logrus.Fatal("campaign seed failed: ", err)
		}
		logrus.WithFields(logrus.Fields{"id": c.ID, "name": c.Name}).Info("seeded campaign")
	}

	settings := map[string]string{
		"webhook_verify_token":    cfg.WebhookVerifyToken,
		"comment_reply_templates": `["{username}님 DM 보내드렸어요! 확인해주세요 💌","{username}님, 메시지함을 확인해주세요!"]`,
		"comment_reply_index":     "0",
	}
	for key, value := range settings {
		if err := settingsRepo.Set(key, value); err != nil {
			logrus.Fatal("setting seed failed: ", err)
		}
		logrus.WithField("key", key).Info("seeded setting")
	}

	logrus.Info("database seeding completed")
}
