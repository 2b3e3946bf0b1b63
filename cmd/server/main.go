// cmd/server/main.go
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/instadm-io/instadm-backend/internal/config"
	"github.com/instadm-io/instadm-backend/internal/controller"
	"github.com/instadm-io/instadm-backend/internal/db"
	"github.com/instadm-io/instadm-backend/internal/handler"
	"github.com/instadm-io/instadm-backend/internal/instagram"
	"github.com/instadm-io/instadm-backend/internal/logger"
	"github.com/instadm-io/instadm-backend/internal/notify"
	"github.com/instadm-io/instadm-backend/internal/repository"
	"github.com/instadm-io/instadm-backend/internal/service"
)

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
	if err := database.EnsureSchema(); err != nil {
		logrus.Fatal("schema setup failed: ", err)
	}

	campaignRepo := &repository.CampaignRepository{DB: database.DB}
	dmLogRepo := &repository.DmLogRepository{DB: database.DB}
	settingsRepo := &repository.SettingsRepository{DB: database.DB}
	followRepo := &repository.FollowRepository{DB: database.DB}
	webhookLogRepo := &repository.WebhookLogRepository{DB: database.DB}

	graph := instagram.NewClient()
	resolver := service.NewFollowResolver(followRepo, graph)

	engine := &service.Engine{
		CampaignRepo:  campaignRepo,
		DmLogRepo:     dmLogRepo,
		FollowRepo:    followRepo,
		SettingsRepo:  settingsRepo,
		Resolver:      resolver,
		Graph:         graph,
		TokenFallback: cfg.InstagramAccessToken,
	}

	poller := service.NewPoller(engine, time.Duration(cfg.PollIntervalSeconds)*time.Second)
	if cfg.PollAutoStart {
		if err := poller.Start(); err != nil {
			logrus.Fatal("poller start failed: ", err)
		}
	}

	telegram := notify.NewTelegramNotifier(settingsRepo, cfg.TelegramBotToken, cfg.TelegramChatID)
	publisher := notify.NewEventPublisher(cfg.AmqpURL, cfg.AmqpQueue)

	webhookHandler := &handler.WebhookHandler{
		Engine:              engine,
		SettingsRepo:        settingsRepo,
		WebhookLogRepo:      webhookLogRepo,
		Telegram:            telegram,
		Publisher:           publisher,
		VerifyTokenFallback: cfg.WebhookVerifyToken,
	}

	campaignController := &controller.CampaignController{Repo: campaignRepo}
	adminController := &controller.AdminController{
		DmLogRepo:      dmLogRepo,
		SettingsRepo:   settingsRepo,
		FollowRepo:     followRepo,
		WebhookLogRepo: webhookLogRepo,
		Resolver:       resolver,
		Engine:         engine,
	}
	pollingController := &controller.PollingController{Poller: poller}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", adminController.Health)

	// Meta webhook callbacks
	r.Get("/webhook", webhookHandler.Verify)
	r.Post("/webhook", webhookHandler.Receive)

	r.Route("/api", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", campaignController.ListCampaigns)
			r.Post("/", campaignController.CreateCampaign)
			r.Get("/{id}", campaignController.GetCampaign)
			r.Put("/{id}", campaignController.UpdateCampaign)
			r.Delete("/{id}", campaignController.DeleteCampaign)
			r.Patch("/{id}/toggle", campaignController.ToggleCampaign)
		})

		r.Get("/dm-logs", adminController.ListDmLogs)
		r.Get("/stats", adminController.DashboardStats)
		r.Get("/settings", adminController.GetSettings)
		r.Put("/settings", adminController.UpdateSettings)
		r.Get("/followers", adminController.ListFollowers)
		r.Get("/webhook-logs", adminController.ListWebhookLogs)
		r.Get("/debug/follow-check", adminController.DebugFollowCheck)

		r.Get("/polling/status", pollingController.Status)
		r.Post("/polling/control", pollingController.Control)
	})

	logrus.WithField("address", cfg.Address).Info("server listening")
	logrus.Fatal(http.ListenAndServe(cfg.Address, r))
}
