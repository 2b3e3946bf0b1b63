// internal/service/poller.go
package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/instadm-io/instadm-backend/internal/instagram"
	"github.com/instadm-io/instadm-backend/internal/model"
)

// SettingBusinessUserID optionally holds the account's own Instagram user
// id so the poller can skip comments the account left on its own media.
const SettingBusinessUserID = "instagram_business_id"

const DefaultPollInterval = 30 * time.Second

// How many of the account's recent media the poller scans for campaigns
// that target no specific post.
const pollerMediaFanout = 10

// PollerStatus is the snapshot served by the admin API.
type PollerStatus struct {
	Running         bool       `json:"running"`
	IntervalSeconds int        `json:"interval_seconds"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty"`
	LastRunError    string     `json:"last_run_error,omitempty"`
	LastRunChecked  int        `json:"last_run_checked"`
	LastRunSent     int        `json:"last_run_sent"`
}

// Poller periodically sweeps recent comments for campaigns running in
// polling mode, as a fallback for accounts without webhook delivery. It
// reuses the engine's per-campaign pipeline but never attaches CTA
// buttons: a postback answered while polling may go unseen for a full
// interval, which makes a poor button experience.
type Poller struct {
	Engine   *Engine
	Interval time.Duration

	cron *cron.Cron

	mu       sync.Mutex
	running  bool
	inFlight atomic.Bool

	lastRunAt      *time.Time
	lastRunError   string
	lastRunChecked int
	lastRunSent    int
}

func NewPoller(engine *Engine, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{Engine: engine, Interval: interval}
}

// Start schedules the sweep. Calling Start on a running poller is a no-op.
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.cron = cron.New()
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %ds", int(p.Interval.Seconds())), p.tick); err != nil {
		p.cron = nil
		return fmt.Errorf("schedule comment poll: %w", err)
	}
	p.cron.Start()
	p.running = true
	logrus.WithField("interval", p.Interval.String()).Info("comment poller started")
	return nil
}

// Stop halts scheduling. A tick already in flight finishes on its own.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.cron.Stop()
	p.cron = nil
	p.running = false
	logrus.Info("comment poller stopped")
}

// RunOnce performs a single sweep immediately, regardless of scheduling.
func (p *Poller) RunOnce() {
	p.tick()
}

func (p *Poller) Status() PollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PollerStatus{
		Running:         p.running,
		IntervalSeconds: int(p.Interval.Seconds()),
		LastRunAt:       p.lastRunAt,
		LastRunError:    p.lastRunError,
		LastRunChecked:  p.lastRunChecked,
		LastRunSent:     p.lastRunSent,
	}
}

// tick runs one sweep. Overlapping ticks are dropped, not queued: a slow
// sweep must not stack up behind itself.
func (p *Poller) tick() {
	if !p.inFlight.CompareAndSwap(false, true) {
		logrus.Warn("comment poll still in flight, dropping tick")
		return
	}
	defer p.inFlight.Store(false)

	checked, sent, err := p.sweep()

	now := time.Now()
	p.mu.Lock()
	p.lastRunAt = &now
	p.lastRunChecked = checked
	p.lastRunSent = sent
	p.lastRunError = ""
	if err != nil {
		p.lastRunError = err.Error()
	}
	p.mu.Unlock()
}

func (p *Poller) sweep() (checked, sent int, err error) {
	token := p.Engine.AccessToken()
	if token == "" {
		logrus.Warn("comment poll skipped, no access token configured")
		return 0, 0, nil
	}

	campaigns, err := p.Engine.CampaignRepo.ListByMode(model.ExecutionModePolling, true)
	if err != nil {
		logrus.WithError(err).Error("comment poll campaign list failed")
		return 0, 0, err
	}
	if len(campaigns) == 0 {
		return 0, 0, nil
	}

	selfID, _ := p.Engine.SettingsRepo.Get(SettingBusinessUserID)

	// Campaigns without a media target all share one recent-media scan.
	var recentMedia []string
	recentLoaded := false
	loadRecent := func() []string {
		if recentLoaded {
			return recentMedia
		}
		recentLoaded = true
		media, err := p.Engine.Graph.GetUserMedia(token, "me", pollerMediaFanout)
		if err != nil {
			logrus.WithError(err).Warn("recent media fetch failed")
			return nil
		}
		for _, m := range media {
			recentMedia = append(recentMedia, m.ID)
		}
		return recentMedia
	}

	for _, campaign := range campaigns {
		var mediaIDs []string
		if campaign.IgMediaID != nil && *campaign.IgMediaID != "" {
			mediaIDs = []string{*campaign.IgMediaID}
		} else {
			mediaIDs = loadRecent()
		}

		for _, mediaID := range mediaIDs {
			comments, err := p.Engine.Graph.GetRecentComments(token, mediaID)
			if err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"campaign_id": campaign.ID,
					"media_id":    mediaID,
				}).Warn("comment fetch failed")
				continue
			}

			for _, comment := range comments {
				c, s := p.handleComment(token, campaign, mediaID, comment, selfID)
				checked += c
				sent += s
			}
		}
	}

	if checked > 0 || sent > 0 {
		logrus.WithFields(logrus.Fields{"checked": checked, "sent": sent}).Info("comment poll finished")
	}
	return checked, sent, nil
}

// handleComment processes one polled comment and always leaves a processed
// marker behind, so the next sweep skips it no matter the outcome.
func (p *Poller) handleComment(token string, campaign *model.Campaign, mediaID string, comment instagram.Comment, selfID string) (checked, sent int) {
	if comment.ID == "" || comment.Text == "" || comment.From.ID == "" {
		return 0, 0
	}

	status, err := p.Engine.SettingsRepo.ProcessedCommentStatus(comment.ID)
	if err != nil {
		logrus.WithError(err).Warn("idempotency marker read failed")
		return 0, 0
	}
	if status != "" {
		return 0, 0
	}

	if selfID != "" && comment.From.ID == selfID {
		p.mark(comment.ID, "own_comment")
		return 1, 0
	}

	checked = 1

	if !MatchesTrigger(campaign, comment.Text) {
		p.mark(comment.ID, "no_match")
		return checked, 0
	}

	event := model.CommentEvent{
		ID:    comment.ID,
		Text:  comment.Text,
		From:  model.WebhookUser{ID: comment.From.ID, Username: comment.From.Username},
		Media: model.WebhookMedia{ID: mediaID},
	}

	outcome, err := p.Engine.processMatchedComment(token, campaign, event, false)
	if err != nil {
		logrus.WithError(err).WithField("campaign_id", campaign.ID).Error("polled comment processing failed")
		p.mark(comment.ID, "failed_via_polling")
		return checked, 0
	}

	switch outcome.Status {
	case OutcomeSent:
		p.mark(comment.ID, "sent_via_polling")
		return checked, 1
	case OutcomeFailed:
		p.mark(comment.ID, "failed_via_polling")
	default:
		p.mark(comment.ID, "skipped_"+outcome.Reason)
	}
	return checked, 0
}

func (p *Poller) mark(commentID, status string) {
	if err := p.Engine.SettingsRepo.MarkCommentProcessed(commentID, status); err != nil {
		logrus.WithError(err).WithField("comment_id", commentID).Warn("idempotency marker write failed")
	}
}
