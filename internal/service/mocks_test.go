package service_test

import (
	"sync"
	"time"

	"github.com/instadm-io/instadm-backend/internal/instagram"
	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/repository"
)

// Mock repositories, hand-rolled and mutex-protected: the follow resolver
// mirrors roster rows from a goroutine.

type mockCampaignRepo struct {
	mu        sync.Mutex
	campaigns []*model.Campaign
}

func (m *mockCampaignRepo) List() ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Campaign{}, m.campaigns...), nil
}

func (m *mockCampaignRepo) ListByMode(mode string, activeOnly bool) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Campaign
	for _, c := range m.campaigns {
		if c.ExecutionMode != mode {
			continue
		}
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error      { return nil }
func (m *mockCampaignRepo) Update(c *model.Campaign) error      { return nil }
func (m *mockCampaignRepo) Delete(id int) error                 { return nil }
func (m *mockCampaignRepo) SetActive(id int, active bool) error { return nil }

var _ repository.CampaignRepositoryInterface = (*mockCampaignRepo)(nil)

type mockDmLogRepo struct {
	mu      sync.Mutex
	entries []*model.DmLog
}

func (m *mockDmLogRepo) Create(entry *model.DmLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockDmLogRepo) List(limit, offset int, status string, campaignID int) ([]model.DmLog, error) {
	return nil, nil
}

func (m *mockDmLogRepo) DashboardStats() (*model.DashboardStats, error) {
	return &model.DashboardStats{}, nil
}

func (m *mockDmLogRepo) all() []*model.DmLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.DmLog{}, m.entries...)
}

var _ repository.DmLogRepositoryInterface = (*mockDmLogRepo)(nil)

type mockSettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{values: map[string]string{}}
}

func (m *mockSettingsRepo) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *mockSettingsRepo) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockSettingsRepo) ProcessedCommentStatus(commentID string) (string, error) {
	return m.Get("processed_comment_" + commentID)
}

func (m *mockSettingsRepo) MarkCommentProcessed(commentID, status string) error {
	return m.Set("processed_comment_"+commentID, status)
}

var _ repository.SettingsRepositoryInterface = (*mockSettingsRepo)(nil)

type mockFollowRepo struct {
	mu      sync.Mutex
	cache   map[string]*model.FollowStatusEntry
	roster  map[string]string
	pending []*model.PendingFollowRecheck
	deleted []int
	nextID  int
}

func newMockFollowRepo() *mockFollowRepo {
	return &mockFollowRepo{
		cache:  map[string]*model.FollowStatusEntry{},
		roster: map[string]string{},
		nextID: 1,
	}
}

func (m *mockFollowRepo) GetCachedStatus(accountID int, igUserID string, maxAge time.Duration) (*model.FollowStatusEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.cache[igUserID]
	if entry == nil {
		return nil, nil
	}
	if maxAge > 0 && time.Since(entry.CheckedAt) > maxAge {
		return nil, nil
	}
	return entry, nil
}

func (m *mockFollowRepo) SetCachedStatus(entry *model.FollowStatusEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.CheckedAt.IsZero() {
		entry.CheckedAt = time.Now()
	}
	m.cache[entry.IgUserID] = entry
	return nil
}

func (m *mockFollowRepo) UpsertFollower(accountID int, igUserID, igUsername string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roster[igUserID] = igUsername
	return nil
}

func (m *mockFollowRepo) ListFollowers(accountID, limit int) ([]model.Follower, error) {
	return nil, nil
}

func (m *mockFollowRepo) UpsertPendingRecheck(ticket *model.PendingFollowRecheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.pending {
		if t.IgUserID == ticket.IgUserID && t.CampaignID == ticket.CampaignID {
			t.CommentID = ticket.CommentID
			t.CommentText = ticket.CommentText
			t.CtaButtonText = ticket.CtaButtonText
			t.CtaPayload = ticket.CtaPayload
			return nil
		}
	}
	ticket.ID = m.nextID
	m.nextID++
	m.pending = append(m.pending, ticket)
	return nil
}

func (m *mockFollowRepo) ListPendingRechecks(accountID int, igUserID string, limit int) ([]*model.PendingFollowRecheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PendingFollowRecheck
	for _, t := range m.pending {
		if t.IgUserID == igUserID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockFollowRepo) DeletePendingRecheck(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.pending {
		if t.ID == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockFollowRepo) pendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *mockFollowRepo) rosterHas(igUserID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.roster[igUserID]
	return ok
}

var _ repository.FollowRepositoryInterface = (*mockFollowRepo)(nil)

// mockGraph records every outbound Graph API call.

type sentMessage struct {
	Kind     string // "private_reply", "direct_message", "template", "comment_reply"
	Target   string // comment id or user id
	Text     string
	Template instagram.TemplatePayload
}

type mockGraph struct {
	mu sync.Mutex

	sent        []sentMessage
	sendErr     error
	followFlags map[string]*bool
	followErr   error
	profiles    map[string]*instagram.Profile
	comments    map[string][]instagram.Comment
	media       []instagram.Media
	flagCalls   int
}

func newMockGraph() *mockGraph {
	return &mockGraph{
		followFlags: map[string]*bool{},
		profiles:    map[string]*instagram.Profile{},
		comments:    map[string][]instagram.Comment{},
	}
}

func (g *mockGraph) record(msg sentMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, msg)
	return nil
}

func (g *mockGraph) SendPrivateReply(accessToken, commentID, text string) error {
	return g.record(sentMessage{Kind: "private_reply", Target: commentID, Text: text})
}

func (g *mockGraph) SendDirectMessage(accessToken, userID, text string) error {
	return g.record(sentMessage{Kind: "direct_message", Target: userID, Text: text})
}

func (g *mockGraph) SendTemplateMessage(accessToken, userID string, payload instagram.TemplatePayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	return g.record(sentMessage{Kind: "template", Target: userID, Template: payload})
}

func (g *mockGraph) ReplyToComment(accessToken, commentID, text string) error {
	return g.record(sentMessage{Kind: "comment_reply", Target: commentID, Text: text})
}

func (g *mockGraph) GetFollowFlag(accessToken, userID string) (*instagram.FollowCheck, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.flagCalls++
	if g.followErr != nil {
		return nil, g.followErr
	}
	return &instagram.FollowCheck{
		IsFollower: g.followFlags[userID],
		Profile:    g.profiles[userID],
	}, nil
}

func (g *mockGraph) GetRecentComments(accessToken, mediaID string) ([]instagram.Comment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.comments[mediaID], nil
}

func (g *mockGraph) GetUserMedia(accessToken, userID string, limit int) ([]instagram.Media, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.media, nil
}

func (g *mockGraph) sentMessages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage{}, g.sent...)
}

func (g *mockGraph) setFollowFlag(userID string, v *bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.followFlags[userID] = v
}

func boolPtr(v bool) *bool { return &v }
