package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/service"
)

func TestResolveFreshCacheSkipsLiveCheck(t *testing.T) {
	followRepo := newMockFollowRepo()
	followRepo.SetCachedStatus(&model.FollowStatusEntry{
		AccountID:  1,
		IgUserID:   "u1",
		IsFollower: true,
		CheckedAt:  time.Now().Add(-time.Hour),
	})
	graph := newMockGraph()
	resolver := service.NewFollowResolver(followRepo, graph)

	status, _ := resolver.Resolve("token", 1, "u1", "ann", model.FollowSourceCommentCheck)

	assert.Equal(t, model.FollowStatusFollower, status)
	assert.Equal(t, 0, graph.flagCalls)
}

func TestResolveLiveCheckPersistsAndMirrors(t *testing.T) {
	followRepo := newMockFollowRepo()
	graph := newMockGraph()
	graph.setFollowFlag("u1", boolPtr(true))
	resolver := service.NewFollowResolver(followRepo, graph)

	status, _ := resolver.Resolve("token", 1, "u1", "ann", model.FollowSourceCommentCheck)

	assert.Equal(t, model.FollowStatusFollower, status)

	entry, err := followRepo.GetCachedStatus(1, "u1", 0)
	assert.NoError(t, err)
	if assert.NotNil(t, entry) {
		assert.True(t, entry.IsFollower)
		assert.Equal(t, model.FollowSourceCommentCheck, entry.Source)
	}

	assert.Eventually(t, func() bool {
		return followRepo.rosterHas("u1")
	}, time.Second, 10*time.Millisecond)
}

func TestResolveNonFollowerIsNotMirrored(t *testing.T) {
	followRepo := newMockFollowRepo()
	graph := newMockGraph()
	graph.setFollowFlag("u2", boolPtr(false))
	resolver := service.NewFollowResolver(followRepo, graph)

	status, _ := resolver.Resolve("token", 1, "u2", "bob", model.FollowSourceCommentCheck)

	assert.Equal(t, model.FollowStatusNonFollower, status)
	assert.False(t, followRepo.rosterHas("u2"))
}

func TestResolveIndeterminateFallsBackToStaleCache(t *testing.T) {
	followRepo := newMockFollowRepo()
	followRepo.SetCachedStatus(&model.FollowStatusEntry{
		AccountID:  1,
		IgUserID:   "u1",
		IsFollower: true,
		CheckedAt:  time.Now().Add(-48 * time.Hour),
	})
	graph := newMockGraph() // no flag configured: live check is indeterminate
	resolver := service.NewFollowResolver(followRepo, graph)

	status, _ := resolver.Resolve("token", 1, "u1", "ann", model.FollowSourceCommentCheck)

	assert.Equal(t, model.FollowStatusFollower, status)
	assert.Equal(t, 1, graph.flagCalls)
}

func TestResolveFailureWithoutCacheIsUnknown(t *testing.T) {
	followRepo := newMockFollowRepo()
	graph := newMockGraph()
	graph.followErr = errors.New("rate limited")
	resolver := service.NewFollowResolver(followRepo, graph)

	status, _ := resolver.Resolve("token", 1, "u1", "ann", model.FollowSourceCommentCheck)

	assert.Equal(t, model.FollowStatusUnknown, status)
}

func TestResolveWithoutTokenUsesCacheOnly(t *testing.T) {
	followRepo := newMockFollowRepo()
	followRepo.SetCachedStatus(&model.FollowStatusEntry{
		AccountID:  1,
		IgUserID:   "u1",
		IsFollower: false,
		CheckedAt:  time.Now().Add(-72 * time.Hour),
	})
	graph := newMockGraph()
	resolver := service.NewFollowResolver(followRepo, graph)

	status, _ := resolver.Resolve("", 1, "u1", "ann", model.FollowSourceCommentCheck)

	assert.Equal(t, model.FollowStatusNonFollower, status)
	assert.Equal(t, 0, graph.flagCalls)
}

func TestResolveLiveIgnoresFreshCache(t *testing.T) {
	followRepo := newMockFollowRepo()
	followRepo.SetCachedStatus(&model.FollowStatusEntry{
		AccountID:  1,
		IgUserID:   "u1",
		IsFollower: false,
		CheckedAt:  time.Now(),
	})
	graph := newMockGraph()
	graph.setFollowFlag("u1", boolPtr(true))
	resolver := service.NewFollowResolver(followRepo, graph)

	status, _ := resolver.ResolveLive("token", 1, "u1", "ann", model.FollowSourceDmEventCheck)

	assert.Equal(t, model.FollowStatusFollower, status)
	assert.Equal(t, 1, graph.flagCalls)
}

func TestResolveLiveIndeterminateStaysUnknown(t *testing.T) {
	followRepo := newMockFollowRepo()
	followRepo.SetCachedStatus(&model.FollowStatusEntry{
		AccountID:  1,
		IgUserID:   "u1",
		IsFollower: true,
		CheckedAt:  time.Now().Add(-48 * time.Hour),
	})
	graph := newMockGraph()
	resolver := service.NewFollowResolver(followRepo, graph)

	status, _ := resolver.ResolveLive("token", 1, "u1", "ann", model.FollowSourceDmEventCheck)

	assert.Equal(t, model.FollowStatusUnknown, status)
}
