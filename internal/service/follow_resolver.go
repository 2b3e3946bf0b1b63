// internal/service/follow_resolver.go
package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/instadm-io/instadm-backend/internal/instagram"
	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/repository"
)

// DefaultFollowCacheMaxAge bounds how long a cached answer is trusted as
// the sole source of truth.
const DefaultFollowCacheMaxAge = 24 * time.Hour

// GraphClient is the slice of the Graph API the services depend on.
type GraphClient interface {
	SendPrivateReply(accessToken, commentID, text string) error
	SendDirectMessage(accessToken, userID, text string) error
	SendTemplateMessage(accessToken, userID string, payload instagram.TemplatePayload) error
	ReplyToComment(accessToken, commentID, text string) error
	GetFollowFlag(accessToken, userID string) (*instagram.FollowCheck, error)
	GetRecentComments(accessToken, mediaID string) ([]instagram.Comment, error)
	GetUserMedia(accessToken, userID string, limit int) ([]instagram.Media, error)
}

// FollowResolver answers "does this user follow the account" with a
// tri-state result.
//
// Policy, in order:
//  1. a cache entry newer than CacheMaxAge wins;
//  2. otherwise a live relationship check runs; definitive answers are
//     persisted with the caller's source tag, and a confirmed follower is
//     mirrored into the roster without blocking the caller;
//  3. on a live-check failure or an indeterminate flag, a previously
//     confirmed cached value of any age is replayed; with no cache either,
//     the result is Unknown. Unknown is never turned into NonFollower.
//
// Resolutions are independent per event; concurrent comments from the same
// user may each run a live check. That duplicate work is accepted.
type FollowResolver struct {
	FollowRepo  repository.FollowRepositoryInterface
	Graph       GraphClient
	CacheMaxAge time.Duration
}

func NewFollowResolver(followRepo repository.FollowRepositoryInterface, graph GraphClient) *FollowResolver {
	return &FollowResolver{
		FollowRepo:  followRepo,
		Graph:       graph,
		CacheMaxAge: DefaultFollowCacheMaxAge,
	}
}

// Resolve returns the user's follow status and, when a live check ran, the
// profile it saw. sourceTag records which pathway triggered the check.
func (r *FollowResolver) Resolve(accessToken string, accountID int, userID, username, sourceTag string) (model.FollowStatus, *instagram.Profile) {
	log := logrus.WithFields(logrus.Fields{
		"account_id": accountID,
		"ig_user_id": userID,
	})

	maxAge := r.CacheMaxAge
	if maxAge == 0 {
		maxAge = DefaultFollowCacheMaxAge
	}

	cached, err := r.FollowRepo.GetCachedStatus(accountID, userID, maxAge)
	if err != nil {
		log.WithError(err).Warn("follow cache read failed")
	} else if cached != nil {
		return model.FollowStatusFromBool(&cached.IsFollower), nil
	}

	if accessToken == "" {
		return r.staleFallback(accountID, userID), nil
	}

	status, profile := r.liveCheck(accessToken, accountID, userID, username, sourceTag)
	if !status.Known() {
		return r.staleFallback(accountID, userID), profile
	}
	return status, profile
}

// ResolveLive always performs a relationship check against the Graph API,
// ignoring the cache on the way in. Definitive answers are persisted and
// mirrored like Resolve does; anything else is Unknown with no stale
// replay. Used where a user just claimed their status changed.
func (r *FollowResolver) ResolveLive(accessToken string, accountID int, userID, username, sourceTag string) (model.FollowStatus, *instagram.Profile) {
	if accessToken == "" {
		return model.FollowStatusUnknown, nil
	}
	return r.liveCheck(accessToken, accountID, userID, username, sourceTag)
}

func (r *FollowResolver) liveCheck(accessToken string, accountID int, userID, username, sourceTag string) (model.FollowStatus, *instagram.Profile) {
	log := logrus.WithFields(logrus.Fields{
		"account_id": accountID,
		"ig_user_id": userID,
	})

	check, err := r.Graph.GetFollowFlag(accessToken, userID)
	if err != nil {
		log.WithError(err).Warn("live follow check failed")
		return model.FollowStatusUnknown, nil
	}

	if check.IsFollower == nil {
		log.Info("follow flag indeterminate")
		return model.FollowStatusUnknown, check.Profile
	}

	isFollower := *check.IsFollower
	if check.Profile != nil && check.Profile.Username != "" {
		username = check.Profile.Username
	}

	if err := r.FollowRepo.SetCachedStatus(&model.FollowStatusEntry{
		AccountID:  accountID,
		IgUserID:   userID,
		IgUsername: username,
		IsFollower: isFollower,
		Source:     sourceTag,
	}); err != nil {
		log.WithError(err).Warn("follow cache write failed")
	}

	if isFollower {
		// Roster mirror is display-only; never block the event on it.
		go func(userID, username string) {
			if err := r.FollowRepo.UpsertFollower(accountID, userID, username); err != nil {
				logrus.WithError(err).Warn("follower roster mirror failed")
			}
		}(userID, username)
	}

	return model.FollowStatusFromBool(&isFollower), check.Profile
}

// staleFallback replays a previously confirmed answer of any age. "Not
// found yet" stays Unknown: never let a cache miss read as "not a
// follower".
func (r *FollowResolver) staleFallback(accountID int, userID string) model.FollowStatus {
	cached, err := r.FollowRepo.GetCachedStatus(accountID, userID, 0)
	if err != nil || cached == nil {
		return model.FollowStatusUnknown
	}
	return model.FollowStatusFromBool(&cached.IsFollower)
}
