// Package follows caches follower lists, following lists and a flat
// follow-status map keyed by models.FollowKey.
//
// Follow and unfollow only flip their own status key. Cached follower and
// following lists are not refreshed; callers re-fetch them when needed.
package follows

import (
	"context"

	"talent-sync/internal/api"
	"talent-sync/internal/models"
	"talent-sync/internal/store"
)

const (
	FetchFollowersType    = "follows/fetchFollowers"
	FetchFollowingType    = "follows/fetchFollowing"
	FollowUserType        = "follows/followUser"
	UnfollowUserType      = "follows/unfollowUser"
	CheckFollowStatusType = "follows/checkFollowStatus"
)

type API interface {
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	GetFollowers(ctx context.Context, userID string) (api.ListResult[models.User], error)
	GetFollowing(ctx context.Context, userID string) (api.ListResult[models.User], error)
	CheckFollowStatus(ctx context.Context, followerID, followingID string) (bool, error)
}

type State struct {
	Followers map[string][]models.User
	Following map[string][]models.User
	Status    map[string]bool
	IsLoading bool
	Error     string
}

func Initial() State {
	return State{
		Followers: map[string][]models.User{},
		Following: map[string][]models.User{},
		Status:    map[string]bool{},
	}
}

// Pair is a directed follow edge.
type Pair struct {
	FollowerID  string
	FollowingID string
}

func (p Pair) Key() string {
	return models.FollowKey(p.FollowerID, p.FollowingID)
}

// IsFollowing reads the cached status. Unknown pairs report false.
func (s State) IsFollowing(followerID, followingID string) bool {
	return s.Status[models.FollowKey(followerID, followingID)]
}

// ==========================
// Thunks
// ==========================

func FetchFollowers(client API) store.Thunk[string, api.ListResult[models.User]] {
	return store.Thunk[string, api.ListResult[models.User]]{
		Type: FetchFollowersType,
		Run: func(ctx context.Context, userID string) (api.ListResult[models.User], error) {
			return client.GetFollowers(ctx, userID)
		},
	}
}

func FetchFollowing(client API) store.Thunk[string, api.ListResult[models.User]] {
	return store.Thunk[string, api.ListResult[models.User]]{
		Type: FetchFollowingType,
		Run: func(ctx context.Context, userID string) (api.ListResult[models.User], error) {
			return client.GetFollowing(ctx, userID)
		},
	}
}

// FollowUser makes FollowerID follow FollowingID. The server takes the
// follower from the bearer token, so FollowerID must be the signed-in user.
func FollowUser(client API) store.Thunk[Pair, models.FollowStatus] {
	return store.Thunk[Pair, models.FollowStatus]{
		Type: FollowUserType,
		Run: func(ctx context.Context, p Pair) (models.FollowStatus, error) {
			if err := client.Follow(ctx, p.FollowingID); err != nil {
				return models.FollowStatus{}, err
			}
			return models.FollowStatus{IsFollowing: true}, nil
		},
	}
}

func UnfollowUser(client API) store.Thunk[Pair, models.FollowStatus] {
	return store.Thunk[Pair, models.FollowStatus]{
		Type: UnfollowUserType,
		Run: func(ctx context.Context, p Pair) (models.FollowStatus, error) {
			if err := client.Unfollow(ctx, p.FollowingID); err != nil {
				return models.FollowStatus{}, err
			}
			return models.FollowStatus{IsFollowing: false}, nil
		},
	}
}

func CheckFollowStatus(client API) store.Thunk[Pair, models.FollowStatus] {
	return store.Thunk[Pair, models.FollowStatus]{
		Type: CheckFollowStatusType,
		Run: func(ctx context.Context, p Pair) (models.FollowStatus, error) {
			following, err := client.CheckFollowStatus(ctx, p.FollowerID, p.FollowingID)
			if err != nil {
				return models.FollowStatus{}, err
			}
			return models.FollowStatus{IsFollowing: following}, nil
		},
	}
}

// ==========================
// Reducer
// ==========================

func Reduce(state State, action store.Action) State {
	switch action.Type {
	case store.Pending(FetchFollowersType), store.Pending(FetchFollowingType),
		store.Pending(FollowUserType), store.Pending(UnfollowUserType),
		store.Pending(CheckFollowStatusType):
		state.IsLoading = true
		state.Error = ""

	case store.Rejected(FetchFollowersType), store.Rejected(FetchFollowingType),
		store.Rejected(FollowUserType), store.Rejected(UnfollowUserType),
		store.Rejected(CheckFollowStatusType):
		state.IsLoading = false
		state.Error = action.Message()

	case store.Fulfilled(FetchFollowersType):
		state.IsLoading = false
		userID, _ := store.ArgAs[string](action)
		result, _ := store.PayloadAs[api.ListResult[models.User]](action)
		state.Followers = withUsers(state.Followers, userID, result.OrEmpty())

	case store.Fulfilled(FetchFollowingType):
		state.IsLoading = false
		userID, _ := store.ArgAs[string](action)
		result, _ := store.PayloadAs[api.ListResult[models.User]](action)
		state.Following = withUsers(state.Following, userID, result.OrEmpty())

	case store.Fulfilled(FollowUserType), store.Fulfilled(UnfollowUserType),
		store.Fulfilled(CheckFollowStatusType):
		state.IsLoading = false
		pair, _ := store.ArgAs[Pair](action)
		status, _ := store.PayloadAs[models.FollowStatus](action)
		state.Status = withStatus(state.Status, pair.Key(), status.IsFollowing)
	}
	return state
}

func withUsers(m map[string][]models.User, userID string, users []models.User) map[string][]models.User {
	out := make(map[string][]models.User, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[userID] = users
	return out
}

func withStatus(m map[string]bool, key string, following bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = following
	return out
}
