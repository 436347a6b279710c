package models

// FollowKey is the follow-status cache key for the edge follower -> following.
func FollowKey(followerID, followingID string) string {
	return followerID + "-" + followingID
}

type FollowStatus struct {
	IsFollowing bool `json:"isFollowing"`
}
