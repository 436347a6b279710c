package api

import (
	"context"
	"net/http"
	"net/url"

	"talent-sync/internal/models"
)

func userPath(userID, suffix string) string {
	return "/users/" + url.PathEscape(userID) + suffix
}

// Follow makes the signed-in user follow userID.
func (c *Client) Follow(ctx context.Context, userID string) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/users/{id}/follow", userPath(userID, "/follow"), nil)
	return err
}

func (c *Client) Unfollow(ctx context.Context, userID string) error {
	_, err := c.sendJSON(ctx, http.MethodDelete, "/users/{id}/follow", userPath(userID, "/follow"), nil)
	return err
}

func (c *Client) GetFollowers(ctx context.Context, userID string) (ListResult[models.User], error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/users/{id}/followers", userPath(userID, "/followers"), nil)
	if err != nil {
		return ListResult[models.User]{}, err
	}
	return DecodeList[models.User](env.Data, "followers", "users"), nil
}

func (c *Client) GetFollowing(ctx context.Context, userID string) (ListResult[models.User], error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/users/{id}/following", userPath(userID, "/following"), nil)
	if err != nil {
		return ListResult[models.User]{}, err
	}
	return DecodeList[models.User](env.Data, "following", "users"), nil
}

// CheckFollowStatus asks whether followerID follows followingID. It has no
// side effects.
func (c *Client) CheckFollowStatus(ctx context.Context, followerID, followingID string) (bool, error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/users/{id}/follow-status/{followingId}",
		userPath(followerID, "/follow-status/"+url.PathEscape(followingID)), nil)
	if err != nil {
		return false, err
	}
	status, err := decodeOne[models.FollowStatus](env, "follow status")
	if err != nil {
		return false, err
	}
	return status.IsFollowing, nil
}
