package api

import (
	"context"
	"net/http"
	"net/url"

	"talent-sync/internal/models"
)

func studentPath(studentID, suffix string) string {
	return "/students/" + url.PathEscape(studentID) + suffix
}

// GetAllTalents returns the global feed. Shape problems land in the result,
// not the error.
func (c *Client) GetAllTalents(ctx context.Context) (ListResult[models.Talent], error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/students/talents/all", "/students/talents/all", nil)
	if err != nil {
		return ListResult[models.Talent]{}, err
	}
	return DecodeList[models.Talent](env.Data, "talents"), nil
}

func (c *Client) GetStudentTalents(ctx context.Context, studentID string) (ListResult[models.Talent], error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/students/{id}/talents", studentPath(studentID, "/talents"), nil)
	if err != nil {
		return ListResult[models.Talent]{}, err
	}
	return DecodeList[models.Talent](env.Data, "talents"), nil
}

func talentFields(in models.TalentInput) map[string]string {
	return map[string]string{
		"title":       in.Title,
		"category":    in.Category,
		"description": in.Description,
	}
}

func (c *Client) AddTalent(ctx context.Context, studentID string, in models.TalentInput, files []File) (models.Talent, error) {
	req, err := multipartRequest(http.MethodPost, "/students/{id}/talents",
		studentPath(studentID, "/talents"), talentFields(in), "files", files)
	if err != nil {
		return models.Talent{}, err
	}
	env, err := c.send(ctx, req)
	if err != nil {
		return models.Talent{}, err
	}
	return decodeOne[models.Talent](env, "talent")
}

func (c *Client) UpdateTalent(ctx context.Context, studentID, talentID string, in models.TalentInput, files []File) (models.Talent, error) {
	req, err := multipartRequest(http.MethodPut, "/students/{id}/talents/{talentId}",
		studentPath(studentID, "/talents/"+url.PathEscape(talentID)), talentFields(in), "files", files)
	if err != nil {
		return models.Talent{}, err
	}
	env, err := c.send(ctx, req)
	if err != nil {
		return models.Talent{}, err
	}
	return decodeOne[models.Talent](env, "talent")
}

func (c *Client) DeleteTalent(ctx context.Context, studentID, talentID string) error {
	_, err := c.sendJSON(ctx, http.MethodDelete, "/students/{id}/talents/{talentId}",
		studentPath(studentID, "/talents/"+url.PathEscape(talentID)), nil)
	return err
}

func (c *Client) LikeTalent(ctx context.Context, studentID, talentID string) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/students/{id}/like-talent",
		studentPath(studentID, "/like-talent"), models.SocialAction{TalentID: talentID})
	return err
}

func (c *Client) SaveTalent(ctx context.Context, studentID, talentID string) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/students/{id}/save-talent",
		studentPath(studentID, "/save-talent"), models.SocialAction{TalentID: talentID})
	return err
}

func (c *Client) RequestCollaboration(ctx context.Context, studentID, talentID, message string) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/students/{id}/collaboration-request",
		studentPath(studentID, "/collaboration-request"), models.SocialAction{TalentID: talentID, Message: message})
	return err
}

// GetLikedTalents is fail-soft: any failure yields an empty list.
func (c *Client) GetLikedTalents(ctx context.Context, studentID string) []models.Talent {
	return c.failSoftTalents(ctx, "/students/{id}/liked-talents", studentPath(studentID, "/liked-talents"))
}

// GetSavedTalents is fail-soft: any failure yields an empty list.
func (c *Client) GetSavedTalents(ctx context.Context, studentID string) []models.Talent {
	return c.failSoftTalents(ctx, "/students/{id}/saved-talents", studentPath(studentID, "/saved-talents"))
}

func (c *Client) failSoftTalents(ctx context.Context, route, path string) []models.Talent {
	env, err := c.sendJSON(ctx, http.MethodGet, route, path, nil)
	if err != nil {
		c.logger.Warn("Fail-soft read returned empty list", map[string]interface{}{
			"route": route,
			"error": err.Error(),
		})
		return []models.Talent{}
	}
	return DecodeList[models.Talent](env.Data, "talents").OrEmpty()
}
