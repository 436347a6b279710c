package api

import (
	"context"
	"net/http"
	"net/url"

	"talent-sync/internal/models"
)

func (c *Client) GetStudent(ctx context.Context, studentID string) (models.Student, error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/students/{id}", "/students/"+url.PathEscape(studentID), nil)
	if err != nil {
		return models.Student{}, err
	}
	return decodeOne[models.Student](env, "student")
}

// UpdateStudent sends a partial update; only the given keys change.
func (c *Client) UpdateStudent(ctx context.Context, studentID string, changes map[string]interface{}) (models.Student, error) {
	env, err := c.sendJSON(ctx, http.MethodPatch, "/students/{id}", "/students/"+url.PathEscape(studentID), changes)
	if err != nil {
		return models.Student{}, err
	}
	return decodeOne[models.Student](env, "student")
}

func (c *Client) UploadResume(ctx context.Context, studentID string, resume File) (models.Student, error) {
	req, err := multipartRequest(http.MethodPost, "/students/{id}/resume",
		"/students/"+url.PathEscape(studentID)+"/resume", nil, "resume", []File{resume})
	if err != nil {
		return models.Student{}, err
	}
	env, err := c.send(ctx, req)
	if err != nil {
		return models.Student{}, err
	}
	return decodeOne[models.Student](env, "student")
}

func (c *Client) AddProject(ctx context.Context, studentID string, project models.Project, files []File) (models.Project, error) {
	req, err := multipartRequest(http.MethodPost, "/students/{id}/projects",
		"/students/"+url.PathEscape(studentID)+"/projects",
		map[string]string{
			"title":       project.Title,
			"description": project.Description,
			"link":        project.Link,
		}, "files", files)
	if err != nil {
		return models.Project{}, err
	}
	env, err := c.send(ctx, req)
	if err != nil {
		return models.Project{}, err
	}
	return decodeOne[models.Project](env, "project")
}

func (c *Client) AddAchievement(ctx context.Context, studentID string, achievement models.Achievement, files []File) (models.Achievement, error) {
	req, err := multipartRequest(http.MethodPost, "/students/{id}/achievements",
		"/students/"+url.PathEscape(studentID)+"/achievements",
		map[string]string{
			"title":       achievement.Title,
			"description": achievement.Description,
			"date":        achievement.Date,
		}, "files", files)
	if err != nil {
		return models.Achievement{}, err
	}
	env, err := c.send(ctx, req)
	if err != nil {
		return models.Achievement{}, err
	}
	return decodeOne[models.Achievement](env, "achievement")
}

func (c *Client) GetBusiness(ctx context.Context, businessID string) (models.Business, error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/businesses/{id}", "/businesses/"+url.PathEscape(businessID), nil)
	if err != nil {
		return models.Business{}, err
	}
	return decodeOne[models.Business](env, "business")
}

func (c *Client) UpdateBusiness(ctx context.Context, businessID string, changes map[string]interface{}) (models.Business, error) {
	env, err := c.sendJSON(ctx, http.MethodPatch, "/businesses/{id}", "/businesses/"+url.PathEscape(businessID), changes)
	if err != nil {
		return models.Business{}, err
	}
	return decodeOne[models.Business](env, "business")
}
