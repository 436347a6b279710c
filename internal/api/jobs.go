package api

import (
	"context"
	"net/http"
	"net/url"

	"talent-sync/internal/models"
)

func (c *Client) ListJobs(ctx context.Context) (ListResult[models.Job], error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/jobs", "/jobs", nil)
	if err != nil {
		return ListResult[models.Job]{}, err
	}
	return DecodeList[models.Job](env.Data, "jobs"), nil
}

func (c *Client) GetJob(ctx context.Context, jobID string) (models.Job, error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/jobs/{id}", "/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return models.Job{}, err
	}
	return decodeOne[models.Job](env, "job")
}

func (c *Client) CreateJob(ctx context.Context, job models.Job) (models.Job, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/jobs", "/jobs", job)
	if err != nil {
		return models.Job{}, err
	}
	return decodeOne[models.Job](env, "job")
}

func (c *Client) ApplyToJob(ctx context.Context, jobID string, in models.JobApplication) (models.Application, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/jobs/{id}/apply", "/jobs/"+url.PathEscape(jobID)+"/apply", in)
	if err != nil {
		return models.Application{}, err
	}
	return decodeOne[models.Application](env, "application")
}

func (c *Client) GetStudentApplications(ctx context.Context, studentID string) (ListResult[models.Application], error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/students/{id}/applications", studentPath(studentID, "/applications"), nil)
	if err != nil {
		return ListResult[models.Application]{}, err
	}
	return DecodeList[models.Application](env.Data, "applications"), nil
}

func (c *Client) GetJobApplications(ctx context.Context, jobID string) (ListResult[models.Application], error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/jobs/{id}/applications", "/jobs/"+url.PathEscape(jobID)+"/applications", nil)
	if err != nil {
		return ListResult[models.Application]{}, err
	}
	return DecodeList[models.Application](env.Data, "applications"), nil
}

// UpdateApplicationStatus has no client-side transition guard; the server
// decides which moves are legal.
func (c *Client) UpdateApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) (models.Application, error) {
	env, err := c.sendJSON(ctx, http.MethodPatch, "/applications/{id}/status",
		"/applications/"+url.PathEscape(applicationID)+"/status", map[string]string{"status": string(status)})
	if err != nil {
		return models.Application{}, err
	}
	return decodeOne[models.Application](env, "application")
}
