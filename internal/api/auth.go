package api

import (
	"context"
	"net/http"

	"talent-sync/internal/models"
)

func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.AuthResult, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/auth/login", "/auth/login", creds)
	if err != nil {
		return models.AuthResult{}, err
	}
	return decodeOne[models.AuthResult](env, "auth result")
}

func (c *Client) RegisterStudent(ctx context.Context, in models.StudentRegistration) (models.AuthResult, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/auth/register-student", "/auth/register-student", in)
	if err != nil {
		return models.AuthResult{}, err
	}
	return decodeOne[models.AuthResult](env, "auth result")
}

func (c *Client) RegisterBusiness(ctx context.Context, in models.BusinessRegistration) (models.AuthResult, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/auth/register-business", "/auth/register-business", in)
	if err != nil {
		return models.AuthResult{}, err
	}
	return decodeOne[models.AuthResult](env, "auth result")
}
