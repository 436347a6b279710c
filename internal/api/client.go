// Package api is the single point of egress to the marketplace REST API.
// Every method maps to one endpoint and returns the unwrapped data of the
// {data, message?} envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"talent-sync/internal/common/errors"
	commonhttp "talent-sync/internal/common/http"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/common/metrics"
	"talent-sync/internal/session"
)

// maxErrorBody caps how much of a failed response is kept in error details.
const maxErrorBody = 2048

// UnauthorizedHook runs after a 401 has cleared the session.
type UnauthorizedHook func(ctx context.Context)

type Options struct {
	BaseURL string
	HTTP    *commonhttp.Client
	Session session.Store
	Logger  logger.Logger
}

type Client struct {
	baseURL string
	http    *commonhttp.Client
	session session.Store
	logger  logger.Logger

	mu    sync.RWMutex
	hooks []UnauthorizedHook
}

func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = commonhttp.NewClient(0)
	}
	store := opts.Session
	if store == nil {
		store = session.NewMemoryStore()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		session: store,
		logger:  log,
	}
}

// OnUnauthorized registers a hook for the forced-logout signal. The client
// itself never navigates or retries.
func (c *Client) OnUnauthorized(hook UnauthorizedHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// Session exposes the store the client reads its token from.
func (c *Client) Session() session.Store {
	return c.session
}

type request struct {
	method      string
	route       string // template used for metrics and spans
	path        string
	body        io.Reader
	contentType string
}

func jsonRequest(method, route, path string, in interface{}) (request, error) {
	req := request{method: method, route: route, path: path}
	if in == nil {
		return req, nil
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return req, fmt.Errorf("failed to encode request body: %w", err)
	}
	req.body = bytes.NewReader(payload)
	req.contentType = "application/json"
	return req, nil
}

func (c *Client) send(ctx context.Context, r request) (Envelope, error) {
	token, err := c.session.GetToken(ctx)
	if err != nil {
		return Envelope{}, err
	}

	req, err := http.NewRequestWithContext(commonhttp.WithRoute(ctx, r.route), r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return Envelope{}, errors.NewNetworkError(err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("API request failed", map[string]interface{}{
			"method": r.method,
			"route":  r.route,
			"error":  err.Error(),
		})
		return Envelope{}, errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{}, errors.NewNetworkError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, r)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := errors.NewHTTPError(resp.StatusCode, serverMessage(body), truncate(body))
		c.logger.Info("API request rejected", map[string]interface{}{
			"method":     r.method,
			"route":      r.route,
			"statusCode": resp.StatusCode,
			"message":    httpErr.Message,
		})
		return Envelope{}, httpErr
	}

	env, err := parseEnvelope(body)
	if err != nil {
		// absent data is handled per call; an odd body is treated the same way
		c.logger.Warn("Response is not an envelope", map[string]interface{}{
			"route": r.route,
			"error": err.Error(),
		})
		return Envelope{}, nil
	}
	return env, nil
}

func (c *Client) sendJSON(ctx context.Context, method, route, path string, in interface{}) (Envelope, error) {
	r, err := jsonRequest(method, route, path, in)
	if err != nil {
		return Envelope{}, err
	}
	return c.send(ctx, r)
}

func (c *Client) handleUnauthorized(ctx context.Context, r request) {
	// a cancelled caller must not leave a stale token behind
	clearCtx := context.WithoutCancel(ctx)
	token, _ := c.session.GetToken(clearCtx)
	if err := c.session.ClearSession(clearCtx); err != nil {
		c.logger.Error("Failed to clear session after 401", map[string]interface{}{
			"route": r.route,
			"error": err.Error(),
		})
	}
	metrics.SessionClearedTotal.Inc()
	c.logger.Warn("Session cleared after 401", map[string]interface{}{
		"method": r.method,
		"route":  r.route,
		"token":  logger.MaskToken(token),
	})

	c.mu.RLock()
	hooks := make([]UnauthorizedHook, len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.RUnlock()

	for _, hook := range hooks {
		hook(clearCtx)
	}
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
