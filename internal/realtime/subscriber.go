// Package realtime keeps a websocket open to the API and turns pushed
// events into store actions. Delivery is additive: fetches stay
// authoritative and a dropped event is repaired by the next fetch.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/common/metrics"
	"talent-sync/internal/models"
	"talent-sync/internal/session"
	"talent-sync/internal/slices/messages"
	"talent-sync/internal/store"
)

const EventMessageCreated = "message.created"

const (
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 30 * time.Second
)

// Event is the wire shape of everything the server pushes.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Options struct {
	URL        string
	Session    session.Store
	Dispatcher store.Dispatcher
	// MaxRetries bounds consecutive failed connections. 0 retries forever.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Dialer       *websocket.Dialer
	Logger       logger.Logger
}

type Subscriber struct {
	url          string
	session      session.Store
	dispatcher   store.Dispatcher
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	dialer       *websocket.Dialer
	logger       logger.Logger
}

func New(opts Options) *Subscriber {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	initial := opts.InitialDelay
	if initial <= 0 {
		initial = defaultInitialDelay
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	return &Subscriber{
		url:          opts.URL,
		session:      opts.Session,
		dispatcher:   opts.Dispatcher,
		maxRetries:   opts.MaxRetries,
		initialDelay: initial,
		maxDelay:     maxDelay,
		dialer:       dialer,
		logger:       log.WithFields(map[string]interface{}{"component": "realtime"}),
	}
}

// DeriveURL maps the REST base URL to the websocket endpoint.
func DeriveURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// Run connects and reconnects with exponential backoff until ctx ends
// (nil), the server refuses the token, or MaxRetries consecutive dials
// fail. A connection that was established and later dropped resets the
// count instead of adding to it.
func (s *Subscriber) Run(ctx context.Context) error {
	delay := s.initialDelay
	failures := 0

	for {
		connected, err := s.connectOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.IsUnauthorized(err) {
			return err
		}

		if connected {
			failures = 0
			delay = s.initialDelay
		} else {
			failures++
			if s.maxRetries > 0 && failures >= s.maxRetries {
				s.logger.Error("Realtime connection abandoned", map[string]interface{}{
					"attempts": failures,
					"error":    errString(err),
				})
				return errors.NewRealtimeError(failures, err)
			}
		}

		s.logger.Warn("Realtime connection lost, retrying...", map[string]interface{}{
			"failures":    failures,
			"maxRetries":  s.maxRetries,
			"nextRetryIn": delay.String(),
			"error":       errString(err),
		})

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
	}
}

// connectOnce dials and reads until the connection drops. connected
// reports whether the handshake succeeded.
func (s *Subscriber) connectOnce(ctx context.Context) (connected bool, err error) {
	token, err := s.session.GetToken(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, errors.NewNotAuthenticatedError()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return false, errors.NewHTTPError(resp.StatusCode, "", "")
		}
		return false, errors.NewNetworkError(err)
	}
	defer conn.Close()

	s.logger.Info("Realtime connected", map[string]interface{}{
		"url": s.url,
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return true, errors.NewNetworkError(err)
		}
		s.handle(payload)
	}
}

func (s *Subscriber) handle(payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn("Ignoring malformed realtime event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.RealtimeEventsTotal.WithLabelValues(event.Type).Inc()

	switch event.Type {
	case EventMessageCreated:
		var msg models.Message
		if err := json.Unmarshal(event.Data, &msg); err != nil || msg.ID == "" {
			s.logger.Warn("Ignoring message event without a message", map[string]interface{}{
				"error": errString(err),
			})
			return
		}
		s.dispatcher.Dispatch(messages.MessageReceived(msg))
	default:
		s.logger.Debug("Unhandled realtime event", map[string]interface{}{
			"type": event.Type,
		})
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
