// Package store is the explicit state container the slices reduce into.
// State is owned by a constructed Store; nothing here is global.
package store

import (
	"sync"

	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/logger"
)

// Phase is the settlement stage of an async action.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
)

// Meta carries the bookkeeping of an async action.
type Meta struct {
	RequestID string
	Arg       interface{}
	Phase     Phase
}

// Action is the only input reducers see. Error is set on rejected actions.
type Action struct {
	Type    string
	Payload interface{}
	Error   error
	Meta    Meta
}

// Message is the user-facing text of a rejected action.
func (a Action) Message() string {
	if a.Error == nil {
		return ""
	}
	return errors.UserMessage(a.Error)
}

// Pending, Fulfilled and Rejected name the three actions of an async
// operation, e.g. "messages/sendMessage/pending".
func Pending(typ string) string   { return typ + "/" + string(PhasePending) }
func Fulfilled(typ string) string { return typ + "/" + string(PhaseFulfilled) }
func Rejected(typ string) string  { return typ + "/" + string(PhaseRejected) }

// PayloadAs returns the payload as T, or the zero value when it has another type.
func PayloadAs[T any](a Action) (T, bool) {
	v, ok := a.Payload.(T)
	return v, ok
}

// ArgAs returns Meta.Arg as T.
func ArgAs[T any](a Action) (T, bool) {
	v, ok := a.Meta.Arg.(T)
	return v, ok
}

// Reducer is a pure function of state and action.
type Reducer[S any] func(state S, action Action) S

// Listener observes the state after every dispatch.
type Listener[S any] func(state S, action Action)

// Dispatcher is the write side of a Store.
type Dispatcher interface {
	Dispatch(action Action)
}

type subscription[S any] struct {
	id int
	fn Listener[S]
}

type Store[S any] struct {
	mu      sync.Mutex
	state   S
	reducer Reducer[S]
	logger  logger.Logger

	subMu     sync.Mutex
	nextSubID int
	listeners []subscription[S]
}

func New[S any](initial S, reducer Reducer[S], log logger.Logger) *Store[S] {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store[S]{
		state:   initial,
		reducer: reducer,
		logger:  log,
	}
}

// Dispatch reduces action into the state. Reducers never interleave;
// listeners run afterwards, outside the lock, in subscription order.
func (s *Store[S]) Dispatch(action Action) {
	s.mu.Lock()
	s.state = s.reducer(s.state, action)
	next := s.state
	s.mu.Unlock()

	s.logger.Debug("Action dispatched", map[string]interface{}{
		"type":      action.Type,
		"requestId": action.Meta.RequestID,
	})

	s.subMu.Lock()
	listeners := make([]subscription[S], len(s.listeners))
	copy(listeners, s.listeners)
	s.subMu.Unlock()

	for _, l := range listeners {
		l.fn(next, action)
	}
}

// GetState returns the current state. Slices hold maps and slices, so
// callers must treat the result as read-only.
func (s *Store[S]) GetState() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store[S]) Subscribe(fn Listener[S]) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription[S]{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}
