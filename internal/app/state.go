package app

import (
	"talent-sync/internal/slices/applications"
	"talent-sync/internal/slices/auth"
	"talent-sync/internal/slices/follows"
	"talent-sync/internal/slices/messages"
	"talent-sync/internal/slices/talents"
	"talent-sync/internal/store"
)

// RootState is the whole client-side cache.
type RootState struct {
	Auth         auth.State
	Messages     messages.State
	Talents      talents.State
	Follows      follows.State
	Applications applications.State
}

func InitialState() RootState {
	return RootState{
		Auth:         auth.Initial(),
		Messages:     messages.Initial(),
		Talents:      talents.Initial(),
		Follows:      follows.Initial(),
		Applications: applications.Initial(),
	}
}

// Reduce delegates to every slice. Signing out, or losing the session to a
// 401, drops all cached entities so the next user never sees them.
func Reduce(state RootState, action store.Action) RootState {
	state.Auth = auth.Reduce(state.Auth, action)

	switch action.Type {
	case store.Fulfilled(auth.LogoutType), auth.SessionExpiredType:
		state.Messages = messages.Initial()
		state.Talents = talents.Initial()
		state.Follows = follows.Initial()
		state.Applications = applications.Initial()
		return state
	}

	state.Messages = messages.Reduce(state.Messages, action)
	state.Talents = talents.Reduce(state.Talents, action)
	state.Follows = follows.Reduce(state.Follows, action)
	state.Applications = applications.Reduce(state.Applications, action)
	return state
}
