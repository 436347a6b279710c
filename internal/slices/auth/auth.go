// Package auth tracks who is signed in and keeps the session store in step
// with it.
package auth

import (
	"context"
	"encoding/json"
	"time"

	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/validation"
	"talent-sync/internal/models"
	"talent-sync/internal/session"
	"talent-sync/internal/store"
)

const (
	LoginType            = "auth/login"
	RegisterStudentType  = "auth/registerStudent"
	RegisterBusinessType = "auth/registerBusiness"
	LogoutType           = "auth/logout"
	RestoreType          = "auth/restore"
	SessionExpiredType   = "auth/sessionExpired"
)

type API interface {
	Login(ctx context.Context, creds models.Credentials) (models.AuthResult, error)
	RegisterStudent(ctx context.Context, in models.StudentRegistration) (models.AuthResult, error)
	RegisterBusiness(ctx context.Context, in models.BusinessRegistration) (models.AuthResult, error)
}

type State struct {
	User      *models.User
	Token     string
	IsLoading bool
	Error     string
}

func Initial() State {
	return State{}
}

func (s State) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// ==========================
// Thunks
// ==========================

func Login(client API, sessions session.Store) store.Thunk[models.Credentials, models.AuthResult] {
	return store.Thunk[models.Credentials, models.AuthResult]{
		Type: LoginType,
		Run: func(ctx context.Context, creds models.Credentials) (models.AuthResult, error) {
			if err := validate(creds, validation.LoginSchema); err != nil {
				return models.AuthResult{}, err
			}
			result, err := client.Login(ctx, creds)
			if err != nil {
				return models.AuthResult{}, err
			}
			return persist(ctx, sessions, result)
		},
	}
}

func RegisterStudent(client API, sessions session.Store) store.Thunk[models.StudentRegistration, models.AuthResult] {
	return store.Thunk[models.StudentRegistration, models.AuthResult]{
		Type: RegisterStudentType,
		Run: func(ctx context.Context, in models.StudentRegistration) (models.AuthResult, error) {
			if err := validate(in, validation.RegisterStudentSchema); err != nil {
				return models.AuthResult{}, err
			}
			result, err := client.RegisterStudent(ctx, in)
			if err != nil {
				return models.AuthResult{}, err
			}
			return persist(ctx, sessions, result)
		},
	}
}

func RegisterBusiness(client API, sessions session.Store) store.Thunk[models.BusinessRegistration, models.AuthResult] {
	return store.Thunk[models.BusinessRegistration, models.AuthResult]{
		Type: RegisterBusinessType,
		Run: func(ctx context.Context, in models.BusinessRegistration) (models.AuthResult, error) {
			if err := validate(in, validation.RegisterBusinessSchema); err != nil {
				return models.AuthResult{}, err
			}
			result, err := client.RegisterBusiness(ctx, in)
			if err != nil {
				return models.AuthResult{}, err
			}
			return persist(ctx, sessions, result)
		},
	}
}

func Logout(sessions session.Store) store.Thunk[struct{}, struct{}] {
	return store.Thunk[struct{}, struct{}]{
		Type: LogoutType,
		Run: func(ctx context.Context, _ struct{}) (struct{}, error) {
			return struct{}{}, sessions.ClearSession(ctx)
		},
	}
}

// Restore loads the persisted session. A token whose exp has passed is
// cleared instead of restored; opaque tokens are kept as they are.
func Restore(sessions session.Store, now func() time.Time) store.Thunk[struct{}, models.AuthResult] {
	if now == nil {
		now = time.Now
	}
	return store.Thunk[struct{}, models.AuthResult]{
		Type: RestoreType,
		Run: func(ctx context.Context, _ struct{}) (models.AuthResult, error) {
			token, err := sessions.GetToken(ctx)
			if err != nil || token == "" {
				return models.AuthResult{}, err
			}
			if claims, err := session.ParseClaims(token); err == nil && claims.Expired(now()) {
				return models.AuthResult{}, sessions.ClearSession(ctx)
			}
			user, err := sessions.GetUser(ctx)
			if err != nil {
				return models.AuthResult{}, err
			}
			if user == nil {
				return models.AuthResult{Token: token}, nil
			}
			return models.AuthResult{Token: token, User: *user}, nil
		},
	}
}

// SessionExpired is dispatched after a 401 cleared the stored session.
func SessionExpired() store.Action {
	return store.Action{Type: SessionExpiredType}
}

func persist(ctx context.Context, sessions session.Store, result models.AuthResult) (models.AuthResult, error) {
	if result.Token == "" {
		return models.AuthResult{}, errors.NewShapeMismatchError("token", "empty")
	}
	user := result.User
	if err := sessions.SetSession(ctx, result.Token, &user); err != nil {
		return models.AuthResult{}, err
	}
	return result, nil
}

// validate checks a request struct against schema through its JSON form,
// so omitempty fields count as absent.
func validate(in interface{}, schema validation.JSONSchema) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return errors.NewDecodeError("request", err)
	}
	input := map[string]interface{}{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return errors.NewDecodeError("request", err)
	}
	return validation.Validate(input, schema)
}

// ==========================
// Reducer
// ==========================

func Reduce(state State, action store.Action) State {
	switch action.Type {
	case store.Pending(LoginType), store.Pending(RegisterStudentType),
		store.Pending(RegisterBusinessType), store.Pending(LogoutType), store.Pending(RestoreType):
		state.IsLoading = true
		state.Error = ""

	case store.Rejected(LoginType), store.Rejected(RegisterStudentType),
		store.Rejected(RegisterBusinessType), store.Rejected(LogoutType), store.Rejected(RestoreType):
		state.IsLoading = false
		state.Error = action.Message()

	case store.Fulfilled(LoginType), store.Fulfilled(RegisterStudentType),
		store.Fulfilled(RegisterBusinessType), store.Fulfilled(RestoreType):
		state.IsLoading = false
		result, _ := store.PayloadAs[models.AuthResult](action)
		state.Token = result.Token
		state.User = nil
		if result.Token != "" && result.User.ID != "" {
			user := result.User
			state.User = &user
		}

	case store.Fulfilled(LogoutType):
		return Initial()

	case SessionExpiredType:
		next := Initial()
		next.Error = "Your session has expired, please sign in again"
		return next
	}
	return state
}
