package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/models"
	"talent-sync/internal/session"
	"talent-sync/internal/store"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Login(ctx context.Context, creds models.Credentials) (models.AuthResult, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(models.AuthResult), args.Error(1)
}

func (m *MockAPI) RegisterStudent(ctx context.Context, in models.StudentRegistration) (models.AuthResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.AuthResult), args.Error(1)
}

func (m *MockAPI) RegisterBusiness(ctx context.Context, in models.BusinessRegistration) (models.AuthResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.AuthResult), args.Error(1)
}

func setup(t *testing.T) (*store.Store[State], store.Runtime, *MockAPI, *session.MemoryStore) {
	s := store.New(Initial(), Reduce, logger.NewTestLogger(t))
	return s, store.Runtime{Dispatcher: s}, new(MockAPI), session.NewMemoryStore()
}

var ada = models.User{ID: "u1", Role: models.RoleStudent, Email: "ada@uni.edu", StudentID: "s1"}

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// ==========================
// Login and registration
// ==========================

func TestLogin_PersistsSession(t *testing.T) {
	s, rt, client, sessions := setup(t)
	creds := models.Credentials{Email: "ada@uni.edu", Password: "secret1"}
	client.On("Login", mock.Anything, creds).Return(models.AuthResult{Token: "tok", User: ada}, nil)

	_, err := store.RunThunk(context.Background(), rt, Login(client, sessions), creds)
	require.NoError(t, err)

	state := s.GetState()
	assert.True(t, state.IsAuthenticated())
	assert.Equal(t, "u1", state.User.ID)

	token, _ := sessions.GetToken(context.Background())
	assert.Equal(t, "tok", token)
	user, _ := sessions.GetUser(context.Background())
	require.NotNil(t, user)
	assert.Equal(t, "s1", user.StudentID)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		creds   models.Credentials
		result  models.AuthResult
		err     error
		wantMsg string
		called  bool
	}{
		{
			name:    "bad email never reaches the server",
			creds:   models.Credentials{Email: "not-an-email", Password: "x"},
			wantMsg: "email has an invalid format",
		},
		{
			name:    "missing password",
			creds:   models.Credentials{Email: "ada@uni.edu"},
			wantMsg: "password must not be empty",
		},
		{
			name:    "server rejects",
			creds:   models.Credentials{Email: "ada@uni.edu", Password: "wrong"},
			err:     errors.NewHTTPError(400, "Invalid email or password", ""),
			wantMsg: "Invalid email or password",
			called:  true,
		},
		{
			name:    "no token in payload",
			creds:   models.Credentials{Email: "ada@uni.edu", Password: "secret1"},
			result:  models.AuthResult{User: ada},
			wantMsg: "expected token payload",
			called:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rt, client, sessions := setup(t)
			client.On("Login", mock.Anything, tt.creds).Return(tt.result, tt.err).Maybe()

			_, err := store.RunThunk(context.Background(), rt, Login(client, sessions), tt.creds)
			require.Error(t, err)

			state := s.GetState()
			assert.False(t, state.IsAuthenticated())
			assert.Equal(t, tt.wantMsg, state.Error)

			token, _ := sessions.GetToken(context.Background())
			assert.Empty(t, token)
			if !tt.called {
				client.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRegisterStudent(t *testing.T) {
	s, rt, client, sessions := setup(t)
	in := models.StudentRegistration{Email: "ada@uni.edu", Password: "secret1", FirstName: "Ada", LastName: "Lovelace", Year: 2}
	client.On("RegisterStudent", mock.Anything, in).Return(models.AuthResult{Token: "tok", User: ada}, nil)

	_, err := store.RunThunk(context.Background(), rt, RegisterStudent(client, sessions), in)
	require.NoError(t, err)
	assert.True(t, s.GetState().IsAuthenticated())

	short := in
	short.Password = "123"
	_, err = store.RunThunk(context.Background(), rt, RegisterStudent(client, sessions), short)
	require.Error(t, err)
	assert.Equal(t, "password must be at least 6 characters", s.GetState().Error)
}

func TestRegisterBusiness_RequiresCompany(t *testing.T) {
	s, rt, client, sessions := setup(t)
	in := models.BusinessRegistration{Email: "hr@acme.io", Password: "secret1", FirstName: "Grace", LastName: "Hopper"}

	_, err := store.RunThunk(context.Background(), rt, RegisterBusiness(client, sessions), in)
	require.Error(t, err)
	assert.Equal(t, "companyName must not be empty", s.GetState().Error)
	client.AssertNotCalled(t, "RegisterBusiness", mock.Anything, mock.Anything)
}

// ==========================
// Logout, restore and expiry
// ==========================

func TestLogout_ClearsSession(t *testing.T) {
	s, rt, client, sessions := setup(t)
	creds := models.Credentials{Email: "ada@uni.edu", Password: "secret1"}
	client.On("Login", mock.Anything, creds).Return(models.AuthResult{Token: "tok", User: ada}, nil)

	_, err := store.RunThunk(context.Background(), rt, Login(client, sessions), creds)
	require.NoError(t, err)
	_, err = store.RunThunk(context.Background(), rt, Logout(sessions), struct{}{})
	require.NoError(t, err)

	assert.Equal(t, Initial(), s.GetState())
	token, _ := sessions.GetToken(context.Background())
	assert.Empty(t, token)
}

func TestRestore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("nothing stored", func(t *testing.T) {
		s, rt, _, sessions := setup(t)
		_, err := store.RunThunk(context.Background(), rt, Restore(sessions, clock), struct{}{})
		require.NoError(t, err)
		assert.False(t, s.GetState().IsAuthenticated())
	})

	t.Run("opaque token restored", func(t *testing.T) {
		s, rt, _, sessions := setup(t)
		user := ada
		require.NoError(t, sessions.SetSession(context.Background(), "opaque-token", &user))

		_, err := store.RunThunk(context.Background(), rt, Restore(sessions, clock), struct{}{})
		require.NoError(t, err)
		assert.True(t, s.GetState().IsAuthenticated())
		assert.Equal(t, "opaque-token", s.GetState().Token)
	})

	t.Run("live jwt restored", func(t *testing.T) {
		s, rt, _, sessions := setup(t)
		user := ada
		require.NoError(t, sessions.SetSession(context.Background(), signToken(t, now.Add(time.Hour)), &user))

		_, err := store.RunThunk(context.Background(), rt, Restore(sessions, clock), struct{}{})
		require.NoError(t, err)
		assert.True(t, s.GetState().IsAuthenticated())
	})

	t.Run("expired jwt cleared", func(t *testing.T) {
		s, rt, _, sessions := setup(t)
		user := ada
		require.NoError(t, sessions.SetSession(context.Background(), signToken(t, now.Add(-time.Minute)), &user))

		_, err := store.RunThunk(context.Background(), rt, Restore(sessions, clock), struct{}{})
		require.NoError(t, err)
		assert.False(t, s.GetState().IsAuthenticated())

		token, _ := sessions.GetToken(context.Background())
		assert.Empty(t, token)
	})
}

func TestSessionExpired(t *testing.T) {
	state := Reduce(State{Token: "tok", User: &ada}, SessionExpired())
	assert.False(t, state.IsAuthenticated())
	assert.Nil(t, state.User)
	assert.NotEmpty(t, state.Error)
}
