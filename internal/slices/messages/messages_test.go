package messages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"talent-sync/internal/api"
	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/models"
	"talent-sync/internal/store"
)

// ==========================
// Mock API
// ==========================

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetConversations(ctx context.Context) (api.ListResult[models.Conversation], error) {
	args := m.Called(ctx)
	return args.Get(0).(api.ListResult[models.Conversation]), args.Error(1)
}

func (m *MockAPI) CreateConversation(ctx context.Context, participantIDs []string) (models.Conversation, error) {
	args := m.Called(ctx, participantIDs)
	return args.Get(0).(models.Conversation), args.Error(1)
}

func (m *MockAPI) GetMessages(ctx context.Context, conversationID string) (api.ListResult[models.Message], error) {
	args := m.Called(ctx, conversationID)
	return args.Get(0).(api.ListResult[models.Message]), args.Error(1)
}

func (m *MockAPI) SendMessage(ctx context.Context, conversationID, content string) (models.Message, error) {
	args := m.Called(ctx, conversationID, content)
	return args.Get(0).(models.Message), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

type harness struct {
	store *store.Store[State]
	rt    store.Runtime
	api   *MockAPI
}

func newHarness(t *testing.T, initial State) *harness {
	s := store.New(initial, Reduce, logger.NewTestLogger(t))
	return &harness{
		store: s,
		rt:    store.Runtime{Dispatcher: s, Logger: logger.NewTestLogger(t)},
		api:   new(MockAPI),
	}
}

func conversations(ids ...string) []models.Conversation {
	out := make([]models.Conversation, len(ids))
	for i, id := range ids {
		out[i] = models.Conversation{ID: id}
	}
	return out
}

func ids(convs []models.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}

// ==========================
// FetchConversations
// ==========================

func TestFetchConversations_Replaces(t *testing.T) {
	h := newHarness(t, State{Conversations: conversations("old")})
	h.api.On("GetConversations", mock.Anything).
		Return(api.ListResult[models.Conversation]{Items: conversations("c1", "c2")}, nil)

	_, err := store.RunThunk(context.Background(), h.rt, FetchConversations(h.api), struct{}{})
	require.NoError(t, err)

	state := h.store.GetState()
	assert.Equal(t, []string{"c1", "c2"}, ids(state.Conversations))
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.Error)
	h.api.AssertExpectations(t)
}

func TestFetchConversations_StaleButPresent(t *testing.T) {
	h := newHarness(t, State{Conversations: conversations("c1")})
	h.api.On("GetConversations", mock.Anything).
		Return(api.ListResult[models.Conversation]{}, errors.NewHTTPError(500, "Database unavailable", ""))

	_, err := store.RunThunk(context.Background(), h.rt, FetchConversations(h.api), struct{}{})
	require.Error(t, err)

	state := h.store.GetState()
	assert.Equal(t, []string{"c1"}, ids(state.Conversations))
	assert.Equal(t, "Database unavailable", state.Error)
	assert.False(t, state.IsLoading)
}

func TestFetchConversations_WrongShapeCoercesToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		result api.ListResult[models.Conversation]
	}{
		{"shape mismatch", api.ListResult[models.Conversation]{Err: errors.NewShapeMismatchError("array", "object")}},
		{"missing data", api.ListResult[models.Conversation]{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, State{Conversations: conversations("c1", "c2")})
			h.api.On("GetConversations", mock.Anything).Return(tt.result, nil)

			_, err := store.RunThunk(context.Background(), h.rt, FetchConversations(h.api), struct{}{})
			require.NoError(t, err)

			state := h.store.GetState()
			assert.NotNil(t, state.Conversations)
			assert.Empty(t, state.Conversations)
			assert.Empty(t, state.Error)
		})
	}
}

// ==========================
// FetchMessages
// ==========================

func TestFetchMessages_ReplacesThread(t *testing.T) {
	initial := Initial()
	initial.Messages["c1"] = []models.Message{{ID: "tmp", Pending: true}}
	initial.Messages["c2"] = []models.Message{{ID: "keep"}}
	h := newHarness(t, initial)

	h.api.On("GetMessages", mock.Anything, "c1").
		Return(api.ListResult[models.Message]{Items: []models.Message{{ID: "m1"}, {ID: "m2"}}}, nil)

	_, err := store.RunThunk(context.Background(), h.rt, FetchMessages(h.api), "c1")
	require.NoError(t, err)

	state := h.store.GetState()
	require.Len(t, state.Messages["c1"], 2)
	assert.Equal(t, "m1", state.Messages["c1"][0].ID)
	assert.Equal(t, "keep", state.Messages["c2"][0].ID)

	// the reducer never mutates the previous state's map
	assert.Equal(t, "tmp", initial.Messages["c1"][0].ID)
}

func TestFetchMessages_WrongShapeCoercesToEmpty(t *testing.T) {
	initial := Initial()
	initial.Messages["c1"] = []models.Message{{ID: "m1", ConversationID: "c1"}}
	h := newHarness(t, initial)
	h.api.On("GetMessages", mock.Anything, "c1").
		Return(api.ListResult[models.Message]{Err: errors.NewShapeMismatchError("array", "string")}, nil)

	_, err := store.RunThunk(context.Background(), h.rt, FetchMessages(h.api), "c1")
	require.NoError(t, err)

	thread, ok := h.store.GetState().Messages["c1"]
	require.True(t, ok)
	assert.NotNil(t, thread)
	assert.Empty(t, thread)
}

// ==========================
// SendMessage
// ==========================

func TestSendMessage_OptimisticThenConfirmed(t *testing.T) {
	h := newHarness(t, State{Conversations: conversations("c0", "c1", "c2")})

	h.api.On("SendMessage", mock.Anything, "c1", "hi").
		Return(models.Message{ID: "m9", ConversationID: "c1", SenderID: "u1", Content: "hi", CreatedAt: "2026-01-01T00:00:00Z"}, nil)

	var optimistic State
	h.store.Subscribe(func(state State, action store.Action) {
		if action.Type == store.Pending(SendMessageType) {
			optimistic = state
		}
	})

	_, err := store.RunThunk(context.Background(), h.rt, SendMessage(h.api),
		SendArgs{ConversationID: "c1", SenderID: "u1", Content: "hi"})
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c0", "c2"}, ids(optimistic.Conversations))
	require.Len(t, optimistic.Messages["c1"], 1)
	assert.Equal(t, "hi", optimistic.Messages["c1"][0].Content)
	assert.True(t, optimistic.Messages["c1"][0].Pending)

	state := h.store.GetState()
	assert.Equal(t, []string{"c1", "c0", "c2"}, ids(state.Conversations))
	require.Len(t, state.Messages["c1"], 1)
	assert.Equal(t, "m9", state.Messages["c1"][0].ID)
	assert.False(t, state.Messages["c1"][0].Pending)
	require.NotNil(t, state.Conversations[0].LastMessage)
	assert.Equal(t, "hi", state.Conversations[0].LastMessage.Content)
	assert.Equal(t, "2026-01-01T00:00:00Z", state.Conversations[0].UpdatedAt)
}

func TestSendMessage_RejectedRemovesOptimisticEntry(t *testing.T) {
	initial := Initial()
	initial.Conversations = conversations("c0", "c1")
	initial.Messages["c1"] = []models.Message{{ID: "m1", Content: "earlier"}}
	h := newHarness(t, initial)

	h.api.On("SendMessage", mock.Anything, "c1", "hi").
		Return(models.Message{}, errors.NewHTTPError(403, "You are not part of this conversation", ""))

	_, err := store.RunThunk(context.Background(), h.rt, SendMessage(h.api),
		SendArgs{ConversationID: "c1", SenderID: "u1", Content: "hi"})
	require.Error(t, err)

	state := h.store.GetState()
	require.Len(t, state.Messages["c1"], 1)
	assert.Equal(t, "m1", state.Messages["c1"][0].ID)
	assert.Equal(t, "You are not part of this conversation", state.Error)
}

func TestSendMessage_ValidationRejectsEmptyContent(t *testing.T) {
	h := newHarness(t, State{Conversations: conversations("c1")})

	_, err := store.RunThunk(context.Background(), h.rt, SendMessage(h.api),
		SendArgs{ConversationID: "c1", SenderID: "u1", Content: "   "})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))

	state := h.store.GetState()
	assert.Empty(t, state.Messages["c1"])
	assert.Equal(t, "content must not be empty", state.Error)
	h.api.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessage_ConfirmAfterRealtimeDelivery(t *testing.T) {
	h := newHarness(t, State{Conversations: conversations("c1")})
	server := models.Message{ID: "m9", ConversationID: "c1", Content: "hi"}

	h.api.On("SendMessage", mock.Anything, "c1", "hi").
		Run(func(mock.Arguments) { h.store.Dispatch(MessageReceived(server)) }).
		Return(server, nil)

	_, err := store.RunThunk(context.Background(), h.rt, SendMessage(h.api),
		SendArgs{ConversationID: "c1", SenderID: "u1", Content: "hi"})
	require.NoError(t, err)

	thread := h.store.GetState().Messages["c1"]
	require.Len(t, thread, 1)
	assert.Equal(t, "m9", thread[0].ID)
}

// ==========================
// CreateConversation
// ==========================

func TestCreateConversation_DedupByID(t *testing.T) {
	h := newHarness(t, State{Conversations: conversations("c0")})
	h.api.On("CreateConversation", mock.Anything, []string{"u1", "u2"}).
		Return(models.Conversation{ID: "c7", UpdatedAt: "t1"}, nil).Once()
	h.api.On("CreateConversation", mock.Anything, []string{"u1", "u2"}).
		Return(models.Conversation{ID: "c7", UpdatedAt: "t2"}, nil).Once()

	for i := 0; i < 2; i++ {
		_, err := store.RunThunk(context.Background(), h.rt, CreateConversation(h.api), []string{"u1", "u2"})
		require.NoError(t, err)
	}

	state := h.store.GetState()
	assert.Equal(t, []string{"c7", "c0"}, ids(state.Conversations))
	assert.Equal(t, "t2", state.Conversations[0].UpdatedAt)
}

func TestCreateConversation_ReplacesInPlace(t *testing.T) {
	h := newHarness(t, State{Conversations: conversations("c0", "c7", "c9")})
	h.api.On("CreateConversation", mock.Anything, []string{"u1", "u2"}).
		Return(models.Conversation{ID: "c7", UpdatedAt: "fresh"}, nil)

	_, err := store.RunThunk(context.Background(), h.rt, CreateConversation(h.api), []string{"u1", "u2"})
	require.NoError(t, err)

	state := h.store.GetState()
	assert.Equal(t, []string{"c0", "c7", "c9"}, ids(state.Conversations))
	assert.Equal(t, "fresh", state.Conversations[1].UpdatedAt)
}

func TestCreateConversation_NeedsTwoParticipants(t *testing.T) {
	h := newHarness(t, Initial())

	_, err := store.RunThunk(context.Background(), h.rt, CreateConversation(h.api), []string{"u1"})
	require.Error(t, err)
	assert.Contains(t, errors.UserMessage(err), "participantIds")
	h.api.AssertNotCalled(t, "CreateConversation", mock.Anything, mock.Anything)
}

// ==========================
// MessageReceived
// ==========================

func TestMessageReceived(t *testing.T) {
	h := newHarness(t, State{Conversations: conversations("c0", "c1")})
	msg := models.Message{ID: "m1", ConversationID: "c1", Content: "yo"}

	h.store.Dispatch(MessageReceived(msg))
	h.store.Dispatch(MessageReceived(msg))

	state := h.store.GetState()
	require.Len(t, state.Messages["c1"], 1)
	assert.Equal(t, []string{"c1", "c0"}, ids(state.Conversations))

	// unknown conversations get a thread but the list is left for the next fetch
	h.store.Dispatch(MessageReceived(models.Message{ID: "m2", ConversationID: "c5"}))
	state = h.store.GetState()
	assert.Len(t, state.Messages["c5"], 1)
	assert.Equal(t, []string{"c1", "c0"}, ids(state.Conversations))
}
