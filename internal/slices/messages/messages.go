// Package messages holds conversations and their messages. Sends are
// applied optimistically and replaced by the server's copy once confirmed;
// an authoritative fetch always supersedes local patches.
package messages

import (
	"context"

	"talent-sync/internal/api"
	"talent-sync/internal/common/validation"
	"talent-sync/internal/models"
	"talent-sync/internal/store"
)

const (
	FetchConversationsType = "messages/fetchConversations"
	FetchMessagesType      = "messages/fetchMessages"
	SendMessageType        = "messages/sendMessage"
	CreateConversationType = "messages/createConversation"
	MessageReceivedType    = "messages/messageReceived"
)

// API is the part of the REST client this slice calls.
type API interface {
	GetConversations(ctx context.Context) (api.ListResult[models.Conversation], error)
	CreateConversation(ctx context.Context, participantIDs []string) (models.Conversation, error)
	GetMessages(ctx context.Context, conversationID string) (api.ListResult[models.Message], error)
	SendMessage(ctx context.Context, conversationID, content string) (models.Message, error)
}

// State shares one IsLoading/Error pair across every action of the slice.
type State struct {
	Conversations []models.Conversation
	Messages      map[string][]models.Message
	IsLoading     bool
	Error         string
}

func Initial() State {
	return State{
		Conversations: []models.Conversation{},
		Messages:      map[string][]models.Message{},
	}
}

// SendArgs is the argument of SendMessage.
type SendArgs struct {
	ConversationID string
	SenderID       string
	Content        string
}

// ==========================
// Thunks
// ==========================

func FetchConversations(client API) store.Thunk[struct{}, api.ListResult[models.Conversation]] {
	return store.Thunk[struct{}, api.ListResult[models.Conversation]]{
		Type: FetchConversationsType,
		Run: func(ctx context.Context, _ struct{}) (api.ListResult[models.Conversation], error) {
			return client.GetConversations(ctx)
		},
	}
}

func FetchMessages(client API) store.Thunk[string, api.ListResult[models.Message]] {
	return store.Thunk[string, api.ListResult[models.Message]]{
		Type: FetchMessagesType,
		Run: func(ctx context.Context, conversationID string) (api.ListResult[models.Message], error) {
			return client.GetMessages(ctx, conversationID)
		},
	}
}

func SendMessage(client API) store.Thunk[SendArgs, models.Message] {
	return store.Thunk[SendArgs, models.Message]{
		Type: SendMessageType,
		Run: func(ctx context.Context, args SendArgs) (models.Message, error) {
			if err := validation.Validate(map[string]interface{}{
				"conversationId": args.ConversationID,
				"content":        args.Content,
			}, validation.MessageSchema); err != nil {
				return models.Message{}, err
			}
			return client.SendMessage(ctx, args.ConversationID, args.Content)
		},
	}
}

func CreateConversation(client API) store.Thunk[[]string, models.Conversation] {
	return store.Thunk[[]string, models.Conversation]{
		Type: CreateConversationType,
		Run: func(ctx context.Context, participantIDs []string) (models.Conversation, error) {
			if err := validation.Validate(map[string]interface{}{
				"participantIds": participantIDs,
			}, validation.ConversationSchema); err != nil {
				return models.Conversation{}, err
			}
			return client.CreateConversation(ctx, participantIDs)
		},
	}
}

// MessageReceived is dispatched for a message pushed by the realtime feed.
func MessageReceived(msg models.Message) store.Action {
	return store.Action{Type: MessageReceivedType, Payload: msg}
}

// ==========================
// Reducer
// ==========================

func Reduce(state State, action store.Action) State {
	switch action.Type {
	case store.Pending(FetchConversationsType),
		store.Pending(FetchMessagesType),
		store.Pending(CreateConversationType):
		state.IsLoading = true
		state.Error = ""

	case store.Rejected(FetchConversationsType),
		store.Rejected(FetchMessagesType),
		store.Rejected(CreateConversationType):
		// stale-but-present: failures never clear what is already cached
		state.IsLoading = false
		state.Error = action.Message()

	case store.Fulfilled(FetchConversationsType):
		state.IsLoading = false
		result, _ := store.PayloadAs[api.ListResult[models.Conversation]](action)
		state.Conversations = result.OrEmpty()

	case store.Fulfilled(FetchMessagesType):
		state.IsLoading = false
		convID, _ := store.ArgAs[string](action)
		result, _ := store.PayloadAs[api.ListResult[models.Message]](action)
		state.Messages = withThread(state.Messages, convID, result.OrEmpty())

	case store.Pending(SendMessageType):
		state.IsLoading = true
		state.Error = ""
		args, _ := store.ArgAs[SendArgs](action)
		optimistic := models.Message{
			ID:             action.Meta.RequestID,
			ConversationID: args.ConversationID,
			SenderID:       args.SenderID,
			Content:        args.Content,
			Pending:        true,
		}
		thread := append(copyThread(state.Messages[args.ConversationID]), optimistic)
		state.Messages = withThread(state.Messages, args.ConversationID, thread)
		state.Conversations = moveToFront(state.Conversations, args.ConversationID, nil)

	case store.Fulfilled(SendMessageType):
		state.IsLoading = false
		args, _ := store.ArgAs[SendArgs](action)
		msg, _ := store.PayloadAs[models.Message](action)
		if msg.ConversationID == "" {
			msg.ConversationID = args.ConversationID
		}
		state.Messages = withThread(state.Messages, args.ConversationID,
			confirm(state.Messages[args.ConversationID], action.Meta.RequestID, msg))
		state.Conversations = moveToFront(state.Conversations, args.ConversationID, &msg)

	case store.Rejected(SendMessageType):
		state.IsLoading = false
		state.Error = action.Message()
		args, _ := store.ArgAs[SendArgs](action)
		state.Messages = withThread(state.Messages, args.ConversationID,
			without(state.Messages[args.ConversationID], action.Meta.RequestID))

	case store.Fulfilled(CreateConversationType):
		state.IsLoading = false
		conv, _ := store.PayloadAs[models.Conversation](action)
		state.Conversations = upsertConversation(state.Conversations, conv)

	case MessageReceivedType:
		msg, ok := store.PayloadAs[models.Message](action)
		if !ok || msg.ConversationID == "" {
			return state
		}
		thread := state.Messages[msg.ConversationID]
		if indexOf(thread, msg.ID) >= 0 {
			return state
		}
		state.Messages = withThread(state.Messages, msg.ConversationID, append(copyThread(thread), msg))
		state.Conversations = moveToFront(state.Conversations, msg.ConversationID, &msg)
	}
	return state
}

// ==========================
// Copy-on-write helpers
// ==========================

func copyThread(thread []models.Message) []models.Message {
	out := make([]models.Message, len(thread), len(thread)+1)
	copy(out, thread)
	return out
}

func withThread(messages map[string][]models.Message, convID string, thread []models.Message) map[string][]models.Message {
	out := make(map[string][]models.Message, len(messages)+1)
	for k, v := range messages {
		out[k] = v
	}
	out[convID] = thread
	return out
}

func indexOf(thread []models.Message, id string) int {
	for i, m := range thread {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// confirm swaps the optimistic entry for the server's message. If the
// server message already arrived some other way, the optimistic entry is
// simply dropped.
func confirm(thread []models.Message, optimisticID string, msg models.Message) []models.Message {
	if indexOf(thread, msg.ID) >= 0 {
		return without(thread, optimisticID)
	}
	out := copyThread(thread)
	if i := indexOf(out, optimisticID); i >= 0 {
		out[i] = msg
		return out
	}
	return append(out, msg)
}

func without(thread []models.Message, id string) []models.Message {
	out := make([]models.Message, 0, len(thread))
	for _, m := range thread {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

// moveToFront moves the conversation to index 0, optionally recording its
// latest message. Unknown ids leave the list untouched.
func moveToFront(convs []models.Conversation, convID string, last *models.Message) []models.Conversation {
	idx := -1
	for i, c := range convs {
		if c.ID == convID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return convs
	}

	moved := convs[idx]
	if last != nil {
		m := *last
		moved.LastMessage = &m
		if m.CreatedAt != "" {
			moved.UpdatedAt = m.CreatedAt
		}
	}

	out := make([]models.Conversation, 0, len(convs))
	out = append(out, moved)
	out = append(out, convs[:idx]...)
	return append(out, convs[idx+1:]...)
}

func upsertConversation(convs []models.Conversation, conv models.Conversation) []models.Conversation {
	for i, c := range convs {
		if c.ID == conv.ID {
			out := make([]models.Conversation, len(convs))
			copy(out, convs)
			out[i] = conv
			return out
		}
	}
	return append([]models.Conversation{conv}, convs...)
}
