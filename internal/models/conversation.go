package models

// Conversation is a direct thread between two users.
type Conversation struct {
	ID           string   `json:"id"`
	Participants []User   `json:"participants"`
	LastMessage  *Message `json:"lastMessage,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

// OtherParticipant returns the participant who is not userID, or nil.
func (c Conversation) OtherParticipant(userID string) *User {
	for i := range c.Participants {
		if c.Participants[i].ID != userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// Message is append-only per conversation.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Content        string `json:"content"`
	CreatedAt      string `json:"createdAt,omitempty"`

	// Pending marks a local optimistic entry not yet confirmed by the server.
	Pending bool `json:"-"`
}
