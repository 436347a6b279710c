package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
		errMsg  string
	}{
		{
			name: "student with student id",
			user: User{ID: "u1", Role: RoleStudent, StudentID: "s1"},
		},
		{
			name: "business without profile yet",
			user: User{ID: "u2", Role: RoleBusiness},
		},
		{
			name:    "both profile ids",
			user:    User{ID: "u3", Role: RoleStudent, StudentID: "s1", BusinessID: "b1"},
			wantErr: true,
			errMsg:  "both studentId and businessId",
		},
		{
			name:    "student carrying business id",
			user:    User{ID: "u4", Role: RoleStudent, BusinessID: "b1"},
			wantErr: true,
			errMsg:  "must not carry a businessId",
		},
		{
			name:    "business carrying student id",
			user:    User{ID: "u5", Role: RoleBusiness, StudentID: "s1"},
			wantErr: true,
			errMsg:  "must not carry a studentId",
		},
		{
			name:    "unknown role",
			user:    User{ID: "u6", Role: "ADMIN"},
			wantErr: true,
			errMsg:  "unknown role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUser_FullNameAndProfileID(t *testing.T) {
	u := User{FirstName: "Ada", LastName: "Lovelace", Role: RoleStudent, StudentID: "s1"}
	assert.Equal(t, "Ada Lovelace", u.FullName())
	assert.Equal(t, "s1", u.ProfileID())

	b := User{FirstName: "Acme", Role: RoleBusiness, BusinessID: "b1"}
	assert.Equal(t, "Acme", b.FullName())
	assert.Equal(t, "b1", b.ProfileID())
}

func TestTalent_NewestFirstFilesLeavesStorageOrder(t *testing.T) {
	talent := Talent{Files: []string{"a.png", "b.png", "c.png"}}

	assert.Equal(t, []string{"c.png", "b.png", "a.png"}, talent.NewestFirstFiles())
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, talent.Files)
	assert.Empty(t, Talent{}.NewestFirstFiles())
}

func TestConversation_OtherParticipant(t *testing.T) {
	conv := Conversation{Participants: []User{{ID: "u1"}, {ID: "u2"}}}

	other := conv.OtherParticipant("u1")
	require.NotNil(t, other)
	assert.Equal(t, "u2", other.ID)

	assert.Nil(t, Conversation{Participants: []User{{ID: "u1"}}}.OtherParticipant("u1"))
}

func TestMessage_PendingNotSerialized(t *testing.T) {
	raw, err := json.Marshal(Message{ID: "m1", Content: "hi", Pending: true})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ending")
}

func TestFollowKey(t *testing.T) {
	assert.Equal(t, "a-b", FollowKey("a", "b"))
	assert.NotEqual(t, FollowKey("a", "b"), FollowKey("b", "a"))
}

func TestApplicationStatus_IsDecided(t *testing.T) {
	assert.False(t, ApplicationPending.IsDecided())
	assert.True(t, ApplicationAccepted.IsDecided())
	assert.True(t, ApplicationRejected.IsDecided())
}
