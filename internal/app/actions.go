package app

import (
	"context"

	"talent-sync/internal/api"
	"talent-sync/internal/common/errors"
	"talent-sync/internal/models"
	"talent-sync/internal/slices/applications"
	"talent-sync/internal/slices/auth"
	"talent-sync/internal/slices/follows"
	"talent-sync/internal/slices/messages"
	"talent-sync/internal/slices/talents"
	"talent-sync/internal/store"
)

// ==========================
// Identity
// ==========================

func (a *App) Login(ctx context.Context, creds models.Credentials) (models.AuthResult, error) {
	return store.RunThunk(ctx, a.runtime(), auth.Login(a.client, a.sessions), creds)
}

func (a *App) RegisterStudent(ctx context.Context, in models.StudentRegistration) (models.AuthResult, error) {
	return store.RunThunk(ctx, a.runtime(), auth.RegisterStudent(a.client, a.sessions), in)
}

func (a *App) RegisterBusiness(ctx context.Context, in models.BusinessRegistration) (models.AuthResult, error) {
	return store.RunThunk(ctx, a.runtime(), auth.RegisterBusiness(a.client, a.sessions), in)
}

func (a *App) Logout(ctx context.Context) error {
	_, err := store.RunThunk(ctx, a.runtime(), auth.Logout(a.sessions), struct{}{})
	return err
}

// Restore loads the persisted session into the store.
func (a *App) Restore(ctx context.Context) error {
	_, err := store.RunThunk(ctx, a.runtime(), auth.Restore(a.sessions, a.now), struct{}{})
	return err
}

// CurrentUser returns the signed-in user, or NOT_AUTHENTICATED.
func (a *App) CurrentUser() (models.User, error) {
	state := a.store.GetState().Auth
	if !state.IsAuthenticated() {
		return models.User{}, errors.NewNotAuthenticatedError()
	}
	return *state.User, nil
}

func (a *App) currentStudentID() (string, error) {
	user, err := a.CurrentUser()
	if err != nil {
		return "", err
	}
	if user.Role != models.RoleStudent || user.StudentID == "" {
		return "", errors.NewValidationError("This action needs a student profile", "role "+string(user.Role))
	}
	return user.StudentID, nil
}

// ==========================
// Messages
// ==========================

func (a *App) FetchConversations(ctx context.Context) error {
	_, err := store.RunThunk(ctx, a.runtime(), messages.FetchConversations(a.client), struct{}{})
	return err
}

func (a *App) FetchMessages(ctx context.Context, conversationID string) error {
	_, err := store.RunThunk(ctx, a.runtime(), messages.FetchMessages(a.client), conversationID)
	return err
}

func (a *App) SendMessage(ctx context.Context, conversationID, content string) (models.Message, error) {
	user, err := a.CurrentUser()
	if err != nil {
		return models.Message{}, err
	}
	return store.RunThunk(ctx, a.runtime(), messages.SendMessage(a.client), messages.SendArgs{
		ConversationID: conversationID,
		SenderID:       user.ID,
		Content:        content,
	})
}

func (a *App) CreateConversation(ctx context.Context, participantIDs []string) (models.Conversation, error) {
	return store.RunThunk(ctx, a.runtime(), messages.CreateConversation(a.client), participantIDs)
}

// StartConversation opens (or reuses) a direct thread with another user.
func (a *App) StartConversation(ctx context.Context, otherUserID string) (models.Conversation, error) {
	user, err := a.CurrentUser()
	if err != nil {
		return models.Conversation{}, err
	}
	return a.CreateConversation(ctx, []string{user.ID, otherUserID})
}

// ==========================
// Talents
// ==========================

func (a *App) FetchAllTalents(ctx context.Context) error {
	_, err := store.RunThunk(ctx, a.runtime(), talents.FetchAllTalents(a.client), struct{}{})
	return err
}

func (a *App) FetchStudentTalents(ctx context.Context, studentID string) error {
	_, err := store.RunThunk(ctx, a.runtime(), talents.FetchStudentTalents(a.client), studentID)
	return err
}

func (a *App) AddTalent(ctx context.Context, in models.TalentInput, files []api.File) (models.Talent, error) {
	studentID, err := a.currentStudentID()
	if err != nil {
		return models.Talent{}, err
	}
	return store.RunThunk(ctx, a.runtime(), talents.AddTalent(a.client),
		talents.TalentArgs{StudentID: studentID, Input: in, Files: files})
}

func (a *App) UpdateTalent(ctx context.Context, talentID string, in models.TalentInput, files []api.File) (models.Talent, error) {
	studentID, err := a.currentStudentID()
	if err != nil {
		return models.Talent{}, err
	}
	return store.RunThunk(ctx, a.runtime(), talents.UpdateTalent(a.client),
		talents.TalentArgs{StudentID: studentID, TalentID: talentID, Input: in, Files: files})
}

func (a *App) DeleteTalent(ctx context.Context, talentID string) error {
	studentID, err := a.currentStudentID()
	if err != nil {
		return err
	}
	_, err = store.RunThunk(ctx, a.runtime(), talents.DeleteTalent(a.client),
		talents.TalentArgs{StudentID: studentID, TalentID: talentID})
	return err
}

func (a *App) LikeTalent(ctx context.Context, talentID string) error {
	return a.social(ctx, talents.LikeTalent(a.client), talentID, "")
}

func (a *App) SaveTalent(ctx context.Context, talentID string) error {
	return a.social(ctx, talents.SaveTalent(a.client), talentID, "")
}

func (a *App) RequestCollaboration(ctx context.Context, talentID, message string) error {
	return a.social(ctx, talents.RequestCollaboration(a.client), talentID, message)
}

func (a *App) social(ctx context.Context, thunk store.Thunk[talents.SocialArgs, models.SocialAction], talentID, message string) error {
	studentID, err := a.currentStudentID()
	if err != nil {
		return err
	}
	_, err = store.RunThunk(ctx, a.runtime(), thunk,
		talents.SocialArgs{StudentID: studentID, TalentID: talentID, Message: message})
	return err
}

func (a *App) FetchLikedTalents(ctx context.Context) error {
	studentID, err := a.currentStudentID()
	if err != nil {
		return err
	}
	_, err = store.RunThunk(ctx, a.runtime(), talents.FetchLikedTalents(a.client), studentID)
	return err
}

func (a *App) FetchSavedTalents(ctx context.Context) error {
	studentID, err := a.currentStudentID()
	if err != nil {
		return err
	}
	_, err = store.RunThunk(ctx, a.runtime(), talents.FetchSavedTalents(a.client), studentID)
	return err
}

// ==========================
// Follows
// ==========================

func (a *App) FetchFollowers(ctx context.Context, userID string) error {
	_, err := store.RunThunk(ctx, a.runtime(), follows.FetchFollowers(a.client), userID)
	return err
}

func (a *App) FetchFollowing(ctx context.Context, userID string) error {
	_, err := store.RunThunk(ctx, a.runtime(), follows.FetchFollowing(a.client), userID)
	return err
}

// Follow makes the signed-in user follow userID.
func (a *App) Follow(ctx context.Context, userID string) error {
	user, err := a.CurrentUser()
	if err != nil {
		return err
	}
	_, err = store.RunThunk(ctx, a.runtime(), follows.FollowUser(a.client),
		follows.Pair{FollowerID: user.ID, FollowingID: userID})
	return err
}

func (a *App) Unfollow(ctx context.Context, userID string) error {
	user, err := a.CurrentUser()
	if err != nil {
		return err
	}
	_, err = store.RunThunk(ctx, a.runtime(), follows.UnfollowUser(a.client),
		follows.Pair{FollowerID: user.ID, FollowingID: userID})
	return err
}

func (a *App) CheckFollowStatus(ctx context.Context, followerID, followingID string) (bool, error) {
	status, err := store.RunThunk(ctx, a.runtime(), follows.CheckFollowStatus(a.client),
		follows.Pair{FollowerID: followerID, FollowingID: followingID})
	return status.IsFollowing, err
}

// ==========================
// Applications
// ==========================

func (a *App) FetchMyApplications(ctx context.Context) error {
	studentID, err := a.currentStudentID()
	if err != nil {
		return err
	}
	_, err = store.RunThunk(ctx, a.runtime(), applications.FetchStudentApplications(a.client), studentID)
	return err
}

func (a *App) FetchJobApplications(ctx context.Context, jobID string) error {
	_, err := store.RunThunk(ctx, a.runtime(), applications.FetchJobApplications(a.client), jobID)
	return err
}

func (a *App) ApplyToJob(ctx context.Context, jobID, coverLetter string) (models.Application, error) {
	return store.RunThunk(ctx, a.runtime(), applications.ApplyToJob(a.client),
		applications.ApplyArgs{JobID: jobID, CoverLetter: coverLetter})
}

func (a *App) UpdateApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) (models.Application, error) {
	return store.RunThunk(ctx, a.runtime(), applications.UpdateApplicationStatus(a.client),
		applications.StatusArgs{ApplicationID: applicationID, Status: status})
}
