package talents

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

func (m *MockAPI) GetAllTalents(ctx context.Context) (api.ListResult[models.Talent], error) {
	args := m.Called(ctx)
	return args.Get(0).(api.ListResult[models.Talent]), args.Error(1)
}

func (m *MockAPI) GetStudentTalents(ctx context.Context, studentID string) (api.ListResult[models.Talent], error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(api.ListResult[models.Talent]), args.Error(1)
}

func (m *MockAPI) AddTalent(ctx context.Context, studentID string, in models.TalentInput, files []api.File) (models.Talent, error) {
	args := m.Called(ctx, studentID, in, files)
	return args.Get(0).(models.Talent), args.Error(1)
}

func (m *MockAPI) UpdateTalent(ctx context.Context, studentID, talentID string, in models.TalentInput, files []api.File) (models.Talent, error) {
	args := m.Called(ctx, studentID, talentID, in, files)
	return args.Get(0).(models.Talent), args.Error(1)
}

func (m *MockAPI) DeleteTalent(ctx context.Context, studentID, talentID string) error {
	return m.Called(ctx, studentID, talentID).Error(0)
}

func (m *MockAPI) LikeTalent(ctx context.Context, studentID, talentID string) error {
	return m.Called(ctx, studentID, talentID).Error(0)
}

func (m *MockAPI) SaveTalent(ctx context.Context, studentID, talentID string) error {
	return m.Called(ctx, studentID, talentID).Error(0)
}

func (m *MockAPI) RequestCollaboration(ctx context.Context, studentID, talentID, message string) error {
	return m.Called(ctx, studentID, talentID, message).Error(0)
}

func (m *MockAPI) GetLikedTalents(ctx context.Context, studentID string) []models.Talent {
	return m.Called(ctx, studentID).Get(0).([]models.Talent)
}

func (m *MockAPI) GetSavedTalents(ctx context.Context, studentID string) []models.Talent {
	return m.Called(ctx, studentID).Get(0).([]models.Talent)
}

// ==========================
// Test Helpers
// ==========================

func setup(t *testing.T, initial State) (*store.Store[State], store.Runtime, *MockAPI) {
	s := store.New(initial, Reduce, logger.NewTestLogger(t))
	return s, store.Runtime{Dispatcher: s}, new(MockAPI)
}

func talentIDs(list []models.Talent) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}

var validInput = models.TalentInput{Title: "Jazz piano", Category: "Music"}

// ==========================
// Fetches
// ==========================

func TestFetchAllTalents(t *testing.T) {
	tests := []struct {
		name   string
		result api.ListResult[models.Talent]
		want   []string
	}{
		{
			name:   "array payload replaces the list",
			result: api.ListResult[models.Talent]{Items: []models.Talent{{ID: "t1"}, {ID: "t2"}}},
			want:   []string{"t1", "t2"},
		},
		{
			name:   "non-array payload coerces to empty",
			result: api.ListResult[models.Talent]{Err: errors.NewShapeMismatchError("array", "object")},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initial := Initial()
			initial.Talents = []models.Talent{{ID: "stale"}}
			s, rt, client := setup(t, initial)
			client.On("GetAllTalents", mock.Anything).Return(tt.result, nil)

			_, err := store.RunThunk(context.Background(), rt, FetchAllTalents(client), struct{}{})
			require.NoError(t, err)

			state := s.GetState()
			assert.NotNil(t, state.Talents)
			assert.Equal(t, tt.want, talentIDs(state.Talents))
			assert.False(t, state.IsLoading)
		})
	}
}

func TestFetchAllTalents_RejectedKeepsList(t *testing.T) {
	initial := Initial()
	initial.Talents = []models.Talent{{ID: "t1"}}
	s, rt, client := setup(t, initial)
	client.On("GetAllTalents", mock.Anything).
		Return(api.ListResult[models.Talent]{}, errors.NewHTTPError(503, "", ""))

	_, err := store.RunThunk(context.Background(), rt, FetchAllTalents(client), struct{}{})
	require.Error(t, err)

	state := s.GetState()
	assert.Equal(t, []string{"t1"}, talentIDs(state.Talents))
	assert.Equal(t, "request failed with status code 503", state.Error)
}

func TestFetchStudentTalents(t *testing.T) {
	s, rt, client := setup(t, Initial())
	client.On("GetStudentTalents", mock.Anything, "s1").
		Return(api.ListResult[models.Talent]{Items: []models.Talent{{ID: "t1", StudentID: "s1"}}}, nil)

	_, err := store.RunThunk(context.Background(), rt, FetchStudentTalents(client), "s1")
	require.NoError(t, err)

	assert.Equal(t, []string{"t1"}, talentIDs(s.GetState().ByStudent["s1"]))
	assert.Empty(t, s.GetState().Talents)
}

// ==========================
// Mutations
// ==========================

func TestAddTalent_Unshifts(t *testing.T) {
	initial := Initial()
	initial.Talents = []models.Talent{{ID: "t1"}}
	initial.ByStudent["s1"] = []models.Talent{{ID: "t1", StudentID: "s1"}}
	s, rt, client := setup(t, initial)

	added := models.Talent{ID: "t2", StudentID: "s1", Title: "Jazz piano"}
	client.On("AddTalent", mock.Anything, "s1", validInput, []api.File(nil)).Return(added, nil)

	got, err := store.RunThunk(context.Background(), rt, AddTalent(client), TalentArgs{StudentID: "s1", Input: validInput})
	require.NoError(t, err)
	assert.Equal(t, "t2", got.ID)

	state := s.GetState()
	assert.Equal(t, []string{"t2", "t1"}, talentIDs(state.Talents))
	assert.Equal(t, []string{"t2", "t1"}, talentIDs(state.ByStudent["s1"]))
}

func TestAddTalent_ValidatesBeforeRequest(t *testing.T) {
	s, rt, client := setup(t, Initial())

	_, err := store.RunThunk(context.Background(), rt, AddTalent(client),
		TalentArgs{StudentID: "s1", Input: models.TalentInput{Category: "Music"}})
	require.Error(t, err)

	assert.Equal(t, "title must not be empty", s.GetState().Error)
	client.AssertNotCalled(t, "AddTalent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTalent(t *testing.T) {
	t.Run("replaces by id", func(t *testing.T) {
		initial := Initial()
		initial.Talents = []models.Talent{{ID: "t1", Title: "old"}, {ID: "t2"}}
		s, rt, client := setup(t, initial)
		client.On("UpdateTalent", mock.Anything, "s1", "t1", validInput, []api.File(nil)).
			Return(models.Talent{ID: "t1", Title: "Jazz piano"}, nil)

		_, err := store.RunThunk(context.Background(), rt, UpdateTalent(client),
			TalentArgs{StudentID: "s1", TalentID: "t1", Input: validInput})
		require.NoError(t, err)

		state := s.GetState()
		assert.Equal(t, []string{"t1", "t2"}, talentIDs(state.Talents))
		assert.Equal(t, "Jazz piano", state.Talents[0].Title)
		assert.Equal(t, "old", initial.Talents[0].Title)
	})

	t.Run("silent miss", func(t *testing.T) {
		initial := Initial()
		initial.Talents = []models.Talent{{ID: "t1"}}
		s, rt, client := setup(t, initial)
		client.On("UpdateTalent", mock.Anything, "s1", "t9", validInput, []api.File(nil)).
			Return(models.Talent{ID: "t9"}, nil)

		_, err := store.RunThunk(context.Background(), rt, UpdateTalent(client),
			TalentArgs{StudentID: "s1", TalentID: "t9", Input: validInput})
		require.NoError(t, err)

		state := s.GetState()
		assert.Equal(t, []string{"t1"}, talentIDs(state.Talents))
		assert.Empty(t, state.Error)
	})
}

func TestDeleteTalent(t *testing.T) {
	initial := Initial()
	initial.Talents = []models.Talent{{ID: "t1"}, {ID: "t2"}}
	initial.ByStudent["s1"] = []models.Talent{{ID: "t2"}}
	initial.Liked = []models.Talent{{ID: "t2"}}
	s, rt, client := setup(t, initial)
	client.On("DeleteTalent", mock.Anything, "s1", "t2").Return(nil)
	client.On("DeleteTalent", mock.Anything, "s1", "missing").Return(nil)

	_, err := store.RunThunk(context.Background(), rt, DeleteTalent(client), TalentArgs{StudentID: "s1", TalentID: "t2"})
	require.NoError(t, err)
	_, err = store.RunThunk(context.Background(), rt, DeleteTalent(client), TalentArgs{StudentID: "s1", TalentID: "missing"})
	require.NoError(t, err)

	state := s.GetState()
	assert.Equal(t, []string{"t1"}, talentIDs(state.Talents))
	assert.Empty(t, state.ByStudent["s1"])
	assert.Empty(t, state.Liked)
}

// ==========================
// Social actions
// ==========================

func TestSocialActions(t *testing.T) {
	s, rt, client := setup(t, Initial())
	client.On("LikeTalent", mock.Anything, "s1", "t1").Return(nil)
	client.On("SaveTalent", mock.Anything, "s1", "t1").Return(errors.NewHTTPError(404, "Talent not found", ""))
	client.On("RequestCollaboration", mock.Anything, "s1", "t1", "duet?").Return(nil)

	ctx := context.Background()
	_, err := store.RunThunk(ctx, rt, LikeTalent(client), SocialArgs{StudentID: "s1", TalentID: "t1"})
	require.NoError(t, err)

	_, err = store.RunThunk(ctx, rt, SaveTalent(client), SocialArgs{StudentID: "s1", TalentID: "t1"})
	require.Error(t, err)
	assert.Equal(t, "Talent not found", s.GetState().Error)

	action, err := store.RunThunk(ctx, rt, RequestCollaboration(client), SocialArgs{StudentID: "s1", TalentID: "t1", Message: "duet?"})
	require.NoError(t, err)
	assert.Equal(t, models.SocialAction{TalentID: "t1", Message: "duet?"}, action)
	assert.Empty(t, s.GetState().Error)

	client.AssertExpectations(t)
}

func TestFetchLikedAndSaved_FailSoft(t *testing.T) {
	initial := Initial()
	initial.Liked = []models.Talent{{ID: "old"}}
	s, rt, client := setup(t, initial)
	client.On("GetLikedTalents", mock.Anything, "s1").Return([]models.Talent{})
	client.On("GetSavedTalents", mock.Anything, "s1").Return([]models.Talent{{ID: "t5"}})

	_, err := store.RunThunk(context.Background(), rt, FetchLikedTalents(client), "s1")
	require.NoError(t, err)
	_, err = store.RunThunk(context.Background(), rt, FetchSavedTalents(client), "s1")
	require.NoError(t, err)

	state := s.GetState()
	assert.NotNil(t, state.Liked)
	assert.Empty(t, state.Liked)
	assert.Equal(t, []string{"t5"}, talentIDs(state.Saved))
	assert.Empty(t, state.Error)
}
