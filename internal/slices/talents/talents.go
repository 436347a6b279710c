// Package talents caches the global feed, per-student lists and the
// signed-in student's liked and saved talents.
package talents

import (
	"context"

	"talent-sync/internal/api"
	"talent-sync/internal/common/validation"
	"talent-sync/internal/models"
	"talent-sync/internal/store"
)

const (
	FetchAllTalentsType      = "talents/fetchAllTalents"
	FetchStudentTalentsType  = "talents/fetchStudentTalents"
	AddTalentType            = "talents/addTalent"
	UpdateTalentType         = "talents/updateTalent"
	DeleteTalentType         = "talents/deleteTalent"
	LikeTalentType           = "talents/likeTalent"
	SaveTalentType           = "talents/saveTalent"
	RequestCollaborationType = "talents/requestCollaboration"
	FetchLikedTalentsType    = "talents/fetchLikedTalents"
	FetchSavedTalentsType    = "talents/fetchSavedTalents"
)

type API interface {
	GetAllTalents(ctx context.Context) (api.ListResult[models.Talent], error)
	GetStudentTalents(ctx context.Context, studentID string) (api.ListResult[models.Talent], error)
	AddTalent(ctx context.Context, studentID string, in models.TalentInput, files []api.File) (models.Talent, error)
	UpdateTalent(ctx context.Context, studentID, talentID string, in models.TalentInput, files []api.File) (models.Talent, error)
	DeleteTalent(ctx context.Context, studentID, talentID string) error
	LikeTalent(ctx context.Context, studentID, talentID string) error
	SaveTalent(ctx context.Context, studentID, talentID string) error
	RequestCollaboration(ctx context.Context, studentID, talentID, message string) error
	GetLikedTalents(ctx context.Context, studentID string) []models.Talent
	GetSavedTalents(ctx context.Context, studentID string) []models.Talent
}

type State struct {
	Talents   []models.Talent
	ByStudent map[string][]models.Talent
	Liked     []models.Talent
	Saved     []models.Talent
	IsLoading bool
	Error     string
}

func Initial() State {
	return State{
		Talents:   []models.Talent{},
		ByStudent: map[string][]models.Talent{},
		Liked:     []models.Talent{},
		Saved:     []models.Talent{},
	}
}

// TalentArgs addresses one talent, optionally with new content and media.
type TalentArgs struct {
	StudentID string
	TalentID  string
	Input     models.TalentInput
	Files     []api.File
}

// SocialArgs is the argument of like, save and collaboration requests.
type SocialArgs struct {
	StudentID string
	TalentID  string
	Message   string
}

// ==========================
// Thunks
// ==========================

func FetchAllTalents(client API) store.Thunk[struct{}, api.ListResult[models.Talent]] {
	return store.Thunk[struct{}, api.ListResult[models.Talent]]{
		Type: FetchAllTalentsType,
		Run: func(ctx context.Context, _ struct{}) (api.ListResult[models.Talent], error) {
			return client.GetAllTalents(ctx)
		},
	}
}

func FetchStudentTalents(client API) store.Thunk[string, api.ListResult[models.Talent]] {
	return store.Thunk[string, api.ListResult[models.Talent]]{
		Type: FetchStudentTalentsType,
		Run: func(ctx context.Context, studentID string) (api.ListResult[models.Talent], error) {
			return client.GetStudentTalents(ctx, studentID)
		},
	}
}

func validateInput(in models.TalentInput) error {
	return validation.Validate(map[string]interface{}{
		"title":       in.Title,
		"category":    in.Category,
		"description": in.Description,
	}, validation.TalentSchema)
}

func AddTalent(client API) store.Thunk[TalentArgs, models.Talent] {
	return store.Thunk[TalentArgs, models.Talent]{
		Type: AddTalentType,
		Run: func(ctx context.Context, args TalentArgs) (models.Talent, error) {
			if err := validateInput(args.Input); err != nil {
				return models.Talent{}, err
			}
			return client.AddTalent(ctx, args.StudentID, args.Input, args.Files)
		},
	}
}

func UpdateTalent(client API) store.Thunk[TalentArgs, models.Talent] {
	return store.Thunk[TalentArgs, models.Talent]{
		Type: UpdateTalentType,
		Run: func(ctx context.Context, args TalentArgs) (models.Talent, error) {
			if err := validateInput(args.Input); err != nil {
				return models.Talent{}, err
			}
			return client.UpdateTalent(ctx, args.StudentID, args.TalentID, args.Input, args.Files)
		},
	}
}

// DeleteTalent resolves to the id that was removed.
func DeleteTalent(client API) store.Thunk[TalentArgs, string] {
	return store.Thunk[TalentArgs, string]{
		Type: DeleteTalentType,
		Run: func(ctx context.Context, args TalentArgs) (string, error) {
			if err := client.DeleteTalent(ctx, args.StudentID, args.TalentID); err != nil {
				return "", err
			}
			return args.TalentID, nil
		},
	}
}

func LikeTalent(client API) store.Thunk[SocialArgs, models.SocialAction] {
	return socialThunk(LikeTalentType, func(ctx context.Context, args SocialArgs) error {
		return client.LikeTalent(ctx, args.StudentID, args.TalentID)
	})
}

func SaveTalent(client API) store.Thunk[SocialArgs, models.SocialAction] {
	return socialThunk(SaveTalentType, func(ctx context.Context, args SocialArgs) error {
		return client.SaveTalent(ctx, args.StudentID, args.TalentID)
	})
}

func RequestCollaboration(client API) store.Thunk[SocialArgs, models.SocialAction] {
	return socialThunk(RequestCollaborationType, func(ctx context.Context, args SocialArgs) error {
		return client.RequestCollaboration(ctx, args.StudentID, args.TalentID, args.Message)
	})
}

func socialThunk(typ string, call func(context.Context, SocialArgs) error) store.Thunk[SocialArgs, models.SocialAction] {
	return store.Thunk[SocialArgs, models.SocialAction]{
		Type: typ,
		Run: func(ctx context.Context, args SocialArgs) (models.SocialAction, error) {
			if err := call(ctx, args); err != nil {
				return models.SocialAction{}, err
			}
			return models.SocialAction{TalentID: args.TalentID, Message: args.Message}, nil
		},
	}
}

// FetchLikedTalents never rejects: the read is fail-soft.
func FetchLikedTalents(client API) store.Thunk[string, []models.Talent] {
	return store.Thunk[string, []models.Talent]{
		Type: FetchLikedTalentsType,
		Run: func(ctx context.Context, studentID string) ([]models.Talent, error) {
			return client.GetLikedTalents(ctx, studentID), nil
		},
	}
}

// FetchSavedTalents never rejects: the read is fail-soft.
func FetchSavedTalents(client API) store.Thunk[string, []models.Talent] {
	return store.Thunk[string, []models.Talent]{
		Type: FetchSavedTalentsType,
		Run: func(ctx context.Context, studentID string) ([]models.Talent, error) {
			return client.GetSavedTalents(ctx, studentID), nil
		},
	}
}

// ==========================
// Reducer
// ==========================

var asyncTypes = []string{
	FetchAllTalentsType,
	FetchStudentTalentsType,
	AddTalentType,
	UpdateTalentType,
	DeleteTalentType,
	LikeTalentType,
	SaveTalentType,
	RequestCollaborationType,
	FetchLikedTalentsType,
	FetchSavedTalentsType,
}

func Reduce(state State, action store.Action) State {
	state = reduceLoading(state, action)

	switch action.Type {
	case store.Fulfilled(FetchAllTalentsType):
		result, _ := store.PayloadAs[api.ListResult[models.Talent]](action)
		state.Talents = result.OrEmpty()

	case store.Fulfilled(FetchStudentTalentsType):
		studentID, _ := store.ArgAs[string](action)
		result, _ := store.PayloadAs[api.ListResult[models.Talent]](action)
		state.ByStudent = withStudent(state.ByStudent, studentID, result.OrEmpty())

	case store.Fulfilled(AddTalentType):
		talent, _ := store.PayloadAs[models.Talent](action)
		state.Talents = prepend(state.Talents, talent)
		if owner := ownerOf(talent, action); owner != "" {
			if list, ok := state.ByStudent[owner]; ok {
				state.ByStudent = withStudent(state.ByStudent, owner, prepend(list, talent))
			}
		}

	case store.Fulfilled(UpdateTalentType):
		talent, _ := store.PayloadAs[models.Talent](action)
		state.Talents = replaceByID(state.Talents, talent)
		if owner := ownerOf(talent, action); owner != "" {
			if list, ok := state.ByStudent[owner]; ok {
				state.ByStudent = withStudent(state.ByStudent, owner, replaceByID(list, talent))
			}
		}
		state.Liked = replaceByID(state.Liked, talent)
		state.Saved = replaceByID(state.Saved, talent)

	case store.Fulfilled(DeleteTalentType):
		id, _ := store.PayloadAs[string](action)
		state.Talents = removeByID(state.Talents, id)
		args, _ := store.ArgAs[TalentArgs](action)
		if list, ok := state.ByStudent[args.StudentID]; ok {
			state.ByStudent = withStudent(state.ByStudent, args.StudentID, removeByID(list, id))
		}
		state.Liked = removeByID(state.Liked, id)
		state.Saved = removeByID(state.Saved, id)

	case store.Fulfilled(FetchLikedTalentsType):
		liked, _ := store.PayloadAs[[]models.Talent](action)
		state.Liked = orEmpty(liked)

	case store.Fulfilled(FetchSavedTalentsType):
		saved, _ := store.PayloadAs[[]models.Talent](action)
		state.Saved = orEmpty(saved)
	}
	return state
}

func reduceLoading(state State, action store.Action) State {
	for _, typ := range asyncTypes {
		switch action.Type {
		case store.Pending(typ):
			state.IsLoading = true
			state.Error = ""
			return state
		case store.Fulfilled(typ):
			state.IsLoading = false
			return state
		case store.Rejected(typ):
			state.IsLoading = false
			state.Error = action.Message()
			return state
		}
	}
	return state
}

// ==========================
// Helpers
// ==========================

func ownerOf(talent models.Talent, action store.Action) string {
	if talent.StudentID != "" {
		return talent.StudentID
	}
	args, _ := store.ArgAs[TalentArgs](action)
	return args.StudentID
}

func orEmpty(list []models.Talent) []models.Talent {
	if list == nil {
		return []models.Talent{}
	}
	return list
}

func prepend(list []models.Talent, talent models.Talent) []models.Talent {
	out := make([]models.Talent, 0, len(list)+1)
	out = append(out, talent)
	return append(out, list...)
}

// replaceByID is a silent no-op when the id is not cached.
func replaceByID(list []models.Talent, talent models.Talent) []models.Talent {
	for i, t := range list {
		if t.ID == talent.ID {
			out := make([]models.Talent, len(list))
			copy(out, list)
			out[i] = talent
			return out
		}
	}
	return list
}

func removeByID(list []models.Talent, id string) []models.Talent {
	for i, t := range list {
		if t.ID == id {
			out := make([]models.Talent, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}

func withStudent(byStudent map[string][]models.Talent, studentID string, list []models.Talent) map[string][]models.Talent {
	out := make(map[string][]models.Talent, len(byStudent)+1)
	for k, v := range byStudent {
		out[k] = v
	}
	out[studentID] = list
	return out
}
